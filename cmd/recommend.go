package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/board"
	"github.com/spigell/jobmatch/internal/breaker"
	"github.com/spigell/jobmatch/internal/httpapi"
	"github.com/spigell/jobmatch/internal/recommend"
)

const (
	PromptBack = "back"
	PromptDump = "Print as JSON"

	// recommendLogOutput keeps logs off stdout, which carries the JSON result.
	recommendLogOutput = "stderr"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend jobs for one seeker from a JSON snapshot",
	Run: func(cmd *cobra.Command, _ []string) {
		runRecommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringP("user", "u", "", "seeker user id")
	recommendCmd.Flags().String("data", "", "snapshot file with profiles, jobs, applications and wishlists")
	recommendCmd.Flags().IntP("limit", "l", 0, "maximum number of recommendations (default is recommendations.default-limit)")
	recommendCmd.Flags().BoolP("interactive", "i", false, "browse the recommendations interactively")
	recommendCmd.Flags().Bool("no-ai", false, "use heuristic recommendations only")

	recommendCmd.MarkFlagRequired("user")
	recommendCmd.MarkFlagRequired("data")
}

func runRecommend(cmd *cobra.Command) {
	ctx := context.Background()

	logger := newLoggerTo(recommendLogOutput)
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	userID, _ := cmd.Flags().GetString("user")
	dataFile, _ := cmd.Flags().GetString("data")
	limit, _ := cmd.Flags().GetInt("limit")
	interactive, _ := cmd.Flags().GetBool("interactive")
	noAI, _ := cmd.Flags().GetBool("no-ai")

	snapshot, err := board.LoadSnapshot(dataFile)
	if err != nil {
		logger.Fatal("loading snapshot", zap.Error(err), zap.String("file", dataFile))
	}

	logger.Debug("snapshot loaded",
		zap.Int("profiles", len(snapshot.Profiles)),
		zap.Int("jobs", len(snapshot.Jobs)),
	)

	var ranker recommend.AIRanker
	if !noAI {
		ranker, err = newAIRanker(ctx, config.AI, logger)
		if err != nil {
			logger.Fatal("creating ai ranker", zap.Error(err))
		}
	}

	svc, err := newService(config, board.NewMemoryStore(snapshot), ranker, breaker.NewMemory(config.AI.Cooldown), logger)
	if err != nil {
		logger.Fatal("creating recommendation service", zap.Error(err))
	}

	if limit > 0 && config.Recommendations.MaxLimit > 0 {
		limit = min(limit, config.Recommendations.MaxLimit)
	}

	result, err := svc.GetRecommendations(ctx, userID, limit)
	if recommend.Classify(err) == recommend.ClassUnexpected {
		logger.Fatal("getting recommendations", zap.Error(err))
	}

	code := resultCode(result, err)
	logger.Info(httpapi.Messages[code],
		zap.String("message_code", string(code)),
		zap.Int("count", len(result.Recommendations)),
	)

	if !interactive || len(result.Recommendations) == 0 {
		if _, werr := writeResult(os.Stdout, result, err); werr != nil {
			logger.Fatal("printing result", zap.Error(werr))
		}
		return
	}

	if err := browse(result); err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}
}

// browse lets the operator pick recommendations one by one and inspect them.
func browse(result recommend.Result) error {
	items := make([]string, 0, len(result.Recommendations)+2)
	for i, rec := range result.Recommendations {
		items = append(items, recommendationLabel(i, rec))
	}
	items = append(items, PromptDump, PromptBack)

	for {
		selector := promptui.Select{
			Label: "Choose a recommendation and press ENTER",
			Items: items,
			Size:  10,
		}

		idx, selected, err := selector.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		switch selected {
		case PromptBack:
			return nil
		case PromptDump:
			if err := printJSON(os.Stdout, result); err != nil {
				return err
			}
		default:
			printDetails(os.Stdout, result.Recommendations[idx])
		}
	}
}

func recommendationLabel(i int, rec recommend.Recommendation) string {
	company := rec.Job.CompanyName
	if company == "" {
		company = "unknown company"
	}
	return fmt.Sprintf("%d. %3d%% %s / %s / %s", i+1, recommend.Percent(rec.Score), rec.Job.Title, company, rec.Job.Location)
}

func printDetails(w io.Writer, rec recommend.Recommendation) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", rec.Job.Title, rec.Job.ID)
	fmt.Fprintf(&b, "  score:      %d%% via %s\n", recommend.Percent(rec.Score), rec.Source)
	fmt.Fprintf(&b, "  skills:     %d%%\n", rec.Breakdown.SkillMatch)
	fmt.Fprintf(&b, "  experience: %d%%\n", rec.Breakdown.ExperienceMatch)
	fmt.Fprintf(&b, "  location:   %d%%\n", rec.Breakdown.LocationMatch)
	fmt.Fprintf(&b, "  keywords:   %d%%\n", rec.Breakdown.KeywordMatch)
	fmt.Fprintf(&b, "  reasoning:  %s\n", rec.Reasoning)
	fmt.Fprint(w, b.String())
}

// resultCode is the message code of a finished GetRecommendations call.
func resultCode(result recommend.Result, err error) recommend.MessageCode {
	if err != nil {
		return recommend.CodeFor(err)
	}
	if result.Message == "" {
		return recommend.MessageSuccess
	}
	return result.Message
}

// writeResult prints the outcome of GetRecommendations as JSON. A failed call
// is printed as an empty result carrying its code.
func writeResult(w io.Writer, result recommend.Result, err error) (recommend.MessageCode, error) {
	code := resultCode(result, err)
	if err != nil {
		result = recommend.Result{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []recommend.Recommendation{}
	}
	result.Message = code

	return code, printJSON(w, result)
}

func printJSON(w io.Writer, result recommend.Result) error {
	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(pretty))
	return err
}
