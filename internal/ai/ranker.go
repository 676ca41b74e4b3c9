// Package ai ranks job postings for a seeker with a large language model.
// Provider clients live in subpackages and only need to turn a prompt into
// text.
package ai

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/board"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/recommend"
	"github.com/spigell/jobmatch/internal/utils"
)

const (
	// DefaultMaxJobs caps the candidates sent in one prompt.
	DefaultMaxJobs = 50
	// MinMatchScore is the lowest model score accepted.
	MinMatchScore = 0.25

	defaultMaxLogLength  = 200
	maxDescriptionLength = 500
)

//go:embed prompt.md
var promptTemplate string

// Generator turns a prompt into the model's text reply.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

type Ranker struct {
	generator Generator
	logger    *zap.Logger
	maxJobs   int
	maxLogLen int
}

func NewRanker(generator Generator, provider string, log *zap.Logger, maxJobs, maxLogLength int) *Ranker {
	if maxJobs <= 0 {
		maxJobs = DefaultMaxJobs
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	model := ""
	if generator != nil {
		model = generator.Model()
	}

	return &Ranker{
		generator: generator,
		logger:    logger.WithCommonFields(log, provider, model),
		maxJobs:   maxJobs,
		maxLogLen: maxLogLength,
	}
}

type profilePayload struct {
	Skills     []string           `json:"skills"`
	Location   string             `json:"location,omitempty"`
	Headline   string             `json:"headline,omitempty"`
	Bio        string             `json:"bio,omitempty"`
	Experience []board.Experience `json:"experience,omitempty"`
	Education  []board.Education  `json:"education,omitempty"`
}

type jobPayload struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Type        string   `json:"type,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	Experience  string   `json:"experience,omitempty"`
	Company     string   `json:"companyName,omitempty"`
}

// entry is one element of the model reply. Fields are decoded weakly since
// models quote numbers and ids inconsistently.
type entry struct {
	JobID           string  `mapstructure:"jobId"`
	MatchScore      float64 `mapstructure:"matchScore"`
	SkillMatch      float64 `mapstructure:"skillMatch"`
	LocationMatch   float64 `mapstructure:"locationMatch"`
	ExperienceMatch float64 `mapstructure:"experienceMatch"`
	Reasoning       string  `mapstructure:"reasoning"`
}

// Rank asks the model to rank jobs for profile. A reply that cannot be parsed
// yields an empty NO_SUITABLE_JOBS result instead of an error.
func (r *Ranker) Rank(ctx context.Context, profile *board.SeekerProfile, jobs []*board.JobPosting, limit int) (recommend.Result, error) {
	if r == nil || r.generator == nil {
		return recommend.Result{}, recommend.NewTransient(recommend.AIUnavailable, errors.New("generator is not configured"))
	}
	if profile == nil {
		return recommend.Result{}, recommend.ErrProfileNotFound
	}
	if !profile.IsComplete() {
		return recommend.Result{}, recommend.ErrProfileIncomplete
	}
	if limit <= 0 {
		limit = recommend.DefaultLimit
	}

	jobs = slices.DeleteFunc(slices.Clone(jobs), func(j *board.JobPosting) bool { return j == nil })
	if len(jobs) == 0 {
		return recommend.Result{Recommendations: []recommend.Recommendation{}, Message: recommend.MessageNoJobsAvailable}, nil
	}

	if len(jobs) > r.maxJobs {
		r.logger.Info("capping candidate jobs sent to the model",
			zap.Int("candidates", len(jobs)),
			zap.Int("max_jobs", r.maxJobs),
		)
		jobs = jobs[:r.maxJobs]
	}

	prompt, err := buildPrompt(profile, jobs, limit)
	if err != nil {
		return recommend.Result{}, err
	}

	r.logger.Debug("ai generate content request",
		zap.Int("jobs", len(jobs)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, r.maxLogLen)),
	)

	raw, err := r.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return recommend.Result{}, recommend.NewTransient(recommend.AIRequestFailed, err)
	}
	if strings.TrimSpace(raw) == "" {
		return recommend.Result{}, recommend.NewTransient(recommend.AIResponseInvalid, errors.New("empty model response"))
	}

	r.logger.Debug("ai generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, r.maxLogLen)),
	)

	entries, err := parseResponse(raw)
	if err != nil {
		r.logger.Warn("discarding unparseable model response", zap.Error(err))
		return recommend.Result{Recommendations: []recommend.Recommendation{}, Message: recommend.MessageNoSuitableJobs}, nil
	}

	recs := r.collect(entries, jobs)
	if len(recs) > limit {
		recs = recs[:limit]
	}

	if len(recs) == 0 {
		return recommend.Result{Recommendations: []recommend.Recommendation{}, Message: recommend.MessageNoSuitableJobs}, nil
	}

	return recommend.Result{Recommendations: recs, Message: recommend.MessageSuccess}, nil
}

// collect keeps entries that reference a sent job, clear the threshold and
// were not seen before, ordered by score.
func (r *Ranker) collect(entries []entry, jobs []*board.JobPosting) []recommend.Recommendation {
	byID := make(map[string]*board.JobPosting, len(jobs))
	for _, job := range jobs {
		byID[job.ID] = job
	}

	seen := make(map[string]struct{}, len(entries))
	recs := make([]recommend.Recommendation, 0, len(entries))
	unknown, below := 0, 0

	for _, e := range entries {
		id := strings.TrimSpace(e.JobID)
		job, ok := byID[id]
		if !ok {
			unknown++
			continue
		}
		if math.IsNaN(e.MatchScore) || e.MatchScore < MinMatchScore {
			below++
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		recs = append(recs, recommend.Recommendation{
			Job:       job,
			Score:     clamp(e.MatchScore),
			Reasoning: strings.TrimSpace(e.Reasoning),
			Breakdown: recommend.Breakdown{
				SkillMatch:      recommend.Percent(clamp(e.SkillMatch)),
				ExperienceMatch: recommend.Percent(clamp(e.ExperienceMatch)),
				LocationMatch:   recommend.Percent(clamp(e.LocationMatch)),
			},
			Source: recommend.SourceAI,
		})
	}

	if unknown > 0 || below > 0 {
		r.logger.Debug("dropped model entries",
			zap.Int("unknown_job_ids", unknown),
			zap.Int("below_threshold", below),
		)
	}

	slices.SortStableFunc(recs, func(a, b recommend.Recommendation) int {
		return cmp.Compare(b.Score, a.Score)
	})

	return recs
}

func buildPrompt(profile *board.SeekerProfile, jobs []*board.JobPosting, limit int) (string, error) {
	profileJSON, err := json.MarshalIndent(profilePayload{
		Skills:     profile.Skills,
		Location:   profile.Location,
		Headline:   profile.Headline,
		Bio:        profile.Bio,
		Experience: profile.Experience,
		Education:  profile.Education,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile payload: %w", err)
	}

	payload := make([]jobPayload, 0, len(jobs))
	for _, job := range jobs {
		payload = append(payload, jobPayload{
			ID:          job.ID,
			Title:       job.Title,
			Description: utils.TruncateRunes(strings.TrimSpace(job.Description), maxDescriptionLength),
			Location:    job.Location,
			Type:        string(job.Type),
			Skills:      job.Skills,
			Experience:  job.Experience,
			Company:     job.CompanyName,
		})
	}

	jobsJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal jobs payload: %w", err)
	}

	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Profile:\n{{PROFILE_JSON}}\n\nJobs:\n{{JOBS_JSON}}\n\nReturn at most {{LIMIT}} matches with matchScore >= {{MIN_SCORE}} as a JSON array."
	}

	prompt := strings.ReplaceAll(template, "{{PROFILE_JSON}}", string(profileJSON))
	prompt = strings.ReplaceAll(prompt, "{{JOBS_JSON}}", string(jobsJSON))
	prompt = strings.ReplaceAll(prompt, "{{LIMIT}}", strconv.Itoa(limit))
	prompt = strings.ReplaceAll(prompt, "{{MIN_SCORE}}", strconv.FormatFloat(MinMatchScore, 'f', -1, 64))
	return prompt, nil
}

func parseResponse(raw string) ([]entry, error) {
	cleaned := extractJSON(raw)

	var data []any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	entries := make([]entry, 0, len(data))
	for _, item := range data {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}

		// Entries that cannot be decoded are skipped like unknown ids.
		e := entry{MatchScore: math.NaN()}
		if err := mapstructure.WeakDecode(fields, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// extractJSON strips markdown fences and narrows raw to the outermost array.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")

	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start != -1 && end > start {
		raw = raw[start : end+1]
	}

	return strings.TrimSpace(raw)
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
