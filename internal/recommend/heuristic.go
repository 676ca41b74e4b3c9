package recommend

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/spigell/jobmatch/internal/board"
	"github.com/spigell/jobmatch/internal/scoring"
)

// MinHeuristicScore is the lowest combined score a heuristic recommendation may have.
const MinHeuristicScore = 0.2

// Heuristic ranks postings with the weighted sub-scores of package scoring.
type Heuristic struct {
	now func() time.Time
}

func NewHeuristic(now func() time.Time) *Heuristic {
	if now == nil {
		now = time.Now
	}
	return &Heuristic{now: now}
}

// Rank scores every job, drops those under MinHeuristicScore and returns the
// best limit of them, highest score first. Equal scores keep input order.
// Callers must have checked profile completeness and a non-empty job list.
func (h *Heuristic) Rank(profile *board.SeekerProfile, jobs []*board.JobPosting, limit int) Result {
	if limit <= 0 {
		limit = DefaultLimit
	}

	now := h.now()
	keywords := scoring.Keywords(profile)

	scored := make([]Recommendation, 0, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}

		b := scoring.Score(profile, keywords, job, now)
		total := b.Total()
		if total < MinHeuristicScore {
			continue
		}

		scored = append(scored, Recommendation{
			Job:       job,
			Score:     total,
			Reasoning: explain(b),
			Breakdown: Breakdown{
				SkillMatch:      Percent(b.SkillMatch),
				ExperienceMatch: Percent(b.ExperienceMatch),
				LocationMatch:   Percent(b.LocationMatch),
				KeywordMatch:    Percent(b.KeywordMatch),
			},
			Source: SourceHeuristic,
		})
	}

	slices.SortStableFunc(scored, func(a, b Recommendation) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	if len(scored) == 0 {
		return emptyResult(MessageNoSuitableJobs)
	}

	return Result{Recommendations: scored, Message: MessageSuccess}
}

func explain(b scoring.Breakdown) string {
	reasons := make([]string, 0, 5)

	switch {
	case b.SkillMatch >= 0.7:
		reasons = append(reasons, "strong skill match")
	case b.SkillMatch >= 0.4:
		reasons = append(reasons, "partial skill match")
	case b.SkillMatch > 0:
		reasons = append(reasons, "some matching skills")
	}

	if b.ExperienceMatch >= 1 {
		reasons = append(reasons, "experience meets the requirement")
	}

	switch {
	case b.LocationMatch >= 1:
		reasons = append(reasons, "location compatible")
	case b.LocationMatch >= 0.7:
		reasons = append(reasons, "nearby location")
	}

	if b.KeywordMatch >= 0.5 {
		reasons = append(reasons, "profile keywords appear in the posting")
	}

	if b.RecencyBonus > 0 {
		reasons = append(reasons, "recently posted")
	}

	if len(reasons) == 0 {
		return "General match based on your profile"
	}

	reasons[0] = strings.ToUpper(reasons[0][:1]) + reasons[0][1:]
	return strings.Join(reasons, "; ")
}
