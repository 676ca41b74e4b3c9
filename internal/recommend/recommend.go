// Package recommend ranks open job postings for a seeker. Service picks between
// an AI ranker and the deterministic Heuristic ranker and degrades to the
// latter whenever the AI path fails.
package recommend

import (
	"math"

	"github.com/spigell/jobmatch/internal/board"
)

// DefaultLimit is the number of recommendations returned when the caller does
// not ask for a specific amount.
const DefaultLimit = 10

// MessageCode tells the caller why a result looks the way it does.
type MessageCode string

const (
	MessageSuccess           MessageCode = "SUCCESS"
	MessageNoJobsAvailable   MessageCode = "NO_JOBS_AVAILABLE"
	MessageNoSuitableJobs    MessageCode = "NO_SUITABLE_JOBS"
	MessageProfileNotFound   MessageCode = "PROFILE_NOT_FOUND"
	MessageProfileIncomplete MessageCode = "PROFILE_INCOMPLETE"
	MessageError             MessageCode = "ERROR"
)

// MessageCodes lists every code in a stable order.
var MessageCodes = []MessageCode{
	MessageSuccess,
	MessageNoJobsAvailable,
	MessageNoSuitableJobs,
	MessageProfileNotFound,
	MessageProfileIncomplete,
	MessageError,
}

// Source names the ranker that produced a recommendation.
type Source string

const (
	SourceAI        Source = "ai"
	SourceHeuristic Source = "heuristic"
)

// Breakdown is the per-factor match expressed in whole percentages.
type Breakdown struct {
	SkillMatch      int `json:"skillMatch"`
	ExperienceMatch int `json:"experienceMatch"`
	LocationMatch   int `json:"locationMatch"`
	KeywordMatch    int `json:"keywordMatch"`
}

type Recommendation struct {
	Job       *board.JobPosting `json:"job"`
	Score     float64           `json:"matchScore"`
	Reasoning string            `json:"reasoning"`
	Breakdown Breakdown         `json:"breakdown"`
	Source    Source            `json:"source"`
}

type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
	Message         MessageCode      `json:"message"`
}

// Percent converts a [0,1] fraction into a rounded percentage.
func Percent(fraction float64) int {
	if math.IsNaN(fraction) {
		return 0
	}
	return int(math.Round(fraction * 100))
}

// normalize fills in the message for results that only carry recommendations
// and enforces the limit.
func normalize(result Result, limit int) Result {
	if result.Recommendations == nil {
		result.Recommendations = []Recommendation{}
	}
	if limit > 0 && len(result.Recommendations) > limit {
		result.Recommendations = result.Recommendations[:limit]
	}
	if result.Message == "" {
		result.Message = MessageSuccess
		if len(result.Recommendations) == 0 {
			result.Message = MessageNoSuitableJobs
		}
	}
	return result
}

func emptyResult(code MessageCode) Result {
	return Result{Recommendations: []Recommendation{}, Message: code}
}
