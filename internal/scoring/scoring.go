// Package scoring computes the per-factor relevance of a job posting to a
// seeker profile. Every function is pure and returns a bounded value.
package scoring

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/spigell/jobmatch/internal/board"
	"github.com/spigell/jobmatch/internal/synonyms"
)

// Weights of the sub-scores in the combined relevance score.
const (
	SkillWeight      = 0.40
	ExperienceWeight = 0.20
	LocationWeight   = 0.15
	KeywordWeight    = 0.20
	RecencyWeight    = 0.05
)

const (
	neutralScore = 0.5
	weakScore    = 0.3

	partialLocationScore = 0.7

	minKeywordLength = 3
	keywordRatio     = 0.3

	freshBonus  = 0.1
	recentBonus = 0.05
	freshAge    = 7 * 24 * time.Hour
	recentAge   = 30 * 24 * time.Hour
)

var (
	firstIntegerRe  = regexp.MustCompile(`\d+`)
	explicitYearsRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*\+?\s*(?:years?|yrs?)\b`)
	calendarYearRe  = regexp.MustCompile(`\b\d{4}\b`)
)

// Breakdown holds the sub-scores of one job against one profile.
type Breakdown struct {
	SkillMatch      float64
	ExperienceMatch float64
	LocationMatch   float64
	KeywordMatch    float64
	RecencyBonus    float64
}

// Total combines the sub-scores with the fixed weights. The result is not clamped.
func (b Breakdown) Total() float64 {
	return b.SkillMatch*SkillWeight +
		b.ExperienceMatch*ExperienceWeight +
		b.LocationMatch*LocationWeight +
		b.KeywordMatch*KeywordWeight +
		b.RecencyBonus*RecencyWeight
}

// Score computes every sub-score of job against profile. keywords must come
// from Keywords(profile); it is passed in so callers can compute it once per
// profile rather than once per job.
func Score(profile *board.SeekerProfile, keywords []string, job *board.JobPosting, now time.Time) Breakdown {
	if profile == nil {
		profile = &board.SeekerProfile{}
	}
	if job == nil {
		job = &board.JobPosting{}
	}

	return Breakdown{
		SkillMatch:      SkillScore(profile.Skills, job.Skills),
		ExperienceMatch: ExperienceScore(profile.Experience, job.Experience),
		LocationMatch:   LocationScore(profile.Location, job.Location, job.Type),
		KeywordMatch:    KeywordScore(keywords, job),
		RecencyBonus:    RecencyBonus(job.CreatedAt, now),
	}
}

// SkillScore is the share of distinct required job skills that the user covers,
// directly or through a synonym.
func SkillScore(userSkills, jobSkills []string) float64 {
	if len(userSkills) == 0 || len(jobSkills) == 0 {
		return 0
	}

	user := synonyms.ExpandAll(userSkills)
	if len(user) == 0 {
		return 0
	}

	required := make(map[string]struct{}, len(jobSkills))
	matched := 0
	for _, skill := range jobSkills {
		skill = synonyms.Normalize(skill)
		if skill == "" {
			continue
		}
		if _, seen := required[skill]; seen {
			continue
		}
		required[skill] = struct{}{}

		for _, term := range synonyms.Expand(skill) {
			if _, ok := user[term]; ok {
				matched++
				break
			}
		}
	}

	if len(required) == 0 {
		return 0
	}

	return math.Min(float64(matched)/float64(len(required)), 1)
}

// ExperienceScore compares the user's estimated years of experience with the
// years required by the posting.
func ExperienceScore(experience []board.Experience, jobExperience string) float64 {
	jobExperience = strings.TrimSpace(jobExperience)
	if jobExperience == "" || len(experience) == 0 {
		return neutralScore
	}

	jobYears := 0.0
	if m := firstIntegerRe.FindString(jobExperience); m != "" {
		jobYears, _ = strconv.ParseFloat(m, 64)
	}

	total := 0.0
	for _, entry := range experience {
		total += EstimateYears(entry.Duration)
	}

	switch {
	case total <= 0:
		return weakScore
	case total >= jobYears:
		return 1
	default:
		return math.Min(total/jobYears, 1)
	}
}

// EstimateYears reads an explicit "N years" / "N yrs" value from duration, or
// falls back to the span between the first and last calendar years mentioned.
func EstimateYears(duration string) float64 {
	if m := explicitYearsRe.FindStringSubmatch(duration); m != nil {
		years, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return years
		}
	}

	found := calendarYearRe.FindAllString(duration, -1)
	if len(found) == 0 {
		return 0
	}

	first, _ := strconv.Atoi(found[0])
	last, _ := strconv.Atoi(found[len(found)-1])
	return math.Max(float64(last-first), 0)
}

// LocationScore rates how compatible the user's location is with the posting.
// Remote postings, by type or by location text, are compatible with everyone.
func LocationScore(userLocation, jobLocation string, jobType board.JobType) float64 {
	user := strings.ToLower(strings.TrimSpace(userLocation))
	job := strings.ToLower(strings.TrimSpace(jobLocation))

	if jobType == board.JobTypeRemote || strings.Contains(job, "remote") {
		return 1
	}
	if user == "" || job == "" {
		return neutralScore
	}

	switch {
	case user == job:
		return 1
	case strings.Contains(user, job) || strings.Contains(job, user):
		return partialLocationScore
	default:
		return weakScore
	}
}

// Keywords extracts the distinct lower-cased words of at least three runes
// from the free-text parts of a profile, sorted.
func Keywords(profile *board.SeekerProfile) []string {
	if profile == nil {
		return nil
	}

	sources := make([]string, 0, 2+len(profile.Skills)+2*len(profile.Experience)+2*len(profile.Education))
	sources = append(sources, profile.Skills...)
	sources = append(sources, profile.Headline, profile.Bio)
	for _, e := range profile.Experience {
		sources = append(sources, e.Title, e.Company)
	}
	for _, e := range profile.Education {
		sources = append(sources, e.Degree, e.School)
	}

	seen := make(map[string]struct{})
	for _, source := range sources {
		words := strings.FieldsFunc(strings.ToLower(source), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			if utf8.RuneCountInString(w) >= minKeywordLength {
				seen[w] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

// KeywordScore measures how many profile keywords occur in the posting's title
// and description. Matching 30% of the keywords earns the full score.
func KeywordScore(keywords []string, job *board.JobPosting) float64 {
	if len(keywords) == 0 {
		return weakScore
	}
	if job == nil {
		return 0
	}

	text := strings.ToLower(job.Title + " " + job.Description)

	matches := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matches++
		}
	}

	return math.Min(float64(matches)/math.Max(float64(len(keywords))*keywordRatio, 1), 1)
}

// RecencyBonus rewards postings created in the last week (0.1) or month (0.05).
func RecencyBonus(createdAt, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}

	age := now.Sub(createdAt)
	switch {
	case age < freshAge:
		return freshBonus
	case age < recentAge:
		return recentBonus
	default:
		return 0
	}
}
