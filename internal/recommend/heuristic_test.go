package recommend

import (
	"reflect"
	"testing"
	"time"

	"github.com/spigell/jobmatch/internal/board"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func backendProfile() *board.SeekerProfile {
	return &board.SeekerProfile{
		UserID:   "u1",
		Skills:   []string{"go", "docker"},
		Location: "Berlin",
		Headline: "Backend engineer",
	}
}

func heuristicJobs() []*board.JobPosting {
	return []*board.JobPosting{
		{
			ID:        "partial",
			Title:     "Engineer",
			Location:  "Berlin, Germany",
			Type:      board.JobTypeFullTime,
			Skills:    []string{"docker", "kotlin"},
			Status:    board.JobStatusOpen,
			CreatedAt: fixedNow.AddDate(0, -3, 0),
		},
		{
			ID:        "unrelated",
			Title:     "Accountant",
			Location:  "Tokyo",
			Type:      board.JobTypeFullTime,
			Skills:    []string{"java"},
			Status:    board.JobStatusOpen,
			CreatedAt: fixedNow.AddDate(0, -3, 0),
		},
		{
			ID:        "best",
			Title:     "Backend Go engineer",
			Location:  "Berlin",
			Type:      board.JobTypeFullTime,
			Skills:    []string{"golang", "docker"},
			Status:    board.JobStatusOpen,
			CreatedAt: fixedNow.AddDate(0, 0, -1),
		},
	}
}

func TestHeuristicRankOrdersAndFilters(t *testing.T) {
	t.Parallel()

	result := NewHeuristic(fixedClock).Rank(backendProfile(), heuristicJobs(), 10)

	if result.Message != MessageSuccess {
		t.Fatalf("expected SUCCESS, got %s", result.Message)
	}

	if len(result.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(result.Recommendations))
	}

	first, second := result.Recommendations[0], result.Recommendations[1]
	if first.Job.ID != "best" || second.Job.ID != "partial" {
		t.Fatalf("unexpected order: %s, %s", first.Job.ID, second.Job.ID)
	}

	if first.Score <= second.Score {
		t.Fatalf("expected descending scores, got %v then %v", first.Score, second.Score)
	}

	for _, rec := range result.Recommendations {
		if rec.Score < MinHeuristicScore {
			t.Fatalf("recommendation %s below threshold: %v", rec.Job.ID, rec.Score)
		}
		if rec.Source != SourceHeuristic {
			t.Fatalf("unexpected source %q", rec.Source)
		}
		if rec.Reasoning == "" {
			t.Fatalf("missing reasoning for %s", rec.Job.ID)
		}
	}

	want := Breakdown{SkillMatch: 100, ExperienceMatch: 50, LocationMatch: 100, KeywordMatch: 100}
	if first.Breakdown != want {
		t.Fatalf("unexpected breakdown %+v", first.Breakdown)
	}
}

func TestHeuristicRankRespectsLimit(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(fixedClock)

	result := h.Rank(backendProfile(), heuristicJobs(), 1)
	if len(result.Recommendations) != 1 || result.Recommendations[0].Job.ID != "best" {
		t.Fatalf("unexpected result for limit 1: %+v", result.Recommendations)
	}

	result = h.Rank(backendProfile(), heuristicJobs(), 0)
	if len(result.Recommendations) != 2 {
		t.Fatalf("zero limit should fall back to the default, got %d", len(result.Recommendations))
	}
}

func TestHeuristicRankNoSuitableJobs(t *testing.T) {
	t.Parallel()

	jobs := heuristicJobs()[1:2]
	result := NewHeuristic(fixedClock).Rank(backendProfile(), jobs, 10)

	if result.Message != MessageNoSuitableJobs {
		t.Fatalf("expected NO_SUITABLE_JOBS, got %s", result.Message)
	}
	if result.Recommendations == nil || len(result.Recommendations) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", result.Recommendations)
	}
}

func TestHeuristicRankTiesKeepInputOrder(t *testing.T) {
	t.Parallel()

	base := heuristicJobs()[2]
	a, b, c := *base, *base, *base
	a.ID, b.ID, c.ID = "a", "b", "c"

	result := NewHeuristic(fixedClock).Rank(backendProfile(), []*board.JobPosting{&a, nil, &b, &c}, 10)

	got := make([]string, 0, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		got = append(got, rec.Job.ID)
	}
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("expected input order for ties, got %v", got)
	}
}

func TestHeuristicRankDeterministic(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(fixedClock)
	first := h.Rank(backendProfile(), heuristicJobs(), 10)
	second := h.Rank(backendProfile(), heuristicJobs(), 10)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated ranking differs:\n%+v\n%+v", first, second)
	}
}

func TestPercent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float64
		want int
	}{
		{in: 0, want: 0},
		{in: 0.5, want: 50},
		{in: 0.704, want: 70},
		{in: 0.996, want: 100},
		{in: 1, want: 100},
	}

	for _, tc := range cases {
		if got := Percent(tc.in); got != tc.want {
			t.Fatalf("Percent(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
