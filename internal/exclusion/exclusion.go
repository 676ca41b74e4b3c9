// Package exclusion builds the set of postings a seeker has already acted on
// and therefore must not be recommended again.
package exclusion

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/board"
)

// Source lists job ids that should be excluded for a user.
type Source interface {
	Name() string
	JobIDs(ctx context.Context, userID string) ([]string, error)
}

type appliedSource struct {
	store board.ApplicationStore
}

// NewApplied excludes postings the user has applied to.
func NewApplied(store board.ApplicationStore) Source {
	return &appliedSource{store: store}
}

func (s *appliedSource) Name() string { return "applied" }

func (s *appliedSource) JobIDs(ctx context.Context, userID string) ([]string, error) {
	if s.store == nil {
		return nil, fmt.Errorf("application store is required")
	}
	return s.store.ListAppliedJobIDs(ctx, userID)
}

type wishlistedSource struct {
	store board.WishlistStore
}

// NewWishlisted excludes postings the user has saved to the wishlist.
func NewWishlisted(store board.WishlistStore) Source {
	return &wishlistedSource{store: store}
}

func (s *wishlistedSource) Name() string { return "wishlisted" }

func (s *wishlistedSource) JobIDs(ctx context.Context, userID string) ([]string, error) {
	if s.store == nil {
		return nil, fmt.Errorf("wishlist store is required")
	}
	return s.store.ListWishlistedJobIDs(ctx, userID)
}

// Set is a set of job ids.
type Set map[string]struct{}

// Collect unions the ids of every source. It fails on the first source error.
func Collect(ctx context.Context, logger *zap.Logger, userID string, sources ...Source) (Set, error) {
	set := make(Set)
	for _, source := range sources {
		if source == nil {
			continue
		}

		ids, err := source.JobIDs(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source.Name(), err)
		}

		added := set.Add(ids...)
		if logger != nil {
			logger.Debug("exclusion step",
				zap.String("name", source.Name()),
				zap.Int("found", len(ids)),
				zap.Int("added", added),
				zap.Int("total", len(set)),
			)
		}
	}
	return set, nil
}

// Add inserts non-blank ids and reports how many were new.
func (s Set) Add(ids ...string) int {
	added := 0
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := s[id]; ok {
			continue
		}
		s[id] = struct{}{}
		added++
	}
	return added
}

func (s Set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the ids sorted.
func (s Set) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Filter returns the jobs not in the set, keeping their order, and the ids of
// the jobs it dropped.
func (s Set) Filter(jobs []*board.JobPosting) ([]*board.JobPosting, []string) {
	kept := make([]*board.JobPosting, 0, len(jobs))
	var dropped []string
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if s.Contains(job.ID) {
			dropped = append(dropped, job.ID)
			continue
		}
		kept = append(kept, job)
	}
	return kept, dropped
}
