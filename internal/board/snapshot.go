package board

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// Snapshot is a self-contained copy of the data the recommender reads. It is
// loaded from a JSON file by the recommend command and built inline by tests.
type Snapshot struct {
	Profiles     map[string]*SeekerProfile `json:"profiles"`
	Jobs         []*JobPosting             `json:"jobs"`
	Applications map[string][]string       `json:"applications,omitempty"`
	Wishlists    map[string][]string       `json:"wishlists,omitempty"`
}

// LoadSnapshot reads a snapshot from a JSON file.
func LoadSnapshot(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snapshot Snapshot
	if err := json.NewDecoder(file).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %q: %w", path, err)
	}

	return &snapshot, nil
}

// MemoryStore serves all store ports from a Snapshot.
type MemoryStore struct {
	snapshot *Snapshot
}

func NewMemoryStore(snapshot *Snapshot) *MemoryStore {
	if snapshot == nil {
		snapshot = &Snapshot{}
	}
	return &MemoryStore{snapshot: snapshot}
}

func (s *MemoryStore) FindSeekerProfile(_ context.Context, userID string) (*SeekerProfile, error) {
	profile, ok := s.snapshot.Profiles[userID]
	if !ok || profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

func (s *MemoryStore) FindOpenJobsExcluding(_ context.Context, excluded []string) ([]*JobPosting, error) {
	jobs := make([]*JobPosting, 0, len(s.snapshot.Jobs))
	for _, job := range s.snapshot.Jobs {
		if job == nil || !job.IsOpen() {
			continue
		}
		if slices.Contains(excluded, job.ID) {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *MemoryStore) ListAppliedJobIDs(_ context.Context, userID string) ([]string, error) {
	return slices.Clone(s.snapshot.Applications[userID]), nil
}

func (s *MemoryStore) ListWishlistedJobIDs(_ context.Context, userID string) ([]string, error) {
	return slices.Clone(s.snapshot.Wishlists[userID]), nil
}
