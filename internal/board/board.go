// Package board holds the job-board entities the recommender reads and the
// store ports it reads them through.
package board

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by stores when the requested record does not exist.
var ErrNotFound = errors.New("not found")

type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeRemote     JobType = "remote"
	JobTypeInternship JobType = "internship"
)

type JobStatus string

const (
	JobStatusOpen   JobStatus = "open"
	JobStatusClosed JobStatus = "closed"
	JobStatusPaused JobStatus = "paused"
)

type SeekerProfile struct {
	UserID     string       `json:"userId,omitempty"`
	Skills     []string     `json:"skills,omitempty"`
	Location   string       `json:"location,omitempty"`
	Headline   string       `json:"headline,omitempty"`
	Bio        string       `json:"bio,omitempty"`
	Experience []Experience `json:"experience,omitempty"`
	Education  []Education  `json:"education,omitempty"`
}

type Experience struct {
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
}

type Education struct {
	School string `json:"school,omitempty"`
	Degree string `json:"degree,omitempty"`
	Year   string `json:"year,omitempty"`
}

// IsComplete reports whether the profile carries at least one signal the
// recommender can score against.
func (p *SeekerProfile) IsComplete() bool {
	if p == nil {
		return false
	}

	return len(p.Skills) > 0 ||
		strings.TrimSpace(p.Location) != "" ||
		len(p.Experience) > 0 ||
		len(p.Education) > 0 ||
		strings.TrimSpace(p.Headline) != "" ||
		strings.TrimSpace(p.Bio) != ""
}

type JobPosting struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Type        JobType   `json:"type,omitempty"`
	Skills      []string  `json:"skills,omitempty"`
	Experience  string    `json:"experience,omitempty"`
	Status      JobStatus `json:"status,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	CompanyName string    `json:"companyName,omitempty"`
}

func (j *JobPosting) IsOpen() bool {
	return j.Status == JobStatusOpen
}

type ProfileStore interface {
	// FindSeekerProfile returns ErrNotFound when the user has no seeker profile.
	FindSeekerProfile(ctx context.Context, userID string) (*SeekerProfile, error)
}

type JobStore interface {
	// FindOpenJobsExcluding returns open postings whose id is not in excluded,
	// each with CompanyName resolved.
	FindOpenJobsExcluding(ctx context.Context, excluded []string) ([]*JobPosting, error)
}

type ApplicationStore interface {
	ListAppliedJobIDs(ctx context.Context, userID string) ([]string, error)
}

type WishlistStore interface {
	ListWishlistedJobIDs(ctx context.Context, userID string) ([]string, error)
}
