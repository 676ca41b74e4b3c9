// Package postgres serves the board store ports from PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "embed"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spigell/jobmatch/internal/board"
)

//go:embed schema.sql
var schema string

const defaultPingTimeout = 5 * time.Second

// Connect opens a pool for url and pings it. Without a deadline on ctx the
// ping is bounded by five seconds.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, defaultPingTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements board.ProfileStore, board.JobStore,
// board.ApplicationStore and board.WishlistStore.
type Store struct {
	db DB
}

func NewStore(db DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables the store reads when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const profileQuery = `
SELECT user_id, skills, COALESCE(location, ''), COALESCE(headline, ''), COALESCE(bio, ''), experience, education
FROM seeker_profiles
WHERE user_id = $1`

func (s *Store) FindSeekerProfile(ctx context.Context, userID string) (*board.SeekerProfile, error) {
	var p board.SeekerProfile
	err := s.db.QueryRow(ctx, profileQuery, userID).Scan(
		&p.UserID, &p.Skills, &p.Location, &p.Headline, &p.Bio, &p.Experience, &p.Education,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, board.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query seeker profile: %w", err)
	}
	return &p, nil
}

const openJobsQuery = `
SELECT j.id, j.title, COALESCE(j.description, ''), COALESCE(j.location, ''), COALESCE(j.type, ''),
       j.skills, COALESCE(j.experience, ''), j.status, j.created_at, COALESCE(c.name, '')
FROM jobs j
LEFT JOIN companies c ON c.id = j.company_id
WHERE j.status = 'open' AND NOT (j.id = ANY($1::text[]))
ORDER BY j.created_at DESC`

func (s *Store) FindOpenJobsExcluding(ctx context.Context, excluded []string) ([]*board.JobPosting, error) {
	// A nil slice is sent as NULL, which would filter out every row.
	if excluded == nil {
		excluded = []string{}
	}

	rows, err := s.db.Query(ctx, openJobsQuery, excluded)
	if err != nil {
		return nil, fmt.Errorf("query open jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*board.JobPosting, 0)
	for rows.Next() {
		var (
			j       board.JobPosting
			jobType string
			status  string
		)
		if err := rows.Scan(&j.ID, &j.Title, &j.Description, &j.Location, &jobType,
			&j.Skills, &j.Experience, &status, &j.CreatedAt, &j.CompanyName); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.Type = board.JobType(jobType)
		j.Status = board.JobStatus(status)
		jobs = append(jobs, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}

	return jobs, nil
}

func (s *Store) ListAppliedJobIDs(ctx context.Context, userID string) ([]string, error) {
	return s.listIDs(ctx, `SELECT job_id FROM applications WHERE user_id = $1`, userID)
}

func (s *Store) ListWishlistedJobIDs(ctx context.Context, userID string) ([]string, error) {
	return s.listIDs(ctx, `SELECT job_id FROM wishlists WHERE user_id = $1`, userID)
}

func (s *Store) listIDs(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query job ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect job ids: %w", err)
	}
	return ids, nil
}
