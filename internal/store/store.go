package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jimezsa/jobcrawl/internal/models"
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates any missing tables. It is safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, email, hashPass, resume string) (User, error) {
	user := User{Email: email, HashPass: hashPass, Resume: resume}
	err := s.db.QueryRowContext(ctx, `
INSERT INTO users (email, hash_pass, resume)
VALUES ($1, $2, $3)
RETURNING id`, email, hashPass, resume).Scan(&user.ID)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id int) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
SELECT id, email, hash_pass, resume FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Email, &user.HashPass, &user.Resume)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Store) CreateTask(ctx context.Context, userID *int, taskType string) (Task, error) {
	task := Task{UserID: userID, TaskType: taskType}
	err := s.db.QueryRowContext(ctx, `
INSERT INTO tasks (user_id, task_type)
VALUES ($1, $2)
RETURNING id, created_at`, nullInt(userID), taskType).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (s *Store) CreateScrape(ctx context.Context, taskID *int) (Scrape, error) {
	scrape := Scrape{TaskID: taskID}
	err := s.db.QueryRowContext(ctx, `
INSERT INTO scrapes (task_id)
VALUES ($1)
RETURNING id, created_at`, nullInt(taskID)).Scan(&scrape.ID, &scrape.CreatedAt)
	if err != nil {
		return Scrape{}, fmt.Errorf("create scrape: %w", err)
	}
	return scrape, nil
}

// SaveJobs upserts records on (site, job_site_id) and returns their row ids
// in input order. Existing rows keep their viewed/applied flags.
func (s *Store) SaveJobs(ctx context.Context, scrapeID int, records []models.JobRecord, provider string, link URLFunc) ([]int, error) {
	if len(records) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO jobs (scrape_id, job_site_id, title, description, location, salary, remote, match, url, apply_url, site, provider)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (site, job_site_id) DO UPDATE SET
    scrape_id = EXCLUDED.scrape_id,
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    location = EXCLUDED.location,
    remote = EXCLUDED.remote,
    url = EXCLUDED.url,
    apply_url = EXCLUDED.apply_url,
    provider = EXCLUDED.provider
RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("prepare job upsert: %w", err)
	}
	defer stmt.Close()

	ids := make([]int, 0, len(records))
	for _, record := range records {
		job := JobFromRecord(record, provider, link)
		var id int
		if err := stmt.QueryRowContext(ctx,
			scrapeID,
			job.JobSiteID,
			job.Title,
			job.Description,
			job.Location,
			job.Salary,
			job.Remote,
			job.Match,
			job.URL,
			job.ApplyURL,
			job.Site,
			job.Provider,
		).Scan(&id); err != nil {
			return nil, fmt.Errorf("save job %s: %w", job.JobSiteID, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit jobs: %w", err)
	}
	return ids, nil
}

func (s *Store) ListJobs(ctx context.Context, limit, offset int) ([]Job, error) {
	limit = clampLimit(limit, 20, 200)
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, scrape_id, job_site_id, title, description, location, salary,
       COALESCE(remote, FALSE), match, url, apply_url, site, provider, viewed, applied
FROM jobs
ORDER BY applied ASC, id DESC
LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var (
			j        Job
			scrapeID sql.NullInt64
			location sql.NullString
			salary   sql.NullString
		)
		if err := rows.Scan(
			&j.ID,
			&scrapeID,
			&j.JobSiteID,
			&j.Title,
			&j.Description,
			&location,
			&salary,
			&j.Remote,
			&j.Match,
			&j.URL,
			&j.ApplyURL,
			&j.Site,
			&j.Provider,
			&j.Viewed,
			&j.Applied,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if scrapeID.Valid {
			id := int(scrapeID.Int64)
			j.ScrapeID = &id
		}
		if location.Valid {
			j.Location = &location.String
		}
		if salary.Valid {
			j.Salary = &salary.String
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// LinkUserJob records a user's match score for a job.
func (s *Store) LinkUserJob(ctx context.Context, userID, jobID int, matchPercent float64) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO user_job_links (job_id, user_id, match_percent)
VALUES ($1, $2, $3)
ON CONFLICT (job_id, user_id) DO UPDATE SET match_percent = EXCLUDED.match_percent`,
		jobID, userID, matchPercent)
	if err != nil {
		return fmt.Errorf("link user %d to job %d: %w", userID, jobID, err)
	}
	return nil
}

func (s *Store) MarkVisited(ctx context.Context, userID, jobID int) error {
	return s.setLinkFlag(ctx, "visited", userID, jobID)
}

func (s *Store) MarkApplied(ctx context.Context, userID, jobID int) error {
	return s.setLinkFlag(ctx, "applied", userID, jobID)
}

func (s *Store) setLinkFlag(ctx context.Context, column string, userID, jobID int) error {
	var query string
	switch column {
	case "visited":
		query = `UPDATE user_job_links SET visited = TRUE WHERE job_id = $1 AND user_id = $2`
	case "applied":
		query = `UPDATE user_job_links SET applied = TRUE, visited = TRUE WHERE job_id = $1 AND user_id = $2`
	default:
		return fmt.Errorf("unknown link flag %q", column)
	}

	res, err := s.db.ExecContext(ctx, query, jobID, userID)
	if err != nil {
		return fmt.Errorf("mark %s: %w", column, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark %s: %w", column, err)
	}
	if affected == 0 {
		return fmt.Errorf("link user %d job %d: %w", userID, jobID, ErrNotFound)
	}
	return nil
}

func clampLimit(limit int, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}
