package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/madalingavanarescu/competeai/internal/model"
)

// SQLiteStore implements Store on an embedded SQLite database. It backs
// single-binary deployments and local development where no Postgres is
// available.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and applies the
// connection pragmas. Use ":memory:" for an ephemeral database.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}

	// The modernc driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent job updates.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: %s", pragma)
		}
	}

	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analysis_jobs (
	id           TEXT PRIMARY KEY,
	owner_id     TEXT NOT NULL,
	website      TEXT NOT NULL,
	company_name TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending',
	error        TEXT,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_owner ON analysis_jobs(owner_id, created_at);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON analysis_jobs(status);

CREATE TABLE IF NOT EXISTS website_contexts (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL UNIQUE REFERENCES analysis_jobs(id),
	source     TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS competitors (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL REFERENCES analysis_jobs(id),
	position   INTEGER NOT NULL,
	name       TEXT NOT NULL,
	website    TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_competitors_job ON competitors(job_id, position);

CREATE TABLE IF NOT EXISTS differentiation_angles (
	id                TEXT PRIMARY KEY,
	job_id            TEXT NOT NULL REFERENCES analysis_jobs(id),
	competitor_id     TEXT NOT NULL REFERENCES competitors(id),
	title             TEXT NOT NULL,
	description       TEXT NOT NULL,
	opportunity_level TEXT NOT NULL,
	created_at        TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_angles_job ON differentiation_angles(job_id);

CREATE TABLE IF NOT EXISTS analysis_content (
	id           TEXT PRIMARY KEY,
	job_id       TEXT NOT NULL REFERENCES analysis_jobs(id),
	content_type TEXT NOT NULL,
	content      TEXT NOT NULL,
	generated_at TIMESTAMP NOT NULL,
	UNIQUE(job_id, content_type)
);

CREATE INDEX IF NOT EXISTS idx_content_job ON analysis_content(job_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return eris.Wrap(s.db.Close(), "sqlite: close")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) CreateJob(ctx context.Context, ownerID, website, companyName string) (*model.AnalysisJob, error) {
	job := &model.AnalysisJob{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Website:     website,
		CompanyName: companyName,
		Status:      model.JobStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	job.UpdatedAt = job.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_jobs (id, owner_id, website, company_name, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.OwnerID, job.Website, job.CompanyName, string(job.Status), job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert job")
	}
	return job, nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.AnalysisJob, error) {
	var j model.AnalysisJob
	var status string
	var errMsg sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, website, company_name, status, error, created_at, updated_at FROM analysis_jobs WHERE id = ?`,
		jobID,
	).Scan(&j.ID, &j.OwnerID, &j.Website, &j.CompanyName, &status, &errMsg, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: job %s", jobID)
		}
		return nil, eris.Wrapf(err, "sqlite: get job %s", jobID)
	}

	j.Status = model.JobStatus(status)
	j.Error = errMsg.String
	return &j, nil
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.AnalysisJob, error) {
	query := `SELECT id, owner_id, website, company_name, status, error, created_at, updated_at FROM analysis_jobs WHERE 1=1`
	var args []any

	if filter.OwnerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, filter.OwnerID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + strconv.Itoa(filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.AnalysisJob
	for rows.Next() {
		var j model.AnalysisJob
		var status string
		var errMsg sql.NullString
		if err := rows.Scan(&j.ID, &j.OwnerID, &j.Website, &j.CompanyName, &status, &errMsg, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job")
		}
		j.Status = model.JobStatus(status)
		j.Error = errMsg.String
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs")
}

func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error {
	var errVal any
	if errMsg != "" {
		errVal = errMsg
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE analysis_jobs SET status = ?, error = ?, updated_at = ? WHERE id = ? AND status NOT IN ('completed', 'failed')`,
		string(status), errVal, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job status %s", jobID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		if _, getErr := s.GetJob(ctx, jobID); getErr != nil {
			return getErr
		}
		return eris.Wrapf(ErrTerminalStatus, "sqlite: job %s", jobID)
	}
	return nil
}

func (s *SQLiteStore) CountJobsByOwnerSince(ctx context.Context, ownerID string, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM analysis_jobs WHERE owner_id = ? AND created_at >= ?`,
		ownerID, since,
	).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count jobs by owner")
}

func (s *SQLiteStore) SaveWebsiteContext(ctx context.Context, jobID string, wc *model.WebsiteContext) error {
	data, err := json.Marshal(wc)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal website context")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO website_contexts (id, job_id, source, data, created_at) VALUES (?, ?, ?, ?, ?) ON CONFLICT (job_id) DO NOTHING`,
		uuid.New().String(), jobID, string(wc.Source), string(data), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save website context %s", jobID)
}

func (s *SQLiteStore) GetWebsiteContext(ctx context.Context, jobID string) (*model.WebsiteContext, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM website_contexts WHERE job_id = ?`,
		jobID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get website context %s", jobID)
	}

	var wc model.WebsiteContext
	if err := json.Unmarshal([]byte(data), &wc); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal website context")
	}
	return &wc, nil
}

func (s *SQLiteStore) InsertCompetitor(ctx context.Context, comp *model.Competitor) error {
	if comp.ID == "" {
		comp.ID = uuid.New().String()
	}
	if comp.CreatedAt.IsZero() {
		comp.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(comp)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal competitor")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO competitors (id, job_id, position, name, website, data, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		comp.ID, comp.JobID, comp.Position, comp.Name, comp.Website, string(data), comp.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert competitor %s", comp.Name)
}

func (s *SQLiteStore) ListCompetitors(ctx context.Context, jobID string) ([]model.Competitor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, position, data, created_at FROM competitors WHERE job_id = ? ORDER BY position`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list competitors %s", jobID)
	}
	defer rows.Close()

	var comps []model.Competitor
	for rows.Next() {
		var id, jid, data string
		var position int
		var createdAt time.Time
		if err := rows.Scan(&id, &jid, &position, &data, &createdAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan competitor")
		}
		var c model.Competitor
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal competitor")
		}
		c.ID, c.JobID, c.Position, c.CreatedAt = id, jid, position, createdAt
		comps = append(comps, c)
	}
	return comps, eris.Wrap(rows.Err(), "sqlite: list competitors")
}

func (s *SQLiteStore) InsertAngles(ctx context.Context, angles []model.DifferentiationAngle) error {
	if len(angles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin angles")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for i := range angles {
		a := &angles[i]
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO differentiation_angles (id, job_id, competitor_id, title, description, opportunity_level, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.JobID, a.CompetitorID, a.Title, a.Description, string(a.OpportunityLevel), a.CreatedAt,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert angle")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit angles")
}

func (s *SQLiteStore) ListAngles(ctx context.Context, jobID string) ([]model.DifferentiationAngle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, competitor_id, title, description, opportunity_level, created_at
		 FROM differentiation_angles WHERE job_id = ?
		 ORDER BY CASE opportunity_level WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list angles %s", jobID)
	}
	defer rows.Close()

	var angles []model.DifferentiationAngle
	for rows.Next() {
		var a model.DifferentiationAngle
		var level string
		if err := rows.Scan(&a.ID, &a.JobID, &a.CompetitorID, &a.Title, &a.Description, &level, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan angle")
		}
		a.OpportunityLevel = model.Level(level)
		angles = append(angles, a)
	}
	return angles, eris.Wrap(rows.Err(), "sqlite: list angles")
}

func (s *SQLiteStore) InsertContentBatch(ctx context.Context, contents []model.AnalysisContent) error {
	if len(contents) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin content batch")
	}
	defer tx.Rollback()

	for i := range contents {
		c := &contents[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO analysis_content (id, job_id, content_type, content, generated_at) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.JobID, string(c.ContentType), c.Content, c.GeneratedAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert content %s", c.ContentType)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit content batch")
}

func (s *SQLiteStore) ListContent(ctx context.Context, jobID string, contentType model.ContentType) ([]model.AnalysisContent, error) {
	query := `SELECT id, job_id, content_type, content, generated_at FROM analysis_content WHERE job_id = ?`
	args := []any{jobID}
	if contentType != "" {
		query += ` AND content_type = ?`
		args = append(args, string(contentType))
	}
	query += ` ORDER BY content_type`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list content %s", jobID)
	}
	defer rows.Close()

	var contents []model.AnalysisContent
	for rows.Next() {
		var c model.AnalysisContent
		var ct string
		if err := rows.Scan(&c.ID, &c.JobID, &ct, &c.Content, &c.GeneratedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan content")
		}
		c.ContentType = model.ContentType(ct)
		contents = append(contents, c)
	}
	return contents, eris.Wrap(rows.Err(), "sqlite: list content")
}

func (s *SQLiteStore) GetJobCounts(ctx context.Context, jobID string) (*JobCounts, error) {
	var counts JobCounts
	err := s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT count(*) FROM competitors WHERE job_id = ?1),
			(SELECT count(*) FROM competitors WHERE job_id = ?1 AND json_extract(data, '$.comparative_insights') IS NOT NULL),
			(SELECT count(*) FROM differentiation_angles WHERE job_id = ?1),
			(SELECT count(*) FROM analysis_content WHERE job_id = ?1)`,
		jobID,
	).Scan(&counts.Competitors, &counts.WithInsights, &counts.Angles, &counts.Contents)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: job counts %s", jobID)
	}
	return &counts, nil
}
