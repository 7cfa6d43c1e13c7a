package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/madalingavanarescu/competeai/internal/db"
	"github.com/madalingavanarescu/competeai/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// terminalStatuses guards status updates: a job in one of these states is
// never transitioned again.
const terminalStatuses = `('completed', 'failed')`

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_job":        `INSERT INTO analysis_jobs (id, owner_id, website, company_name, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"get_job":           `SELECT id, owner_id, website, company_name, status, error, created_at, updated_at FROM analysis_jobs WHERE id = $1`,
	"update_job_status": `UPDATE analysis_jobs SET status = $1, error = $2, updated_at = $3 WHERE id = $4 AND status NOT IN ` + terminalStatuses,
	"insert_competitor": `INSERT INTO competitors (id, job_id, position, name, website, data, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"list_competitors":  `SELECT id, job_id, position, data, created_at FROM competitors WHERE job_id = $1 ORDER BY position`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used in tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analysis_jobs (
	id           TEXT PRIMARY KEY,
	owner_id     TEXT NOT NULL,
	website      TEXT NOT NULL,
	company_name TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending',
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_jobs_owner ON analysis_jobs(owner_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON analysis_jobs(status);

CREATE TABLE IF NOT EXISTS website_contexts (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL UNIQUE REFERENCES analysis_jobs(id),
	source     TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS competitors (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL REFERENCES analysis_jobs(id),
	position   INTEGER NOT NULL,
	name       TEXT NOT NULL,
	website    TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_competitors_job ON competitors(job_id, position);

CREATE TABLE IF NOT EXISTS differentiation_angles (
	id                TEXT PRIMARY KEY,
	job_id            TEXT NOT NULL REFERENCES analysis_jobs(id),
	competitor_id     TEXT NOT NULL REFERENCES competitors(id),
	title             TEXT NOT NULL,
	description       TEXT NOT NULL,
	opportunity_level TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_angles_job ON differentiation_angles(job_id);

CREATE TABLE IF NOT EXISTS analysis_content (
	id           TEXT PRIMARY KEY,
	job_id       TEXT NOT NULL REFERENCES analysis_jobs(id),
	content_type TEXT NOT NULL,
	content      TEXT NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL,
	UNIQUE(job_id, content_type)
);

CREATE INDEX IF NOT EXISTS idx_content_job ON analysis_content(job_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) CreateJob(ctx context.Context, ownerID, website, companyName string) (*model.AnalysisJob, error) {
	job := &model.AnalysisJob{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Website:     website,
		CompanyName: companyName,
		Status:      model.JobStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	job.UpdatedAt = job.CreatedAt

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_jobs (id, owner_id, website, company_name, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.ID, job.OwnerID, job.Website, job.CompanyName, string(job.Status), job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert job")
	}
	return job, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.AnalysisJob, error) {
	var j model.AnalysisJob
	var status string
	var errMsg *string

	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, website, company_name, status, error, created_at, updated_at FROM analysis_jobs WHERE id = $1`,
		jobID,
	).Scan(&j.ID, &j.OwnerID, &j.Website, &j.CompanyName, &status, &errMsg, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: job %s", jobID)
		}
		return nil, eris.Wrapf(err, "postgres: get job %s", jobID)
	}

	j.Status = model.JobStatus(status)
	if errMsg != nil {
		j.Error = *errMsg
	}
	return &j, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.AnalysisJob, error) {
	query := `SELECT id, owner_id, website, company_name, status, error, created_at, updated_at FROM analysis_jobs WHERE 1=1`
	var args []any

	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		query += ` AND owner_id = $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.AnalysisJob
	for rows.Next() {
		var j model.AnalysisJob
		var status string
		var errMsg *string
		if err := rows.Scan(&j.ID, &j.OwnerID, &j.Website, &j.CompanyName, &status, &errMsg, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		j.Status = model.JobStatus(status)
		if errMsg != nil {
			j.Error = *errMsg
		}
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs")
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error {
	var errVal *string
	if errMsg != "" {
		errVal = &errMsg
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE analysis_jobs SET status = $1, error = $2, updated_at = $3 WHERE id = $4 AND status NOT IN `+terminalStatuses,
		string(status), errVal, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job status %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		// Either the job does not exist or it is already terminal.
		if _, getErr := s.GetJob(ctx, jobID); getErr != nil {
			return getErr
		}
		return eris.Wrapf(ErrTerminalStatus, "postgres: job %s", jobID)
	}
	return nil
}

func (s *PostgresStore) CountJobsByOwnerSince(ctx context.Context, ownerID string, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM analysis_jobs WHERE owner_id = $1 AND created_at >= $2`,
		ownerID, since,
	).Scan(&n)
	return n, eris.Wrap(err, "postgres: count jobs by owner")
}

func (s *PostgresStore) SaveWebsiteContext(ctx context.Context, jobID string, wc *model.WebsiteContext) error {
	data, err := json.Marshal(wc)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal website context")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO website_contexts (id, job_id, source, data, created_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (job_id) DO NOTHING`,
		uuid.New().String(), jobID, string(wc.Source), data, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save website context %s", jobID)
}

func (s *PostgresStore) GetWebsiteContext(ctx context.Context, jobID string) (*model.WebsiteContext, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM website_contexts WHERE job_id = $1`,
		jobID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get website context %s", jobID)
	}

	var wc model.WebsiteContext
	if err := json.Unmarshal(data, &wc); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal website context")
	}
	return &wc, nil
}

func (s *PostgresStore) InsertCompetitor(ctx context.Context, comp *model.Competitor) error {
	if comp.ID == "" {
		comp.ID = uuid.New().String()
	}
	if comp.CreatedAt.IsZero() {
		comp.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(comp)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal competitor")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO competitors (id, job_id, position, name, website, data, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		comp.ID, comp.JobID, comp.Position, comp.Name, comp.Website, data, comp.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert competitor %s", comp.Name)
}

func (s *PostgresStore) ListCompetitors(ctx context.Context, jobID string) ([]model.Competitor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, position, data, created_at FROM competitors WHERE job_id = $1 ORDER BY position`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list competitors %s", jobID)
	}
	defer rows.Close()

	var comps []model.Competitor
	for rows.Next() {
		var id, jid string
		var position int
		var data []byte
		var createdAt time.Time
		if err := rows.Scan(&id, &jid, &position, &data, &createdAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan competitor")
		}
		var c model.Competitor
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal competitor")
		}
		c.ID, c.JobID, c.Position, c.CreatedAt = id, jid, position, createdAt
		comps = append(comps, c)
	}
	return comps, eris.Wrap(rows.Err(), "postgres: list competitors")
}

func (s *PostgresStore) InsertAngles(ctx context.Context, angles []model.DifferentiationAngle) error {
	if len(angles) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(angles))
	for i := range angles {
		a := &angles[i]
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		rows = append(rows, []any{a.ID, a.JobID, a.CompetitorID, a.Title, a.Description, string(a.OpportunityLevel), a.CreatedAt})
	}

	_, err := db.CopyFrom(ctx, s.pool, "differentiation_angles",
		[]string{"id", "job_id", "competitor_id", "title", "description", "opportunity_level", "created_at"},
		rows,
	)
	return eris.Wrap(err, "postgres: insert angles")
}

func (s *PostgresStore) ListAngles(ctx context.Context, jobID string) ([]model.DifferentiationAngle, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, competitor_id, title, description, opportunity_level, created_at
		 FROM differentiation_angles WHERE job_id = $1
		 ORDER BY CASE opportunity_level WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list angles %s", jobID)
	}
	defer rows.Close()

	var angles []model.DifferentiationAngle
	for rows.Next() {
		var a model.DifferentiationAngle
		var level string
		if err := rows.Scan(&a.ID, &a.JobID, &a.CompetitorID, &a.Title, &a.Description, &level, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan angle")
		}
		a.OpportunityLevel = model.Level(level)
		angles = append(angles, a)
	}
	return angles, eris.Wrap(rows.Err(), "postgres: list angles")
}

func (s *PostgresStore) InsertContentBatch(ctx context.Context, contents []model.AnalysisContent) error {
	if len(contents) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin content batch")
	}
	defer tx.Rollback(ctx)

	for i := range contents {
		c := &contents[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO analysis_content (id, job_id, content_type, content, generated_at) VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.JobID, string(c.ContentType), c.Content, c.GeneratedAt,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert content %s", c.ContentType)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit content batch")
}

func (s *PostgresStore) ListContent(ctx context.Context, jobID string, contentType model.ContentType) ([]model.AnalysisContent, error) {
	query := `SELECT id, job_id, content_type, content, generated_at FROM analysis_content WHERE job_id = $1`
	args := []any{jobID}
	if contentType != "" {
		query += ` AND content_type = $2`
		args = append(args, string(contentType))
	}
	query += ` ORDER BY content_type`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list content %s", jobID)
	}
	defer rows.Close()

	var contents []model.AnalysisContent
	for rows.Next() {
		var c model.AnalysisContent
		var ct string
		if err := rows.Scan(&c.ID, &c.JobID, &ct, &c.Content, &c.GeneratedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan content")
		}
		c.ContentType = model.ContentType(ct)
		contents = append(contents, c)
	}
	return contents, eris.Wrap(rows.Err(), "postgres: list content")
}

func (s *PostgresStore) GetJobCounts(ctx context.Context, jobID string) (*JobCounts, error) {
	var counts JobCounts
	err := s.pool.QueryRow(ctx,
		`SELECT
			(SELECT count(*) FROM competitors WHERE job_id = $1),
			(SELECT count(*) FROM competitors WHERE job_id = $1 AND data ? 'comparative_insights'),
			(SELECT count(*) FROM differentiation_angles WHERE job_id = $1),
			(SELECT count(*) FROM analysis_content WHERE job_id = $1)`,
		jobID,
	).Scan(&counts.Competitors, &counts.WithInsights, &counts.Angles, &counts.Contents)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: job counts %s", jobID)
	}
	return &counts, nil
}
