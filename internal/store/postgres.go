package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/hiredeck/match-engine/internal/db"
	"github.com/hiredeck/match-engine/internal/model"
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

// preparedStatements lists queries to prepare on each new connection.
// These are the batch scoring hot path: every pair loads both profiles
// and both skill lists, then upserts one result row.
var preparedStatements = map[string]string{
	"get_candidate":       `SELECT id, full_name, email, city, total_experience_years, education_level, created_at, updated_at FROM candidates WHERE id = $1`,
	"get_job":             `SELECT id, title, status, location, location_type, minimum_experience, preferred_experience, required_education, weights, ml_weight, template_id, created_at, updated_at FROM jobs WHERE id = $1`,
	"candidate_skills":    `SELECT candidate_id, skill_id, proficiency, verified FROM candidate_skills WHERE candidate_id = $1 ORDER BY skill_id`,
	"job_required_skills": `SELECT job_id, skill_id, required, weight, minimum_proficiency FROM job_required_skills WHERE job_id = $1 ORDER BY skill_id`,
	"list_feedback":       `SELECT id, match_result_id, feedback_type, feedback_by, notes, created_at FROM match_feedback WHERE match_result_id = $1 ORDER BY created_at`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
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

	// Prepare frequently-used statements on each new connection.
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

const postgresMigration = `
CREATE TABLE IF NOT EXISTS candidates (
	id                     TEXT PRIMARY KEY,
	full_name              TEXT NOT NULL,
	email                  TEXT NOT NULL DEFAULT '',
	city                   TEXT NOT NULL DEFAULT '',
	total_experience_years DOUBLE PRECISION NOT NULL DEFAULT 0,
	education_level        TEXT NOT NULL DEFAULT '',
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS jobs (
	id                   TEXT PRIMARY KEY,
	title                TEXT NOT NULL,
	status               TEXT NOT NULL DEFAULT 'open',
	location             TEXT NOT NULL DEFAULT '',
	location_type        TEXT NOT NULL DEFAULT 'onsite',
	minimum_experience   DOUBLE PRECISION NOT NULL DEFAULT 0,
	preferred_experience DOUBLE PRECISION NOT NULL DEFAULT 0,
	required_education   TEXT NOT NULL DEFAULT '',
	weights              JSONB,
	ml_weight            DOUBLE PRECISION NOT NULL DEFAULT 0,
	template_id          TEXT,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS skills (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS candidate_skills (
	candidate_id TEXT NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
	skill_id     TEXT NOT NULL REFERENCES skills(id),
	proficiency  TEXT NOT NULL,
	verified     BOOLEAN NOT NULL DEFAULT false,
	PRIMARY KEY (candidate_id, skill_id)
);

CREATE TABLE IF NOT EXISTS job_required_skills (
	job_id              TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	skill_id            TEXT NOT NULL REFERENCES skills(id),
	required            BOOLEAN NOT NULL DEFAULT false,
	weight              DOUBLE PRECISION NOT NULL DEFAULT 1,
	minimum_proficiency TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (job_id, skill_id)
);

CREATE TABLE IF NOT EXISTS rule_templates (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scoring_rules (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	job_id          TEXT REFERENCES jobs(id) ON DELETE CASCADE,
	template_id     TEXT REFERENCES rule_templates(id) ON DELETE CASCADE,
	active          BOOLEAN NOT NULL DEFAULT true,
	priority        INTEGER NOT NULL DEFAULT 100,
	execution_order INTEGER NOT NULL DEFAULT 0,
	stop_on_match   BOOLEAN NOT NULL DEFAULT false,
	conditions      JSONB NOT NULL,
	actions         JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS match_results (
	id                  TEXT PRIMARY KEY,
	candidate_id        TEXT NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
	job_id              TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	overall_score       DOUBLE PRECISION NOT NULL DEFAULT 0,
	blended_score       DOUBLE PRECISION NOT NULL DEFAULT 0,
	skill_score         DOUBLE PRECISION NOT NULL DEFAULT 0,
	experience_score    DOUBLE PRECISION NOT NULL DEFAULT 0,
	education_score     DOUBLE PRECISION NOT NULL DEFAULT 0,
	location_score      DOUBLE PRECISION NOT NULL DEFAULT 0,
	semantic_score      DOUBLE PRECISION,
	semantic_used       BOOLEAN NOT NULL DEFAULT false,
	feedback_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1,
	rules_applied       JSONB,
	pre_filter_passed   BOOLEAN NOT NULL DEFAULT true,
	disqualify_reason   TEXT NOT NULL DEFAULT '',
	rank                INTEGER NOT NULL DEFAULT 0,
	review_status       TEXT NOT NULL DEFAULT 'pending',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (candidate_id, job_id)
);

CREATE TABLE IF NOT EXISTS match_feedback (
	id              TEXT PRIMARY KEY,
	match_result_id TEXT NOT NULL REFERENCES match_results(id) ON DELETE CASCADE,
	feedback_type   TEXT NOT NULL,
	feedback_by     TEXT NOT NULL,
	notes           TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (match_result_id, feedback_by)
);

CREATE INDEX IF NOT EXISTS idx_candidates_city ON candidates(city);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_candidate_skills_candidate ON candidate_skills(candidate_id);
CREATE INDEX IF NOT EXISTS idx_job_required_skills_job ON job_required_skills(job_id);
CREATE INDEX IF NOT EXISTS idx_scoring_rules_job ON scoring_rules(job_id);
CREATE INDEX IF NOT EXISTS idx_scoring_rules_template ON scoring_rules(template_id);
CREATE INDEX IF NOT EXISTS idx_match_results_job ON match_results(job_id);
CREATE INDEX IF NOT EXISTS idx_match_results_candidate ON match_results(candidate_id);
CREATE INDEX IF NOT EXISTS idx_match_results_job_score ON match_results(job_id, overall_score DESC);
CREATE INDEX IF NOT EXISTS idx_match_feedback_result ON match_feedback(match_result_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

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

// Candidates

func (s *PostgresStore) UpsertCandidate(ctx context.Context, c *model.CandidateProfile) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO candidates (id, full_name, email, city, total_experience_years, education_level, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   full_name = $2, email = $3, city = $4, total_experience_years = $5, education_level = $6, updated_at = $8`,
		c.ID, c.FullName, c.Email, c.City, c.TotalExperienceYears, string(c.EducationLevel), c.CreatedAt, c.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert candidate %s", c.ID)
}

func (s *PostgresStore) GetCandidate(ctx context.Context, id string) (*model.CandidateProfile, error) {
	var c model.CandidateProfile
	var education string

	err := s.pool.QueryRow(ctx,
		`SELECT id, full_name, email, city, total_experience_years, education_level, created_at, updated_at FROM candidates WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.FullName, &c.Email, &c.City, &c.TotalExperienceYears, &education, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "candidate %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get candidate %s", id)
	}
	c.EducationLevel = model.EducationLevel(education)
	return &c, nil
}

func (s *PostgresStore) ListCandidates(ctx context.Context, filter CandidateFilter) ([]model.CandidateProfile, error) {
	query := `SELECT id, full_name, email, city, total_experience_years, education_level, created_at, updated_at FROM candidates WHERE true`
	args := []any{}
	argIdx := 1

	if filter.City != "" {
		query += fmt.Sprintf(` AND city = $%d`, argIdx)
		args = append(args, filter.City)
		argIdx++
	}
	query += ` ORDER BY created_at`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list candidates")
	}
	defer rows.Close()

	var out []model.CandidateProfile
	for rows.Next() {
		var c model.CandidateProfile
		var education string
		if err := rows.Scan(&c.ID, &c.FullName, &c.Email, &c.City, &c.TotalExperienceYears, &education, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan candidate")
		}
		c.EducationLevel = model.EducationLevel(education)
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list candidates iterate")
}

// ImportCandidates bulk-loads candidate profiles through the COPY-backed
// upsert path. Rows without ids get fresh ones.
func (s *PostgresStore) ImportCandidates(ctx context.Context, candidates []model.CandidateProfile) (int64, error) {
	if len(candidates) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	rows := make([][]any, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		rows = append(rows, []any{
			c.ID, c.FullName, c.Email, c.City, c.TotalExperienceYears, string(c.EducationLevel), c.CreatedAt, now,
		})
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "candidates",
		Columns:      []string{"id", "full_name", "email", "city", "total_experience_years", "education_level", "created_at", "updated_at"},
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"full_name", "email", "city", "total_experience_years", "education_level", "updated_at"},
	}, rows)
}

func (s *PostgresStore) GetCandidateSkills(ctx context.Context, candidateID string) ([]model.CandidateSkill, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT candidate_id, skill_id, proficiency, verified FROM candidate_skills WHERE candidate_id = $1 ORDER BY skill_id`,
		candidateID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: candidate skills %s", candidateID)
	}
	defer rows.Close()

	var out []model.CandidateSkill
	for rows.Next() {
		var cs model.CandidateSkill
		var proficiency string
		if err := rows.Scan(&cs.CandidateID, &cs.SkillID, &proficiency, &cs.Verified); err != nil {
			return nil, eris.Wrap(err, "postgres: scan candidate skill")
		}
		cs.Proficiency = model.Proficiency(proficiency)
		out = append(out, cs)
	}
	return out, eris.Wrap(rows.Err(), "postgres: candidate skills iterate")
}

func (s *PostgresStore) SetCandidateSkill(ctx context.Context, cs model.CandidateSkill) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO candidate_skills (candidate_id, skill_id, proficiency, verified) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (candidate_id, skill_id) DO UPDATE SET proficiency = $3, verified = $4`,
		cs.CandidateID, cs.SkillID, string(cs.Proficiency), cs.Verified,
	)
	return eris.Wrap(err, "postgres: set candidate skill")
}

// Jobs

func (s *PostgresStore) UpsertJob(ctx context.Context, j *model.JobProfile) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	if j.Status == "" {
		j.Status = model.JobStatusOpen
	}
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = now

	weightsJSON, err := json.Marshal(j.Weights)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal weights")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO jobs (id, title, status, location, location_type, minimum_experience, preferred_experience, required_education, weights, ml_weight, template_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE SET
		   title = $2, status = $3, location = $4, location_type = $5, minimum_experience = $6,
		   preferred_experience = $7, required_education = $8, weights = $9, ml_weight = $10, template_id = $11, updated_at = $13`,
		j.ID, j.Title, string(j.Status), j.Location, string(j.LocationType),
		j.MinimumExperience, j.PreferredExperience, string(j.RequiredEducation),
		weightsJSON, j.MLWeight, nullable(j.TemplateID), j.CreatedAt, j.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert job %s", j.ID)
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*model.JobProfile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, title, status, location, location_type, minimum_experience, preferred_experience, required_education, weights, ml_weight, template_id, created_at, updated_at FROM jobs WHERE id = $1`,
		id,
	)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "job %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get job %s", id)
	}
	return j, nil
}

func (s *PostgresStore) ListOpenJobs(ctx context.Context) ([]model.JobProfile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, status, location, location_type, minimum_experience, preferred_experience, required_education, weights, ml_weight, template_id, created_at, updated_at FROM jobs WHERE status = $1 ORDER BY created_at`,
		string(model.JobStatusOpen),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list open jobs")
	}
	defer rows.Close()

	var out []model.JobProfile
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		out = append(out, *j)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list open jobs iterate")
}

func (s *PostgresStore) GetRequiredSkills(ctx context.Context, jobID string) ([]model.RequiredSkill, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT job_id, skill_id, required, weight, minimum_proficiency FROM job_required_skills WHERE job_id = $1 ORDER BY skill_id`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: required skills %s", jobID)
	}
	defer rows.Close()

	var out []model.RequiredSkill
	for rows.Next() {
		var rs model.RequiredSkill
		var proficiency string
		if err := rows.Scan(&rs.JobID, &rs.SkillID, &rs.Required, &rs.Weight, &proficiency); err != nil {
			return nil, eris.Wrap(err, "postgres: scan required skill")
		}
		rs.MinimumProficiency = model.Proficiency(proficiency)
		out = append(out, rs)
	}
	return out, eris.Wrap(rows.Err(), "postgres: required skills iterate")
}

func (s *PostgresStore) SetRequiredSkill(ctx context.Context, rs model.RequiredSkill) error {
	weight := rs.Weight
	if weight <= 0 {
		weight = 1
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_required_skills (job_id, skill_id, required, weight, minimum_proficiency) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (job_id, skill_id) DO UPDATE SET required = $3, weight = $4, minimum_proficiency = $5`,
		rs.JobID, rs.SkillID, rs.Required, weight, string(rs.MinimumProficiency),
	)
	return eris.Wrap(err, "postgres: set required skill")
}

func (s *PostgresStore) UpsertSkill(ctx context.Context, sk model.Skill) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO skills (id, name, category) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET name = $2, category = $3`,
		sk.ID, sk.Name, sk.Category,
	)
	return eris.Wrap(err, "postgres: upsert skill")
}

// Scoring rules

func (s *PostgresStore) CreateRule(ctx context.Context, r *model.ScoringRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	condJSON, actJSON, err := marshalRuleDocs(r)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scoring_rules (id, name, description, job_id, template_id, active, priority, execution_order, stop_on_match, conditions, actions, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.ID, r.Name, r.Description, nullable(r.JobID), nullable(r.TemplateID),
		r.Active, r.Priority, r.ExecutionOrder, r.StopOnMatch, condJSON, actJSON, r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert rule %s", r.ID)
}

func (s *PostgresStore) UpdateRule(ctx context.Context, r *model.ScoringRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.UpdatedAt = time.Now().UTC()

	condJSON, actJSON, err := marshalRuleDocs(r)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE scoring_rules SET name = $1, description = $2, job_id = $3, template_id = $4, active = $5,
		 priority = $6, execution_order = $7, stop_on_match = $8, conditions = $9, actions = $10, updated_at = $11
		 WHERE id = $12`,
		r.Name, r.Description, nullable(r.JobID), nullable(r.TemplateID), r.Active,
		r.Priority, r.ExecutionOrder, r.StopOnMatch, condJSON, actJSON, r.UpdatedAt, r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update rule %s", r.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "rule %s", r.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteRule(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scoring_rules WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete rule %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "rule %s", id)
	}
	return nil
}

func (s *PostgresStore) GetRule(ctx context.Context, id string) (*model.ScoringRule, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, description, job_id, template_id, active, priority, execution_order, stop_on_match, conditions, actions, created_at, updated_at FROM scoring_rules WHERE id = $1`,
		id,
	)
	r, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "rule %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get rule %s", id)
	}
	return r, nil
}

func (s *PostgresStore) ListRulesForJob(ctx context.Context, jobID string, activeOnly bool) ([]model.ScoringRule, error) {
	query := `SELECT id, name, description, job_id, template_id, active, priority, execution_order, stop_on_match, conditions, actions, created_at, updated_at
	          FROM scoring_rules WHERE job_id = $1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY priority, execution_order, created_at`
	return s.listRules(ctx, query, jobID)
}

func (s *PostgresStore) ListRulesForTemplate(ctx context.Context, templateID string, activeOnly bool) ([]model.ScoringRule, error) {
	query := `SELECT id, name, description, job_id, template_id, active, priority, execution_order, stop_on_match, conditions, actions, created_at, updated_at
	          FROM scoring_rules WHERE template_id = $1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY priority, execution_order, created_at`
	return s.listRules(ctx, query, templateID)
}

func (s *PostgresStore) listRules(ctx context.Context, query string, arg any) ([]model.ScoringRule, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rules")
	}
	defer rows.Close()

	var out []model.ScoringRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan rule")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list rules iterate")
}

func (s *PostgresStore) SetRuleActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scoring_rules SET active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set rule active %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "rule %s", id)
	}
	return nil
}

func (s *PostgresStore) CreateTemplate(ctx context.Context, tpl *model.RuleTemplate) error {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rule_templates (id, name, description, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = $2, description = $3`,
		tpl.ID, tpl.Name, tpl.Description, tpl.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: create template %s", tpl.ID)
}

func (s *PostgresStore) ListTemplates(ctx context.Context) ([]model.RuleTemplate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, created_at FROM rule_templates ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list templates")
	}
	defer rows.Close()

	var out []model.RuleTemplate
	for rows.Next() {
		var tpl model.RuleTemplate
		if err := rows.Scan(&tpl.ID, &tpl.Name, &tpl.Description, &tpl.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan template")
		}
		out = append(out, tpl)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list templates iterate")
}

// DuplicateTemplate copies a template and every rule it owns under a new
// name. Copies get fresh ids and keep their ordering fields; the whole
// copy commits or rolls back as one unit.
func (s *PostgresStore) DuplicateTemplate(ctx context.Context, templateID, newName string) (*model.RuleTemplate, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: duplicate template begin tx")
	}
	defer tx.Rollback(ctx)

	var src model.RuleTemplate
	err = tx.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM rule_templates WHERE id = $1`,
		templateID,
	).Scan(&src.ID, &src.Name, &src.Description, &src.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "template %s", templateID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load template %s", templateID)
	}

	dup := &model.RuleTemplate{
		ID:          uuid.New().String(),
		Name:        newName,
		Description: src.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO rule_templates (id, name, description, created_at) VALUES ($1, $2, $3, $4)`,
		dup.ID, dup.Name, dup.Description, dup.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: insert template copy")
	}

	// Drain the source rules before inserting copies; the tx runs on one
	// connection and cannot interleave statements with an open cursor.
	rows, err := tx.Query(ctx,
		`SELECT name, description, active, priority, execution_order, stop_on_match, conditions, actions FROM scoring_rules WHERE template_id = $1`,
		templateID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load template rules %s", templateID)
	}
	type ruleCopy struct {
		name, description        string
		active, stopOnMatch      bool
		priority, executionOrder int
		conditions, actions      []byte
	}
	var copies []ruleCopy
	for rows.Next() {
		var rc ruleCopy
		if err := rows.Scan(&rc.name, &rc.description, &rc.active, &rc.priority, &rc.executionOrder, &rc.stopOnMatch, &rc.conditions, &rc.actions); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "postgres: scan rule copy")
		}
		copies = append(copies, rc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: template rules iterate")
	}

	now := time.Now().UTC()
	for _, rc := range copies {
		if _, err := tx.Exec(ctx,
			`INSERT INTO scoring_rules (id, name, description, job_id, template_id, active, priority, execution_order, stop_on_match, conditions, actions, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			uuid.New().String(), rc.name, rc.description, nil, dup.ID,
			rc.active, rc.priority, rc.executionOrder, rc.stopOnMatch, rc.conditions, rc.actions, now, now,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: insert rule copy")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: duplicate template commit tx")
	}
	return dup, nil
}

// Match results

const matchColumns = `id, candidate_id, job_id, overall_score, blended_score, skill_score, experience_score, education_score, location_score,
	semantic_score, semantic_used, feedback_multiplier, rules_applied, pre_filter_passed, disqualify_reason, rank, review_status, created_at, updated_at`

// UpsertMatchResult writes one pair's scores. The row is keyed by
// (candidate, job): a re-score updates scores and audit data in place and
// the single-statement upsert serializes concurrent writers on the same
// pair. Review status, rank, and created_at survive re-scores; the scanned
// values replace the caller's.
func (s *PostgresStore) UpsertMatchResult(ctx context.Context, m *model.MatchResult) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if m.ReviewStatus == "" {
		m.ReviewStatus = model.ReviewPending
	}

	rulesJSON, err := json.Marshal(m.RulesApplied)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal rules applied")
	}

	var status string
	err = s.pool.QueryRow(ctx,
		`INSERT INTO match_results (id, candidate_id, job_id, overall_score, blended_score, skill_score, experience_score, education_score, location_score,
		   semantic_score, semantic_used, feedback_multiplier, rules_applied, pre_filter_passed, disqualify_reason, rank, review_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		 ON CONFLICT (candidate_id, job_id) DO UPDATE SET
		   overall_score = EXCLUDED.overall_score,
		   blended_score = EXCLUDED.blended_score,
		   skill_score = EXCLUDED.skill_score,
		   experience_score = EXCLUDED.experience_score,
		   education_score = EXCLUDED.education_score,
		   location_score = EXCLUDED.location_score,
		   semantic_score = EXCLUDED.semantic_score,
		   semantic_used = EXCLUDED.semantic_used,
		   feedback_multiplier = EXCLUDED.feedback_multiplier,
		   rules_applied = EXCLUDED.rules_applied,
		   pre_filter_passed = EXCLUDED.pre_filter_passed,
		   disqualify_reason = EXCLUDED.disqualify_reason,
		   updated_at = EXCLUDED.updated_at
		 RETURNING id, rank, review_status, created_at`,
		m.ID, m.CandidateID, m.JobID, m.OverallScore, m.BlendedScore, m.SkillScore, m.ExperienceScore, m.EducationScore, m.LocationScore,
		m.SemanticScore, m.SemanticUsed, m.FeedbackMultiplier, rulesJSON, m.PreFilterPassed, m.DisqualifyReason,
		m.Rank, string(m.ReviewStatus), m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID, &m.Rank, &status, &m.CreatedAt)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert match %s/%s", m.CandidateID, m.JobID)
	}
	m.ReviewStatus = model.ReviewStatus(status)
	return nil
}

func (s *PostgresStore) GetMatch(ctx context.Context, id string) (*model.MatchResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM match_results WHERE id = $1`, id,
	)
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "match %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get match %s", id)
	}
	return m, nil
}

func (s *PostgresStore) GetMatchByPair(ctx context.Context, candidateID, jobID string) (*model.MatchResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM match_results WHERE candidate_id = $1 AND job_id = $2`,
		candidateID, jobID,
	)
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "match %s/%s", candidateID, jobID)
		}
		return nil, eris.Wrapf(err, "postgres: get match %s/%s", candidateID, jobID)
	}
	return m, nil
}

func (s *PostgresStore) ListMatchesForJob(ctx context.Context, jobID string, filter MatchFilter) ([]model.MatchResult, error) {
	return s.listMatches(ctx, `job_id`, jobID, filter)
}

func (s *PostgresStore) ListMatchesForCandidate(ctx context.Context, candidateID string, filter MatchFilter) ([]model.MatchResult, error) {
	return s.listMatches(ctx, `candidate_id`, candidateID, filter)
}

func (s *PostgresStore) listMatches(ctx context.Context, keyCol, keyVal string, filter MatchFilter) ([]model.MatchResult, error) {
	query := `SELECT ` + matchColumns + ` FROM match_results WHERE ` + keyCol + ` = $1`
	args := []any{keyVal}
	argIdx := 2

	if filter.Status != "" {
		query += fmt.Sprintf(` AND review_status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.MinScore > 0 {
		query += fmt.Sprintf(` AND overall_score >= $%d`, argIdx)
		args = append(args, filter.MinScore)
		argIdx++
	}
	if filter.OnlyQualified {
		query += ` AND pre_filter_passed`
	}
	query += ` ORDER BY pre_filter_passed DESC, overall_score DESC, candidate_id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list matches")
	}
	defer rows.Close()

	var out []model.MatchResult
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan match")
		}
		out = append(out, *m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list matches iterate")
}

// UpdateRanks recomputes dense 1-based ranks for a job's qualified
// results, ordered by score with candidate id as the tiebreak.
// Disqualified rows drop to rank 0.
func (s *PostgresStore) UpdateRanks(ctx context.Context, jobID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE match_results SET rank = ranked.pos
		 FROM (
		   SELECT id, ROW_NUMBER() OVER (ORDER BY overall_score DESC, candidate_id) AS pos
		   FROM match_results WHERE job_id = $1 AND pre_filter_passed
		 ) AS ranked
		 WHERE match_results.id = ranked.id`,
		jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: rank matches for job %s", jobID)
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE match_results SET rank = 0 WHERE job_id = $1 AND NOT pre_filter_passed`,
		jobID,
	)
	return eris.Wrapf(err, "postgres: clear disqualified ranks for job %s", jobID)
}

func (s *PostgresStore) UpdateReviewStatus(ctx context.Context, id string, status model.ReviewStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE match_results SET review_status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update review status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "match %s", id)
	}
	return nil
}

func (s *PostgresStore) UpdateMatchScore(ctx context.Context, id string, multiplier, overall float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE match_results SET feedback_multiplier = $1, overall_score = $2, updated_at = $3 WHERE id = $4`,
		multiplier, overall, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update match score %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "match %s", id)
	}
	return nil
}

func (s *PostgresStore) MatchStats(ctx context.Context, jobID string) (*model.MatchStats, error) {
	stats := &model.MatchStats{
		JobID:        jobID,
		ByStatus:     map[string]int{},
		ByReason:     map[string]int{},
		ScoreBuckets: map[string]int{},
	}

	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE NOT pre_filter_passed),
		        COALESCE(AVG(overall_score) FILTER (WHERE pre_filter_passed), 0),
		        COALESCE(MAX(overall_score) FILTER (WHERE pre_filter_passed), 0)
		 FROM match_results WHERE job_id = $1`,
		jobID,
	).Scan(&stats.Total, &stats.Disqualified, &stats.AverageScore, &stats.TopScore)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: match stats %s", jobID)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT review_status, COUNT(*) FROM match_results WHERE job_id = $1 GROUP BY review_status`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats by status")
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status count")
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: stats by status iterate")
	}

	reasonRows, err := s.pool.Query(ctx,
		`SELECT disqualify_reason, COUNT(*) FROM match_results
		 WHERE job_id = $1 AND NOT pre_filter_passed AND disqualify_reason != ''
		 GROUP BY disqualify_reason`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats by reason")
	}
	defer reasonRows.Close()
	for reasonRows.Next() {
		var reason string
		var count int
		if err := reasonRows.Scan(&reason, &count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan reason count")
		}
		stats.ByReason[reason] = count
	}
	if err := reasonRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: stats by reason iterate")
	}

	bucketRows, err := s.pool.Query(ctx,
		`SELECT CASE
		   WHEN overall_score >= 80 THEN '80-100'
		   WHEN overall_score >= 60 THEN '60-79'
		   WHEN overall_score >= 40 THEN '40-59'
		   WHEN overall_score >= 20 THEN '20-39'
		   ELSE '0-19' END AS bucket, COUNT(*)
		 FROM match_results WHERE job_id = $1 AND pre_filter_passed GROUP BY bucket`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats buckets")
	}
	defer bucketRows.Close()
	for bucketRows.Next() {
		var bucket string
		var count int
		if err := bucketRows.Scan(&bucket, &count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan bucket count")
		}
		stats.ScoreBuckets[bucket] = count
	}
	if err := bucketRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: stats buckets iterate")
	}

	err = s.pool.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM match_feedback f JOIN match_results m ON m.id = f.match_result_id WHERE m.job_id = $1`,
		jobID,
	).Scan(&stats.FeedbackTotal)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats feedback total")
	}
	return stats, nil
}

// Feedback

// SubmitFeedback records one reviewer's verdict on a match. A repeat of
// the same verdict removes the row; the opposite verdict replaces it.
func (s *PostgresStore) SubmitFeedback(ctx context.Context, fb *model.MatchFeedback) (model.FeedbackChange, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", eris.Wrap(err, "postgres: feedback begin tx")
	}
	defer tx.Rollback(ctx)

	var existingID string
	var existingType string
	err = tx.QueryRow(ctx,
		`SELECT id, feedback_type FROM match_feedback WHERE match_result_id = $1 AND feedback_by = $2`,
		fb.MatchResultID, fb.FeedbackBy,
	).Scan(&existingID, &existingType)

	var change model.FeedbackChange
	now := time.Now().UTC()
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if fb.ID == "" {
			fb.ID = uuid.New().String()
		}
		fb.CreatedAt = now
		_, err = tx.Exec(ctx,
			`INSERT INTO match_feedback (id, match_result_id, feedback_type, feedback_by, notes, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			fb.ID, fb.MatchResultID, string(fb.FeedbackType), fb.FeedbackBy, fb.Notes, now,
		)
		if err != nil {
			return "", eris.Wrap(err, "postgres: insert feedback")
		}
		change = model.FeedbackAdded
	case err != nil:
		return "", eris.Wrap(err, "postgres: lookup feedback")
	case existingType == string(fb.FeedbackType):
		if _, err := tx.Exec(ctx, `DELETE FROM match_feedback WHERE id = $1`, existingID); err != nil {
			return "", eris.Wrap(err, "postgres: remove feedback")
		}
		change = model.FeedbackRemoved
	default:
		fb.ID = existingID
		fb.CreatedAt = now
		_, err = tx.Exec(ctx,
			`UPDATE match_feedback SET feedback_type = $1, notes = $2, created_at = $3 WHERE id = $4`,
			string(fb.FeedbackType), fb.Notes, now, existingID,
		)
		if err != nil {
			return "", eris.Wrap(err, "postgres: replace feedback")
		}
		change = model.FeedbackReplaced
	}

	if err := tx.Commit(ctx); err != nil {
		return "", eris.Wrap(err, "postgres: feedback commit tx")
	}
	return change, nil
}

func (s *PostgresStore) DeleteFeedback(ctx context.Context, matchResultID, feedbackBy string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM match_feedback WHERE match_result_id = $1 AND feedback_by = $2`,
		matchResultID, feedbackBy,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: delete feedback")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "feedback by %s on %s", feedbackBy, matchResultID)
	}
	return nil
}

func (s *PostgresStore) ListFeedback(ctx context.Context, matchResultID string) ([]model.MatchFeedback, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, match_result_id, feedback_type, feedback_by, notes, created_at FROM match_feedback WHERE match_result_id = $1 ORDER BY created_at`,
		matchResultID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list feedback %s", matchResultID)
	}
	defer rows.Close()

	var out []model.MatchFeedback
	for rows.Next() {
		var fb model.MatchFeedback
		var fbType string
		if err := rows.Scan(&fb.ID, &fb.MatchResultID, &fbType, &fb.FeedbackBy, &fb.Notes, &fb.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan feedback")
		}
		fb.FeedbackType = model.FeedbackType(fbType)
		out = append(out, fb)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list feedback iterate")
}

func (s *PostgresStore) ListFeedbackForCandidate(ctx context.Context, candidateID string) ([]model.MatchFeedback, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT f.id, f.match_result_id, f.feedback_type, f.feedback_by, f.notes, f.created_at FROM match_feedback f JOIN match_results m ON m.id = f.match_result_id WHERE m.candidate_id = $1 ORDER BY f.created_at`,
		candidateID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list feedback for candidate %s", candidateID)
	}
	defer rows.Close()

	var out []model.MatchFeedback
	for rows.Next() {
		var fb model.MatchFeedback
		var fbType string
		if err := rows.Scan(&fb.ID, &fb.MatchResultID, &fbType, &fb.FeedbackBy, &fb.Notes, &fb.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan feedback")
		}
		fb.FeedbackType = model.FeedbackType(fbType)
		out = append(out, fb)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list candidate feedback iterate")
}

// scan helpers shared with the SQLite store live in sqlite.go; the
// pgx-specific ones are here.

func scanJob(row scannable) (*model.JobProfile, error) {
	var j model.JobProfile
	var status, locationType, education string
	var weightsJSON []byte
	var templateID *string

	err := row.Scan(&j.ID, &j.Title, &status, &j.Location, &locationType,
		&j.MinimumExperience, &j.PreferredExperience, &education,
		&weightsJSON, &j.MLWeight, &templateID, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Status = model.JobStatus(status)
	j.LocationType = model.LocationType(locationType)
	j.RequiredEducation = model.EducationLevel(education)
	if templateID != nil {
		j.TemplateID = *templateID
	}
	if len(weightsJSON) > 0 {
		if err := json.Unmarshal(weightsJSON, &j.Weights); err != nil {
			return nil, eris.Wrap(err, "unmarshal weights")
		}
	}
	return &j, nil
}

func scanRule(row scannable) (*model.ScoringRule, error) {
	var r model.ScoringRule
	var jobID, templateID *string
	var condJSON, actJSON []byte

	err := row.Scan(&r.ID, &r.Name, &r.Description, &jobID, &templateID, &r.Active,
		&r.Priority, &r.ExecutionOrder, &r.StopOnMatch, &condJSON, &actJSON, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if jobID != nil {
		r.JobID = *jobID
	}
	if templateID != nil {
		r.TemplateID = *templateID
	}
	if err := json.Unmarshal(condJSON, &r.Conditions); err != nil {
		return nil, eris.Wrapf(err, "unmarshal conditions of rule %s", r.ID)
	}
	if err := json.Unmarshal(actJSON, &r.Actions); err != nil {
		return nil, eris.Wrapf(err, "unmarshal actions of rule %s", r.ID)
	}
	return &r, nil
}

func scanMatch(row scannable) (*model.MatchResult, error) {
	var m model.MatchResult
	var status string
	var rulesJSON []byte

	err := row.Scan(&m.ID, &m.CandidateID, &m.JobID, &m.OverallScore, &m.BlendedScore,
		&m.SkillScore, &m.ExperienceScore, &m.EducationScore, &m.LocationScore,
		&m.SemanticScore, &m.SemanticUsed, &m.FeedbackMultiplier, &rulesJSON,
		&m.PreFilterPassed, &m.DisqualifyReason, &m.Rank, &status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.ReviewStatus = model.ReviewStatus(status)
	if len(rulesJSON) > 0 {
		if err := json.Unmarshal(rulesJSON, &m.RulesApplied); err != nil {
			return nil, eris.Wrapf(err, "unmarshal rules applied of match %s", m.ID)
		}
	}
	return &m, nil
}

func marshalRuleDocs(r *model.ScoringRule) (condJSON, actJSON []byte, err error) {
	condJSON, err = json.Marshal(r.Conditions)
	if err != nil {
		return nil, nil, eris.Wrap(err, "marshal conditions")
	}
	actJSON, err = json.Marshal(r.Actions)
	if err != nil {
		return nil, nil, eris.Wrap(err, "marshal actions")
	}
	return condJSON, actJSON, nil
}

// nullable maps empty strings to NULL for optional foreign keys.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
