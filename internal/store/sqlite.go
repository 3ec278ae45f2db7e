package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/hiredeck/match-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local
// and single-node deployments; the schema mirrors the PostgreSQL one.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sdb.Exec(pragma); err != nil {
			sdb.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sdb}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS candidates (
	id                     TEXT PRIMARY KEY,
	full_name              TEXT NOT NULL,
	email                  TEXT NOT NULL DEFAULT '',
	city                   TEXT NOT NULL DEFAULT '',
	total_experience_years REAL NOT NULL DEFAULT 0,
	education_level        TEXT NOT NULL DEFAULT '',
	created_at             DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at             DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS jobs (
	id                   TEXT PRIMARY KEY,
	title                TEXT NOT NULL,
	status               TEXT NOT NULL DEFAULT 'open',
	location             TEXT NOT NULL DEFAULT '',
	location_type        TEXT NOT NULL DEFAULT 'onsite',
	minimum_experience   REAL NOT NULL DEFAULT 0,
	preferred_experience REAL NOT NULL DEFAULT 0,
	required_education   TEXT NOT NULL DEFAULT '',
	weights              TEXT,
	ml_weight            REAL NOT NULL DEFAULT 0,
	template_id          TEXT,
	created_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at           DATETIME NOT NULL DEFAULT (datetime('now'))
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
	verified     BOOLEAN NOT NULL DEFAULT 0,
	PRIMARY KEY (candidate_id, skill_id)
);

CREATE TABLE IF NOT EXISTS job_required_skills (
	job_id              TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	skill_id            TEXT NOT NULL REFERENCES skills(id),
	required            BOOLEAN NOT NULL DEFAULT 0,
	weight              REAL NOT NULL DEFAULT 1,
	minimum_proficiency TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (job_id, skill_id)
);

CREATE TABLE IF NOT EXISTS rule_templates (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scoring_rules (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	job_id          TEXT REFERENCES jobs(id) ON DELETE CASCADE,
	template_id     TEXT REFERENCES rule_templates(id) ON DELETE CASCADE,
	active          BOOLEAN NOT NULL DEFAULT 1,
	priority        INTEGER NOT NULL DEFAULT 100,
	execution_order INTEGER NOT NULL DEFAULT 0,
	stop_on_match   BOOLEAN NOT NULL DEFAULT 0,
	conditions      TEXT NOT NULL,
	actions         TEXT NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS match_results (
	id                  TEXT PRIMARY KEY,
	candidate_id        TEXT NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
	job_id              TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	overall_score       REAL NOT NULL DEFAULT 0,
	blended_score       REAL NOT NULL DEFAULT 0,
	skill_score         REAL NOT NULL DEFAULT 0,
	experience_score    REAL NOT NULL DEFAULT 0,
	education_score     REAL NOT NULL DEFAULT 0,
	location_score      REAL NOT NULL DEFAULT 0,
	semantic_score      REAL,
	semantic_used       BOOLEAN NOT NULL DEFAULT 0,
	feedback_multiplier REAL NOT NULL DEFAULT 1,
	rules_applied       TEXT,
	pre_filter_passed   BOOLEAN NOT NULL DEFAULT 1,
	disqualify_reason   TEXT NOT NULL DEFAULT '',
	rank                INTEGER NOT NULL DEFAULT 0,
	review_status       TEXT NOT NULL DEFAULT 'pending',
	created_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (candidate_id, job_id)
);

CREATE TABLE IF NOT EXISTS match_feedback (
	id              TEXT PRIMARY KEY,
	match_result_id TEXT NOT NULL REFERENCES match_results(id) ON DELETE CASCADE,
	feedback_type   TEXT NOT NULL,
	feedback_by     TEXT NOT NULL,
	notes           TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
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
CREATE INDEX IF NOT EXISTS idx_match_feedback_result ON match_feedback(match_result_id);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Candidates

func (s *SQLiteStore) UpsertCandidate(ctx context.Context, c *model.CandidateProfile) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidates (id, full_name, email, city, total_experience_years, education_level, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   full_name = excluded.full_name, email = excluded.email, city = excluded.city,
		   total_experience_years = excluded.total_experience_years, education_level = excluded.education_level,
		   updated_at = excluded.updated_at`,
		c.ID, c.FullName, c.Email, c.City, c.TotalExperienceYears, string(c.EducationLevel), c.CreatedAt, c.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert candidate %s", c.ID)
}

func (s *SQLiteStore) GetCandidate(ctx context.Context, id string) (*model.CandidateProfile, error) {
	var c model.CandidateProfile
	var education string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, city, total_experience_years, education_level, created_at, updated_at FROM candidates WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.FullName, &c.Email, &c.City, &c.TotalExperienceYears, &education, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "candidate %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get candidate %s", id)
	}
	c.EducationLevel = model.EducationLevel(education)
	return &c, nil
}

func (s *SQLiteStore) ListCandidates(ctx context.Context, filter CandidateFilter) ([]model.CandidateProfile, error) {
	query := `SELECT id, full_name, email, city, total_experience_years, education_level, created_at, updated_at FROM candidates WHERE 1=1`
	var args []any

	if filter.City != "" {
		query += ` AND city = ?`
		args = append(args, filter.City)
	}
	query += ` ORDER BY created_at`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list candidates")
	}
	defer rows.Close()

	var out []model.CandidateProfile
	for rows.Next() {
		var c model.CandidateProfile
		var education string
		if err := rows.Scan(&c.ID, &c.FullName, &c.Email, &c.City, &c.TotalExperienceYears, &education, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan candidate")
		}
		c.EducationLevel = model.EducationLevel(education)
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list candidates iterate")
}

// ImportCandidates loads candidates one upsert at a time. SQLite has no
// COPY protocol; imports here are small enough that looping is fine.
func (s *SQLiteStore) ImportCandidates(ctx context.Context, candidates []model.CandidateProfile) (int64, error) {
	var n int64
	for i := range candidates {
		if err := s.UpsertCandidate(ctx, &candidates[i]); err != nil {
			return n, eris.Wrapf(err, "sqlite: import candidate %d", i)
		}
		n++
	}
	return n, nil
}

func (s *SQLiteStore) GetCandidateSkills(ctx context.Context, candidateID string) ([]model.CandidateSkill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, skill_id, proficiency, verified FROM candidate_skills WHERE candidate_id = ? ORDER BY skill_id`,
		candidateID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: candidate skills %s", candidateID)
	}
	defer rows.Close()

	var out []model.CandidateSkill
	for rows.Next() {
		var cs model.CandidateSkill
		var proficiency string
		if err := rows.Scan(&cs.CandidateID, &cs.SkillID, &proficiency, &cs.Verified); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan candidate skill")
		}
		cs.Proficiency = model.Proficiency(proficiency)
		out = append(out, cs)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: candidate skills iterate")
}

func (s *SQLiteStore) SetCandidateSkill(ctx context.Context, cs model.CandidateSkill) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidate_skills (candidate_id, skill_id, proficiency, verified) VALUES (?, ?, ?, ?)
		 ON CONFLICT (candidate_id, skill_id) DO UPDATE SET proficiency = excluded.proficiency, verified = excluded.verified`,
		cs.CandidateID, cs.SkillID, string(cs.Proficiency), cs.Verified,
	)
	return eris.Wrap(err, "sqlite: set candidate skill")
}

// Jobs

func (s *SQLiteStore) UpsertJob(ctx context.Context, j *model.JobProfile) error {
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
		return eris.Wrap(err, "sqlite: marshal weights")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, title, status, location, location_type, minimum_experience, preferred_experience, required_education, weights, ml_weight, template_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   title = excluded.title, status = excluded.status, location = excluded.location, location_type = excluded.location_type,
		   minimum_experience = excluded.minimum_experience, preferred_experience = excluded.preferred_experience,
		   required_education = excluded.required_education, weights = excluded.weights, ml_weight = excluded.ml_weight,
		   template_id = excluded.template_id, updated_at = excluded.updated_at`,
		j.ID, j.Title, string(j.Status), j.Location, string(j.LocationType),
		j.MinimumExperience, j.PreferredExperience, string(j.RequiredEducation),
		string(weightsJSON), j.MLWeight, nullable(j.TemplateID), j.CreatedAt, j.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert job %s", j.ID)
}

func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*model.JobProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, status, location, location_type, minimum_experience, preferred_experience, required_education, weights, ml_weight, template_id, created_at, updated_at FROM jobs WHERE id = ?`,
		id,
	)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "job %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get job %s", id)
	}
	return j, nil
}

func (s *SQLiteStore) ListOpenJobs(ctx context.Context) ([]model.JobProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, status, location, location_type, minimum_experience, preferred_experience, required_education, weights, ml_weight, template_id, created_at, updated_at FROM jobs WHERE status = ? ORDER BY created_at`,
		string(model.JobStatusOpen),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list open jobs")
	}
	defer rows.Close()

	var out []model.JobProfile
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job")
		}
		out = append(out, *j)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list open jobs iterate")
}

func (s *SQLiteStore) GetRequiredSkills(ctx context.Context, jobID string) ([]model.RequiredSkill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, skill_id, required, weight, minimum_proficiency FROM job_required_skills WHERE job_id = ? ORDER BY skill_id`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: required skills %s", jobID)
	}
	defer rows.Close()

	var out []model.RequiredSkill
	for rows.Next() {
		var rs model.RequiredSkill
		var proficiency string
		if err := rows.Scan(&rs.JobID, &rs.SkillID, &rs.Required, &rs.Weight, &proficiency); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan required skill")
		}
		rs.MinimumProficiency = model.Proficiency(proficiency)
		out = append(out, rs)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: required skills iterate")
}

func (s *SQLiteStore) SetRequiredSkill(ctx context.Context, rs model.RequiredSkill) error {
	weight := rs.Weight
	if weight <= 0 {
		weight = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_required_skills (job_id, skill_id, required, weight, minimum_proficiency) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (job_id, skill_id) DO UPDATE SET required = excluded.required, weight = excluded.weight, minimum_proficiency = excluded.minimum_proficiency`,
		rs.JobID, rs.SkillID, rs.Required, weight, string(rs.MinimumProficiency),
	)
	return eris.Wrap(err, "sqlite: set required skill")
}

func (s *SQLiteStore) UpsertSkill(ctx context.Context, sk model.Skill) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO skills (id, name, category) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, category = excluded.category`,
		sk.ID, sk.Name, sk.Category,
	)
	return eris.Wrap(err, "sqlite: upsert skill")
}

// Scoring rules

func (s *SQLiteStore) CreateRule(ctx context.Context, r *model.ScoringRule) error {
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

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scoring_rules (id, name, description, job_id, template_id, active, priority, execution_order, stop_on_match, conditions, actions, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Description, nullable(r.JobID), nullable(r.TemplateID),
		r.Active, r.Priority, r.ExecutionOrder, r.StopOnMatch, string(condJSON), string(actJSON), r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert rule %s", r.ID)
}

func (s *SQLiteStore) UpdateRule(ctx context.Context, r *model.ScoringRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.UpdatedAt = time.Now().UTC()

	condJSON, actJSON, err := marshalRuleDocs(r)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE scoring_rules SET name = ?, description = ?, job_id = ?, template_id = ?, active = ?,
		 priority = ?, execution_order = ?, stop_on_match = ?, conditions = ?, actions = ?, updated_at = ?
		 WHERE id = ?`,
		r.Name, r.Description, nullable(r.JobID), nullable(r.TemplateID), r.Active,
		r.Priority, r.ExecutionOrder, r.StopOnMatch, string(condJSON), string(actJSON), r.UpdatedAt, r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update rule %s", r.ID)
	}
	return checkRowsAffected(res, "rule", r.ID)
}

func (s *SQLiteStore) DeleteRule(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scoring_rules WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete rule %s", id)
	}
	return checkRowsAffected(res, "rule", id)
}

func (s *SQLiteStore) GetRule(ctx context.Context, id string) (*model.ScoringRule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, job_id, template_id, active, priority, execution_order, stop_on_match, conditions, actions, created_at, updated_at FROM scoring_rules WHERE id = ?`,
		id,
	)
	r, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "rule %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get rule %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) ListRulesForJob(ctx context.Context, jobID string, activeOnly bool) ([]model.ScoringRule, error) {
	query := `SELECT id, name, description, job_id, template_id, active, priority, execution_order, stop_on_match, conditions, actions, created_at, updated_at
	          FROM scoring_rules WHERE job_id = ?`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY priority, execution_order, created_at`
	return s.listRules(ctx, query, jobID)
}

func (s *SQLiteStore) ListRulesForTemplate(ctx context.Context, templateID string, activeOnly bool) ([]model.ScoringRule, error) {
	query := `SELECT id, name, description, job_id, template_id, active, priority, execution_order, stop_on_match, conditions, actions, created_at, updated_at
	          FROM scoring_rules WHERE template_id = ?`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY priority, execution_order, created_at`
	return s.listRules(ctx, query, templateID)
}

func (s *SQLiteStore) listRules(ctx context.Context, query string, arg any) ([]model.ScoringRule, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rules")
	}
	defer rows.Close()

	var out []model.ScoringRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rule")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list rules iterate")
}

func (s *SQLiteStore) SetRuleActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scoring_rules SET active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set rule active %s", id)
	}
	return checkRowsAffected(res, "rule", id)
}

func (s *SQLiteStore) CreateTemplate(ctx context.Context, tpl *model.RuleTemplate) error {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rule_templates (id, name, description, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, description = excluded.description`,
		tpl.ID, tpl.Name, tpl.Description, tpl.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: create template %s", tpl.ID)
}

func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]model.RuleTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM rule_templates ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list templates")
	}
	defer rows.Close()

	var out []model.RuleTemplate
	for rows.Next() {
		var tpl model.RuleTemplate
		if err := rows.Scan(&tpl.ID, &tpl.Name, &tpl.Description, &tpl.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan template")
		}
		out = append(out, tpl)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list templates iterate")
}

// DuplicateTemplate copies a template and every rule it owns under a new
// name. Copies get fresh ids and keep their ordering fields; the whole
// copy commits or rolls back as one unit.
func (s *SQLiteStore) DuplicateTemplate(ctx context.Context, templateID, newName string) (*model.RuleTemplate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: duplicate template begin tx")
	}
	defer tx.Rollback()

	var src model.RuleTemplate
	err = tx.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM rule_templates WHERE id = ?`,
		templateID,
	).Scan(&src.ID, &src.Name, &src.Description, &src.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "template %s", templateID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load template %s", templateID)
	}

	dup := &model.RuleTemplate{
		ID:          uuid.New().String(),
		Name:        newName,
		Description: src.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rule_templates (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		dup.ID, dup.Name, dup.Description, dup.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert template copy")
	}

	// Drain the source rules before inserting copies; the tx holds one
	// connection and cannot interleave statements with an open cursor.
	rows, err := tx.QueryContext(ctx,
		`SELECT name, description, active, priority, execution_order, stop_on_match, conditions, actions FROM scoring_rules WHERE template_id = ?`,
		templateID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load template rules %s", templateID)
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
			return nil, eris.Wrap(err, "sqlite: scan rule copy")
		}
		copies = append(copies, rc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: template rules iterate")
	}

	now := time.Now().UTC()
	for _, rc := range copies {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scoring_rules (id, name, description, job_id, template_id, active, priority, execution_order, stop_on_match, conditions, actions, created_at, updated_at)
			 VALUES (?, ?, ?, NULL, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), rc.name, rc.description, dup.ID,
			rc.active, rc.priority, rc.executionOrder, rc.stopOnMatch, rc.conditions, rc.actions, now, now,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: insert rule copy")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: duplicate template commit tx")
	}
	return dup, nil
}

// Match results

func (s *SQLiteStore) UpsertMatchResult(ctx context.Context, m *model.MatchResult) error {
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
		return eris.Wrap(err, "sqlite: marshal rules applied")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO match_results (id, candidate_id, job_id, overall_score, blended_score, skill_score, experience_score, education_score, location_score,
		   semantic_score, semantic_used, feedback_multiplier, rules_applied, pre_filter_passed, disqualify_reason, rank, review_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (candidate_id, job_id) DO UPDATE SET
		   overall_score = excluded.overall_score,
		   blended_score = excluded.blended_score,
		   skill_score = excluded.skill_score,
		   experience_score = excluded.experience_score,
		   education_score = excluded.education_score,
		   location_score = excluded.location_score,
		   semantic_score = excluded.semantic_score,
		   semantic_used = excluded.semantic_used,
		   feedback_multiplier = excluded.feedback_multiplier,
		   rules_applied = excluded.rules_applied,
		   pre_filter_passed = excluded.pre_filter_passed,
		   disqualify_reason = excluded.disqualify_reason,
		   updated_at = excluded.updated_at`,
		m.ID, m.CandidateID, m.JobID, m.OverallScore, m.BlendedScore, m.SkillScore, m.ExperienceScore, m.EducationScore, m.LocationScore,
		m.SemanticScore, m.SemanticUsed, m.FeedbackMultiplier, string(rulesJSON), m.PreFilterPassed, m.DisqualifyReason,
		m.Rank, string(m.ReviewStatus), m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert match %s/%s", m.CandidateID, m.JobID)
	}

	// Read back the surviving row so the caller sees the preserved id,
	// rank, review status, and creation time on re-scores.
	var status string
	err = s.db.QueryRowContext(ctx,
		`SELECT id, rank, review_status, created_at FROM match_results WHERE candidate_id = ? AND job_id = ?`,
		m.CandidateID, m.JobID,
	).Scan(&m.ID, &m.Rank, &status, &m.CreatedAt)
	if err != nil {
		return eris.Wrapf(err, "sqlite: read back match %s/%s", m.CandidateID, m.JobID)
	}
	m.ReviewStatus = model.ReviewStatus(status)
	return nil
}

func (s *SQLiteStore) GetMatch(ctx context.Context, id string) (*model.MatchResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM match_results WHERE id = ?`, id,
	)
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "match %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get match %s", id)
	}
	return m, nil
}

func (s *SQLiteStore) GetMatchByPair(ctx context.Context, candidateID, jobID string) (*model.MatchResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM match_results WHERE candidate_id = ? AND job_id = ?`,
		candidateID, jobID,
	)
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "match %s/%s", candidateID, jobID)
		}
		return nil, eris.Wrapf(err, "sqlite: get match %s/%s", candidateID, jobID)
	}
	return m, nil
}

func (s *SQLiteStore) ListMatchesForJob(ctx context.Context, jobID string, filter MatchFilter) ([]model.MatchResult, error) {
	return s.listMatches(ctx, `job_id`, jobID, filter)
}

func (s *SQLiteStore) ListMatchesForCandidate(ctx context.Context, candidateID string, filter MatchFilter) ([]model.MatchResult, error) {
	return s.listMatches(ctx, `candidate_id`, candidateID, filter)
}

func (s *SQLiteStore) listMatches(ctx context.Context, keyCol, keyVal string, filter MatchFilter) ([]model.MatchResult, error) {
	query := `SELECT ` + matchColumns + ` FROM match_results WHERE ` + keyCol + ` = ?`
	args := []any{keyVal}

	if filter.Status != "" {
		query += ` AND review_status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.MinScore > 0 {
		query += ` AND overall_score >= ?`
		args = append(args, filter.MinScore)
	}
	if filter.OnlyQualified {
		query += ` AND pre_filter_passed`
	}
	query += ` ORDER BY pre_filter_passed DESC, overall_score DESC, candidate_id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list matches")
	}
	defer rows.Close()

	var out []model.MatchResult
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan match")
		}
		out = append(out, *m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list matches iterate")
}

func (s *SQLiteStore) UpdateRanks(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE match_results SET rank = ranked.pos
		 FROM (
		   SELECT id, ROW_NUMBER() OVER (ORDER BY overall_score DESC, candidate_id) AS pos
		   FROM match_results WHERE job_id = ? AND pre_filter_passed
		 ) AS ranked
		 WHERE match_results.id = ranked.id`,
		jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: rank matches for job %s", jobID)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE match_results SET rank = 0 WHERE job_id = ? AND NOT pre_filter_passed`,
		jobID,
	)
	return eris.Wrapf(err, "sqlite: clear disqualified ranks for job %s", jobID)
}

func (s *SQLiteStore) UpdateReviewStatus(ctx context.Context, id string, status model.ReviewStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE match_results SET review_status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update review status %s", id)
	}
	return checkRowsAffected(res, "match", id)
}

func (s *SQLiteStore) UpdateMatchScore(ctx context.Context, id string, multiplier, overall float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE match_results SET feedback_multiplier = ?, overall_score = ?, updated_at = ? WHERE id = ?`,
		multiplier, overall, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update match score %s", id)
	}
	return checkRowsAffected(res, "match", id)
}

func (s *SQLiteStore) MatchStats(ctx context.Context, jobID string) (*model.MatchStats, error) {
	stats := &model.MatchStats{
		JobID:        jobID,
		ByStatus:     map[string]int{},
		ByReason:     map[string]int{},
		ScoreBuckets: map[string]int{},
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE NOT pre_filter_passed),
		        COALESCE(AVG(overall_score) FILTER (WHERE pre_filter_passed), 0),
		        COALESCE(MAX(overall_score) FILTER (WHERE pre_filter_passed), 0)
		 FROM match_results WHERE job_id = ?`,
		jobID,
	).Scan(&stats.Total, &stats.Disqualified, &stats.AverageScore, &stats.TopScore)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: match stats %s", jobID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT review_status, COUNT(*) FROM match_results WHERE job_id = ? GROUP BY review_status`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats by status")
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan status count")
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: stats by status iterate")
	}

	reasonRows, err := s.db.QueryContext(ctx,
		`SELECT disqualify_reason, COUNT(*) FROM match_results
		 WHERE job_id = ? AND NOT pre_filter_passed AND disqualify_reason != ''
		 GROUP BY disqualify_reason`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats by reason")
	}
	defer reasonRows.Close()
	for reasonRows.Next() {
		var reason string
		var count int
		if err := reasonRows.Scan(&reason, &count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan reason count")
		}
		stats.ByReason[reason] = count
	}
	if err := reasonRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: stats by reason iterate")
	}

	bucketRows, err := s.db.QueryContext(ctx,
		`SELECT CASE
		   WHEN overall_score >= 80 THEN '80-100'
		   WHEN overall_score >= 60 THEN '60-79'
		   WHEN overall_score >= 40 THEN '40-59'
		   WHEN overall_score >= 20 THEN '20-39'
		   ELSE '0-19' END AS bucket, COUNT(*)
		 FROM match_results WHERE job_id = ? AND pre_filter_passed GROUP BY bucket`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats buckets")
	}
	defer bucketRows.Close()
	for bucketRows.Next() {
		var bucket string
		var count int
		if err := bucketRows.Scan(&bucket, &count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan bucket count")
		}
		stats.ScoreBuckets[bucket] = count
	}
	if err := bucketRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: stats buckets iterate")
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM match_feedback f JOIN match_results m ON m.id = f.match_result_id WHERE m.job_id = ?`,
		jobID,
	).Scan(&stats.FeedbackTotal)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats feedback total")
	}
	return stats, nil
}

// Feedback

func (s *SQLiteStore) SubmitFeedback(ctx context.Context, fb *model.MatchFeedback) (model.FeedbackChange, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: feedback begin tx")
	}
	defer tx.Rollback()

	var existingID string
	var existingType string
	err = tx.QueryRowContext(ctx,
		`SELECT id, feedback_type FROM match_feedback WHERE match_result_id = ? AND feedback_by = ?`,
		fb.MatchResultID, fb.FeedbackBy,
	).Scan(&existingID, &existingType)

	var change model.FeedbackChange
	now := time.Now().UTC()
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if fb.ID == "" {
			fb.ID = uuid.New().String()
		}
		fb.CreatedAt = now
		_, err = tx.ExecContext(ctx,
			`INSERT INTO match_feedback (id, match_result_id, feedback_type, feedback_by, notes, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			fb.ID, fb.MatchResultID, string(fb.FeedbackType), fb.FeedbackBy, fb.Notes, now,
		)
		if err != nil {
			return "", eris.Wrap(err, "sqlite: insert feedback")
		}
		change = model.FeedbackAdded
	case err != nil:
		return "", eris.Wrap(err, "sqlite: lookup feedback")
	case existingType == string(fb.FeedbackType):
		if _, err := tx.ExecContext(ctx, `DELETE FROM match_feedback WHERE id = ?`, existingID); err != nil {
			return "", eris.Wrap(err, "sqlite: remove feedback")
		}
		change = model.FeedbackRemoved
	default:
		fb.ID = existingID
		fb.CreatedAt = now
		_, err = tx.ExecContext(ctx,
			`UPDATE match_feedback SET feedback_type = ?, notes = ?, created_at = ? WHERE id = ?`,
			string(fb.FeedbackType), fb.Notes, now, existingID,
		)
		if err != nil {
			return "", eris.Wrap(err, "sqlite: replace feedback")
		}
		change = model.FeedbackReplaced
	}

	if err := tx.Commit(); err != nil {
		return "", eris.Wrap(err, "sqlite: feedback commit tx")
	}
	return change, nil
}

func (s *SQLiteStore) DeleteFeedback(ctx context.Context, matchResultID, feedbackBy string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM match_feedback WHERE match_result_id = ? AND feedback_by = ?`,
		matchResultID, feedbackBy,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: delete feedback")
	}
	return checkRowsAffected(res, "feedback", matchResultID+"/"+feedbackBy)
}

func (s *SQLiteStore) ListFeedback(ctx context.Context, matchResultID string) ([]model.MatchFeedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, match_result_id, feedback_type, feedback_by, notes, created_at FROM match_feedback WHERE match_result_id = ? ORDER BY created_at`,
		matchResultID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list feedback %s", matchResultID)
	}
	defer rows.Close()

	var out []model.MatchFeedback
	for rows.Next() {
		var fb model.MatchFeedback
		var fbType string
		if err := rows.Scan(&fb.ID, &fb.MatchResultID, &fbType, &fb.FeedbackBy, &fb.Notes, &fb.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan feedback")
		}
		fb.FeedbackType = model.FeedbackType(fbType)
		out = append(out, fb)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list feedback iterate")
}

func (s *SQLiteStore) ListFeedbackForCandidate(ctx context.Context, candidateID string) ([]model.MatchFeedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT f.id, f.match_result_id, f.feedback_type, f.feedback_by, f.notes, f.created_at FROM match_feedback f JOIN match_results m ON m.id = f.match_result_id WHERE m.candidate_id = ? ORDER BY f.created_at`,
		candidateID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list feedback for candidate %s", candidateID)
	}
	defer rows.Close()

	var out []model.MatchFeedback
	for rows.Next() {
		var fb model.MatchFeedback
		var fbType string
		if err := rows.Scan(&fb.ID, &fb.MatchResultID, &fbType, &fb.FeedbackBy, &fb.Notes, &fb.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan feedback")
		}
		fb.FeedbackType = model.FeedbackType(fbType)
		out = append(out, fb)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list candidate feedback iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}
