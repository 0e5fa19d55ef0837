package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	// Drivers registered for their side effect of calling sql.Register;
	// callers pick one via dialect + DSN when constructing the store.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect identifies the SQL placeholder style and driver name a
// SQLRepository should use, since database/sql itself has no notion of
// either.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// SQLRepository is a Repository backed by any database/sql driver that
// supports the three dialects above, grounded on the teacher pack's
// database/sql store pattern (e.g. internal/tasks/cockroach.go in the
// haasonsaas-nexus example): a thin layer translating Record fields to
// columns and back, with JSON columns for the nested Messages/Artifacts/
// Labels collections.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLRepository opens (and pings) a database/sql connection for the
// given dialect+DSN, then ensures the tasks table exists.
func OpenSQLRepository(ctx context.Context, dialect Dialect, dsn string) (*SQLRepository, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("task: open %s: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("task: ping %s: %w", dialect, err)
	}

	r := &SQLRepository{db: db, dialect: dialect}
	if err := r.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLRepository) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			tenant_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			state TEXT NOT NULL,
			messages TEXT NOT NULL,
			artifacts TEXT NOT NULL,
			error TEXT NOT NULL,
			parent_task_id TEXT,
			skill_name TEXT NOT NULL,
			labels TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("task: create schema: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (r *SQLRepository) Close() error { return r.db.Close() }

// placeholder returns the n-th (1-based) positional placeholder for the
// repository's dialect.
func (r *SQLRepository) placeholder(n int) string {
	if r.dialect == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (r *SQLRepository) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r2 := range query {
		if r2 == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r2)
	}
	return b.String()
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.rebind(query), args...)
}

func (r *SQLRepository) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, r.rebind(query), args...)
}

func (r *SQLRepository) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.db.QueryRowContext(ctx, r.rebind(query), args...)
}

func recordToRow(rec Record) (messagesJSON, artifactsJSON, labelsJSON []byte, parentTaskID sql.NullString, err error) {
	messagesJSON, err = json.Marshal(rec.Messages)
	if err != nil {
		return nil, nil, nil, sql.NullString{}, fmt.Errorf("task: marshal messages: %w", err)
	}
	artifactsJSON, err = json.Marshal(rec.Artifacts)
	if err != nil {
		return nil, nil, nil, sql.NullString{}, fmt.Errorf("task: marshal artifacts: %w", err)
	}
	labelsJSON, err = json.Marshal(rec.Labels)
	if err != nil {
		return nil, nil, nil, sql.NullString{}, fmt.Errorf("task: marshal labels: %w", err)
	}
	if rec.ParentTaskID != nil {
		parentTaskID = sql.NullString{String: *rec.ParentTaskID, Valid: true}
	}
	return messagesJSON, artifactsJSON, labelsJSON, parentTaskID, nil
}

func (r *SQLRepository) upsert(ctx context.Context, t *Task) error {
	rec := t.Record()
	messagesJSON, artifactsJSON, labelsJSON, parentTaskID, err := recordToRow(rec)
	if err != nil {
		return err
	}

	switch r.dialect {
	case DialectPostgres:
		_, err = r.exec(ctx, `
			INSERT INTO tasks (id, agent_id, tenant_id, user_id, state, messages, artifacts, error, parent_task_id, skill_name, labels, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				state = EXCLUDED.state, messages = EXCLUDED.messages, artifacts = EXCLUDED.artifacts,
				error = EXCLUDED.error, labels = EXCLUDED.labels, updated_at = EXCLUDED.updated_at
		`, rec.ID, rec.AgentID, rec.TenantID, rec.UserID, string(rec.State), messagesJSON, artifactsJSON, rec.Error, parentTaskID, rec.SkillName, labelsJSON, rec.CreatedAt, rec.UpdatedAt)
	case DialectMySQL:
		_, err = r.exec(ctx, `
			INSERT INTO tasks (id, agent_id, tenant_id, user_id, state, messages, artifacts, error, parent_task_id, skill_name, labels, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				state = VALUES(state), messages = VALUES(messages), artifacts = VALUES(artifacts),
				error = VALUES(error), labels = VALUES(labels), updated_at = VALUES(updated_at)
		`, rec.ID, rec.AgentID, rec.TenantID, rec.UserID, string(rec.State), messagesJSON, artifactsJSON, rec.Error, parentTaskID, rec.SkillName, labelsJSON, rec.CreatedAt, rec.UpdatedAt)
	default:
		_, err = r.exec(ctx, `
			INSERT OR REPLACE INTO tasks (id, agent_id, tenant_id, user_id, state, messages, artifacts, error, parent_task_id, skill_name, labels, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.ID, rec.AgentID, rec.TenantID, rec.UserID, string(rec.State), messagesJSON, artifactsJSON, rec.Error, parentTaskID, rec.SkillName, labelsJSON, rec.CreatedAt, rec.UpdatedAt)
	}
	if err != nil {
		return fmt.Errorf("task: upsert: %w", err)
	}
	return nil
}

func (r *SQLRepository) Save(ctx context.Context, t *Task) error {
	if parent := t.ParentTaskID(); parent != nil {
		var count int
		row := r.queryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE id = ? AND tenant_id = ?`, *parent, t.TenantID())
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("task: check parent: %w", err)
		}
		if count == 0 {
			return ErrParentNotFound
		}
	}
	return r.upsert(ctx, t)
}

func (r *SQLRepository) Update(ctx context.Context, t *Task) error {
	existing, err := r.Get(ctx, t.TenantID(), t.ID())
	if err != nil {
		return err
	}
	_ = existing
	return r.upsert(ctx, t)
}

func (r *SQLRepository) Get(ctx context.Context, tenantID, id string) (*Task, error) {
	row := r.queryRow(ctx, `
		SELECT id, agent_id, tenant_id, user_id, state, messages, artifacts, error, parent_task_id, skill_name, labels, created_at, updated_at
		FROM tasks WHERE id = ? AND tenant_id = ?
	`, id, tenantID)
	return scanTaskRow(row.Scan)
}

func (r *SQLRepository) Delete(ctx context.Context, tenantID, id string) error {
	res, err := r.exec(ctx, `DELETE FROM tasks WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return fmt.Errorf("task: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("task: delete rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepository) ListByAgent(ctx context.Context, tenantID, agentID string, limit int) ([]*Task, error) {
	return r.list(ctx, `WHERE tenant_id = ? AND agent_id = ? ORDER BY created_at DESC`, limit, 0, tenantID, agentID)
}

func (r *SQLRepository) ListByParent(ctx context.Context, tenantID, parentID string, limit int) ([]*Task, error) {
	return r.list(ctx, `WHERE tenant_id = ? AND parent_task_id = ? ORDER BY created_at DESC`, limit, 0, tenantID, parentID)
}

func (r *SQLRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*Task, error) {
	return r.list(ctx, `WHERE tenant_id = ? ORDER BY created_at DESC`, limit, offset, tenantID)
}

func (r *SQLRepository) ListBySkill(ctx context.Context, tenantID, skillName string, limit int) ([]*Task, error) {
	return r.list(ctx, `WHERE tenant_id = ? AND skill_name = ? ORDER BY created_at DESC`, limit, 0, tenantID, skillName)
}

func (r *SQLRepository) list(ctx context.Context, whereAndOrder string, limit, offset int, args ...any) ([]*Task, error) {
	query := `SELECT id, agent_id, tenant_id, user_id, state, messages, artifacts, error, parent_task_id, skill_name, labels, created_at, updated_at FROM tasks ` + whereAndOrder
	if limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(limit)
	}
	if offset > 0 {
		query += ` OFFSET ` + strconv.Itoa(offset)
	}

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		t, err := scanTaskRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTaskRow(scan func(dest ...any) error) (*Task, error) {
	var (
		rec                                    Record
		state                                  string
		messagesJSON, artifactsJSON, labelsJSON []byte
		parentTaskID                           sql.NullString
		createdAt, updatedAt                   time.Time
	)

	err := scan(&rec.ID, &rec.AgentID, &rec.TenantID, &rec.UserID, &state, &messagesJSON, &artifactsJSON, &rec.Error, &parentTaskID, &rec.SkillName, &labelsJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("task: scan: %w", err)
	}

	rec.State = State(state)
	rec.CreatedAt = createdAt
	rec.UpdatedAt = updatedAt
	if parentTaskID.Valid {
		id := parentTaskID.String
		rec.ParentTaskID = &id
	}
	if err := json.Unmarshal(messagesJSON, &rec.Messages); err != nil {
		return nil, fmt.Errorf("task: unmarshal messages: %w", err)
	}
	if err := json.Unmarshal(artifactsJSON, &rec.Artifacts); err != nil {
		return nil, fmt.Errorf("task: unmarshal artifacts: %w", err)
	}
	if err := json.Unmarshal(labelsJSON, &rec.Labels); err != nil {
		return nil, fmt.Errorf("task: unmarshal labels: %w", err)
	}

	return FromRecord(rec), nil
}

var _ Repository = (*SQLRepository)(nil)
