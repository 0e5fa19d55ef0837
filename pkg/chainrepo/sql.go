package chainrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/omniforge/agentcore/pkg/reasoning"
)

// Dialect identifies the SQL placeholder style and driver name a
// SQLRepository should use, mirroring pkg/task's SQLRepository.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// SQLRepository is a Repository backed by any database/sql driver
// supporting the three dialects above. Steps, metrics, and child-chain
// ids are stored as JSON columns; chain identity/status/timestamps get
// their own columns so ListByTenant/status filtering can use plain SQL
// predicates without decoding JSON per row.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLRepository opens (and pings) a database/sql connection and
// ensures the chains table exists.
func OpenSQLRepository(ctx context.Context, dialect Dialect, dsn string) (*SQLRepository, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("chainrepo: open %s: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("chainrepo: ping %s: %w", dialect, err)
	}

	r := &SQLRepository{db: db, dialect: dialect}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reasoning_chains (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			tenant_id TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			steps TEXT NOT NULL,
			metrics TEXT NOT NULL,
			child_chain_ids TEXT NOT NULL,
			tenant_policy_snapshot TEXT
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("chainrepo: create schema: %w", err)
	}
	return r, nil
}

func (r *SQLRepository) Close() error { return r.db.Close() }

func (r *SQLRepository) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *SQLRepository) Save(ctx context.Context, s reasoning.Snapshot) error {
	stepsJSON, err := json.Marshal(s.Steps)
	if err != nil {
		return fmt.Errorf("chainrepo: marshal steps: %w", err)
	}
	metricsJSON, err := json.Marshal(s.Metrics)
	if err != nil {
		return fmt.Errorf("chainrepo: marshal metrics: %w", err)
	}
	childrenJSON, err := json.Marshal(s.ChildChainIDs)
	if err != nil {
		return fmt.Errorf("chainrepo: marshal children: %w", err)
	}
	var policyJSON []byte
	if s.TenantPolicySnapshot != nil {
		policyJSON, err = json.Marshal(s.TenantPolicySnapshot)
		if err != nil {
			return fmt.Errorf("chainrepo: marshal policy snapshot: %w", err)
		}
	}

	var completedAt sql.NullTime
	if s.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *s.CompletedAt, Valid: true}
	}

	query := `
		INSERT INTO reasoning_chains (id, task_id, agent_id, tenant_id, status, started_at, completed_at, steps, metrics, child_chain_ids, tenant_policy_snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	switch r.dialect {
	case DialectPostgres:
		query += ` ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, completed_at = EXCLUDED.completed_at, steps = EXCLUDED.steps, metrics = EXCLUDED.metrics, child_chain_ids = EXCLUDED.child_chain_ids`
	case DialectMySQL:
		query += ` ON DUPLICATE KEY UPDATE status = VALUES(status), completed_at = VALUES(completed_at), steps = VALUES(steps), metrics = VALUES(metrics), child_chain_ids = VALUES(child_chain_ids)`
	default:
		query = strings.Replace(query, "INSERT INTO", "INSERT OR REPLACE INTO", 1)
	}

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		s.ID, s.TaskID, s.AgentID, s.TenantID, string(s.Status), s.StartedAt, completedAt,
		stepsJSON, metricsJSON, childrenJSON, nullableBytes(policyJSON))
	if err != nil {
		return fmt.Errorf("chainrepo: save: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, chainID string) (*reasoning.Snapshot, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`
		SELECT id, task_id, agent_id, tenant_id, status, started_at, completed_at, steps, metrics, child_chain_ids, tenant_policy_snapshot
		FROM reasoning_chains WHERE id = ?
	`), chainID)
	return scanSnapshot(row.Scan)
}

func (r *SQLRepository) GetByTask(ctx context.Context, taskID string) ([]reasoning.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`
		SELECT id, task_id, agent_id, tenant_id, status, started_at, completed_at, steps, metrics, child_chain_ids, tenant_policy_snapshot
		FROM reasoning_chains WHERE task_id = ? ORDER BY started_at ASC
	`), taskID)
	if err != nil {
		return nil, fmt.Errorf("chainrepo: get by task: %w", err)
	}
	defer rows.Close()

	var out []reasoning.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SQLRepository) ListByTenant(ctx context.Context, tenantID string, status reasoning.Status, limit, offset int) ([]Summary, error) {
	query := `SELECT id, task_id, agent_id, tenant_id, status, metrics FROM reasoning_chains WHERE tenant_id = ?`
	args := []any{tenantID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(limit)
	}
	if offset > 0 {
		query += ` OFFSET ` + strconv.Itoa(offset)
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("chainrepo: list by tenant: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum         Summary
			statusStr   string
			metricsJSON []byte
		)
		if err := rows.Scan(&sum.ID, &sum.TaskID, &sum.AgentID, &sum.TenantID, &statusStr, &metricsJSON); err != nil {
			return nil, fmt.Errorf("chainrepo: scan summary: %w", err)
		}
		sum.Status = reasoning.Status(statusStr)
		if err := json.Unmarshal(metricsJSON, &sum.Metrics); err != nil {
			return nil, fmt.Errorf("chainrepo: unmarshal metrics: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (r *SQLRepository) Delete(ctx context.Context, chainID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM reasoning_chains WHERE id = ?`), chainID)
	if err != nil {
		return false, fmt.Errorf("chainrepo: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("chainrepo: delete rows affected: %w", err)
	}
	return n > 0, nil
}

func nullableBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

func scanSnapshot(scan func(dest ...any) error) (*reasoning.Snapshot, error) {
	var (
		s                                         reasoning.Snapshot
		statusStr                                 string
		startedAt                                 time.Time
		completedAt                               sql.NullTime
		stepsJSON, metricsJSON, childrenJSON       []byte
		policyJSON                                 sql.NullString
	)

	err := scan(&s.ID, &s.TaskID, &s.AgentID, &s.TenantID, &statusStr, &startedAt, &completedAt, &stepsJSON, &metricsJSON, &childrenJSON, &policyJSON)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chainrepo: scan: %w", err)
	}

	s.Status = reasoning.Status(statusStr)
	s.StartedAt = startedAt
	if completedAt.Valid {
		s.CompletedAt = &completedAt.Time
	}
	if err := json.Unmarshal(stepsJSON, &s.Steps); err != nil {
		return nil, fmt.Errorf("chainrepo: unmarshal steps: %w", err)
	}
	if err := json.Unmarshal(metricsJSON, &s.Metrics); err != nil {
		return nil, fmt.Errorf("chainrepo: unmarshal metrics: %w", err)
	}
	if err := json.Unmarshal(childrenJSON, &s.ChildChainIDs); err != nil {
		return nil, fmt.Errorf("chainrepo: unmarshal children: %w", err)
	}
	if policyJSON.Valid {
		if err := json.Unmarshal([]byte(policyJSON.String), &s.TenantPolicySnapshot); err != nil {
			return nil, fmt.Errorf("chainrepo: unmarshal policy snapshot: %w", err)
		}
	}

	return &s, nil
}

var _ Repository = (*SQLRepository)(nil)
