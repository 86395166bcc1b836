package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/pulseboard/internal/db/driver"
	"github.com/randalmurphal/pulseboard/internal/task"
)

// taskColumns is the canonical column list for task reads.
const taskColumns = `external_id, name, status, task_status, active, added, modified,
	completed, completion_date, due_date, note, tags, raw_data, imported_at`

// upsertTaskQuery writes one record keyed by external_id. On conflict
// every mutable field is overwritten; the identifier itself is never
// updated.
const upsertTaskQuery = `
	INSERT INTO tasks (external_id, name, status, task_status, active, added, modified,
		completed, completion_date, due_date, note, tags, raw_data, imported_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(external_id) DO UPDATE SET
		name = excluded.name,
		status = excluded.status,
		task_status = excluded.task_status,
		active = excluded.active,
		added = excluded.added,
		modified = excluded.modified,
		completed = excluded.completed,
		completion_date = excluded.completion_date,
		due_date = excluded.due_date,
		note = excluded.note,
		tags = excluded.tags,
		raw_data = excluded.raw_data,
		imported_at = excluded.imported_at
`

// UpsertTasks writes a batch of records in a single transaction.
// Returns the number of rows written (inserts plus updates). An empty
// batch is a no-op success: zero rows, no transaction.
func (d *DB) UpsertTasks(ctx context.Context, records []task.Task) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := d.rebind(upsertTaskQuery)
	written := 0
	for _, r := range records {
		tagsJSON, err := marshalTags(r.Tags)
		if err != nil {
			return 0, fmt.Errorf("marshal tags for %s: %w", r.ExternalID, err)
		}

		if _, err := tx.Exec(ctx, query,
			r.ExternalID, r.Name,
			nullString(r.Status), nullString(r.TaskStatus), nullBool(r.Active),
			nullTime(r.Added), nullTime(r.Modified),
			nullTime(r.Completed), nullTime(r.CompletionDate), nullTime(r.DueDate),
			nullString(r.Note), tagsJSON, r.RawData,
			r.ImportedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return 0, fmt.Errorf("upsert task %s: %w", r.ExternalID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return written, nil
}

// ListTasks returns every stored record ordered by most recent write
// time. This is the display read path; aggregation happens in Go over
// the returned records.
func (d *DB) ListTasks(ctx context.Context) ([]task.Task, error) {
	rows, err := d.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM tasks
		ORDER BY imported_at DESC, external_id
	`, taskColumns))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// GetTask retrieves a record by external ID. Returns nil when absent.
func (d *DB) GetTask(ctx context.Context, externalID string) (*task.Task, error) {
	rows, err := d.QueryContext(ctx, d.rebind(fmt.Sprintf(`
		SELECT %s FROM tasks WHERE external_id = ?
	`, taskColumns)), externalID)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", externalID, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get task %s: %w", externalID, err)
		}
		return nil, nil
	}
	t, err := scanTask(rows)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CountTasks returns the total number of stored records.
func (d *DB) CountTasks(ctx context.Context) (int, error) {
	var n int
	if err := d.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// CountCompleted returns the number of records whose effective status
// is "completed", case-insensitively. Matches the aggregator's filter.
func (d *DB) CountCompleted(ctx context.Context) (int, error) {
	var n int
	if err := d.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE LOWER(COALESCE(NULLIF(status, ''), task_status, '')) = 'completed'
	`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count completed tasks: %w", err)
	}
	return n, nil
}

// rebind rewrites ? placeholders to the dialect's form. SQLite takes
// the query unchanged; Postgres gets $1..$n.
func (d *DB) rebind(query string) string {
	if d.Dialect() != driver.DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// scanTask reads one row into a canonical record.
func scanTask(rows *sql.Rows) (task.Task, error) {
	var t task.Task
	var status, taskStatus, note, tags sql.NullString
	var active sql.NullInt64
	var added, modified, completed, completionDate, dueDate sql.NullString
	var importedAt string

	if err := rows.Scan(
		&t.ExternalID, &t.Name, &status, &taskStatus, &active,
		&added, &modified, &completed, &completionDate, &dueDate,
		&note, &tags, &t.RawData, &importedAt,
	); err != nil {
		return task.Task{}, fmt.Errorf("scan task: %w", err)
	}

	t.Status = stringPtr(status)
	t.TaskStatus = stringPtr(taskStatus)
	t.Note = stringPtr(note)
	t.Active = boolPtr(active)
	t.Added = timePtr(added)
	t.Modified = timePtr(modified)
	t.Completed = timePtr(completed)
	t.CompletionDate = timePtr(completionDate)
	t.DueDate = timePtr(dueDate)

	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &t.Tags); err != nil {
			return task.Task{}, fmt.Errorf("unmarshal tags for %s: %w", t.ExternalID, err)
		}
	}

	ts, err := time.Parse(time.RFC3339, importedAt)
	if err != nil {
		return task.Task{}, fmt.Errorf("parse imported_at for %s: %w", t.ExternalID, err)
	}
	t.ImportedAt = ts

	return t, nil
}

func marshalTags(tags []string) (any, error) {
	if tags == nil {
		return nil, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullBool(b *bool) any {
	if b == nil {
		return nil
	}
	if *b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func boolPtr(n sql.NullInt64) *bool {
	if !n.Valid {
		return nil
	}
	v := n.Int64 != 0
	return &v
}

func timePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &ts
}
