package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"wanlens/internal/domain"
	"wanlens/internal/repository"
)

// timeLayout is how timestamps are stored in TEXT columns. It is fixed
// width so lexical order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// formatTime renders t in UTC for storage
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a stored timestamp; empty yields the zero time
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// runColumns is the SELECT column list for run queries.
// Order must match runRow.scanArgs.
const runColumns = `id, generated_at, source, summary, created_at`

// runRow holds the columns of a run query for scanning
type runRow struct {
	ID          string
	GeneratedAt string
	Source      sql.NullString
	SummaryJSON sql.NullString
	CreatedAt   string
}

// scanArgs returns pointers to all fields for sql.Scan()
func (r *runRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,
		&r.GeneratedAt,
		&r.Source,
		&r.SummaryJSON,
		&r.CreatedAt,
	}
}

// toDomain converts the scanned row to a repository.Run
func (r *runRow) toDomain() (*repository.Run, error) {
	run := &repository.Run{
		ID:     r.ID,
		Source: nullToString(r.Source),
	}

	var err error
	if run.GeneratedAt, err = parseTime(r.GeneratedAt); err != nil {
		return nil, fmt.Errorf("parse generated_at: %w", err)
	}
	if run.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	var summary domain.Summary
	if err := unmarshalJSONField(r.SummaryJSON, &summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	run.Summary = summary

	return run, nil
}
