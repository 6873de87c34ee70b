// Package persistence stores a local mirror of task records so reports can
// be rebuilt without reaching Notion.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
	"github.com/GiveMeAjob-job/Bear-Review/internal/shared/infrastructure/database"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS review_records (
		id           TEXT PRIMARY KEY,
		planned_date TEXT NOT NULL,
		status       TEXT NOT NULL,
		payload      TEXT NOT NULL,
		mirrored_at  TEXT NOT NULL
	)`

const indexSQL = `CREATE INDEX IF NOT EXISTS idx_review_records_planned_date ON review_records (planned_date)`

// RecordStore implements domain.RecordMirror on a SQL database. Each record
// is kept as its JSON payload keyed by ID, with the local planned day
// extracted for range queries.
type RecordStore struct {
	conn   database.Connection
	schema domain.RecordSchema
	loc    *time.Location
	now    func() time.Time
}

var _ domain.RecordMirror = (*RecordStore)(nil)

// NewRecordStore creates a record store. Planned days are computed in loc.
func NewRecordStore(conn database.Connection, schema domain.RecordSchema, loc *time.Location) *RecordStore {
	if loc == nil {
		loc = time.UTC
	}
	return &RecordStore{conn: conn, schema: schema, loc: loc, now: time.Now}
}

// Migrate creates the mirror table when it does not exist.
func (s *RecordStore) Migrate(ctx context.Context) error {
	for _, stmt := range []string{schemaSQL, indexSQL} {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate review_records: %w", err)
		}
	}
	return nil
}

// Upsert writes records in one transaction, replacing earlier copies with
// the same ID. Records without an ID or a readable planned date are skipped.
func (s *RecordStore) Upsert(ctx context.Context, records []domain.RawRecord) (int, error) {
	const query = `
		INSERT INTO review_records (id, planned_date, status, payload, mirrored_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			planned_date = excluded.planned_date,
			status = excluded.status,
			payload = excluded.payload,
			mirrored_at = excluded.mirrored_at`

	mirroredAt := s.now().UTC().Format(time.RFC3339)
	written := 0
	err := database.InTx(ctx, s.conn, func(tx database.Executor) error {
		for _, record := range records {
			id := record.ID()
			day, ok := s.plannedDay(record)
			if id == "" || !ok {
				continue
			}
			payload, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("encode record %s: %w", id, err)
			}
			status, _ := record.Label(s.schema.StatusProperty)
			if _, err := tx.Exec(ctx, query, id, day, status, string(payload), mirroredAt); err != nil {
				return fmt.Errorf("upsert record %s: %w", id, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// FetchCompleted returns mirrored completed records planned between the
// local days of from and to inclusive, ordered by day then ID.
func (s *RecordStore) FetchCompleted(ctx context.Context, from, to time.Time) ([]domain.RawRecord, error) {
	const query = `
		SELECT payload FROM review_records
		WHERE planned_date >= ? AND planned_date <= ? AND status = ?
		ORDER BY planned_date, id`

	rows, err := s.conn.Query(ctx, query,
		from.In(s.loc).Format(time.DateOnly),
		to.In(s.loc).Format(time.DateOnly),
		s.schema.DoneLabel,
	)
	if err != nil {
		return nil, fmt.Errorf("query review_records: %w", err)
	}
	defer rows.Close()

	records := []domain.RawRecord{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var record domain.RawRecord
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return nil, fmt.Errorf("decode mirrored record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Count returns the number of mirrored records.
func (s *RecordStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM review_records`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *RecordStore) plannedDay(record domain.RawRecord) (string, bool) {
	start, _ := record.DateRange(s.schema.DateProperty)
	t, ok := domain.ParseTimestamp(start, s.loc)
	if !ok {
		return "", false
	}
	return t.In(s.loc).Format(time.DateOnly), true
}
