package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/classtrack/rollcall/internal/models"
)

type AttendanceRepo struct {
	DB DBTX
}

// Insert the record if absent, otherwise return the existing one as is.
// The attendance_once_per_session constraint makes the insert race-free:
// of N concurrent attempts exactly one row wins, everyone else reads it back.
const createRecord = `-- name: CreateRecord
WITH inserted AS (
	INSERT INTO attendance_records (id, created_at, student_id, session_id, payload)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT ON CONSTRAINT attendance_once_per_session DO NOTHING
	RETURNING id, created_at, student_id, session_id, payload
)
SELECT * FROM inserted
UNION
SELECT id, created_at, student_id, session_id, payload FROM attendance_records
WHERE student_id = $3 AND session_id = $4
`

const getRecord = `-- name: GetRecord
SELECT id, created_at, student_id, session_id, payload FROM attendance_records
WHERE student_id = $1 AND session_id = $2
`

func (r *AttendanceRepo) CreateRecord(ctx context.Context, studentID uuid.UUID, sessionID uuid.UUID, payload models.AttendancePayload) (models.AttendanceRecord, bool, error) {
	recordID := uuid.New()

	rows, _ := r.DB.Query(ctx, createRecord, recordID, time.Now(), studentID, sessionID, payload)
	record, err := pgx.CollectOneRow(rows, rowToRecord)

	switch {
	case err == nil:
		// Our id came back means our insert won, anything else is a pre-existing record
		return record, record.ID == recordID, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Lost the insert to a statement that committed after our snapshot
		// was taken: ON CONFLICT saw the winner through the index and
		// skipped, but the read-back branch could not see the row yet.
		// A fresh statement gets a fresh snapshot and finds it.
		rows, _ := r.DB.Query(ctx, getRecord, studentID, sessionID)
		record, err = pgx.CollectOneRow(rows, rowToRecord)
		if err != nil {
			return record, false, fmt.Errorf("db error: %w", err)
		}
		return record, false, nil
	default:
		return record, false, fmt.Errorf("db error: %w", err)
	}
}

const listSessionRecords = `-- name: ListSessionRecords
SELECT r.id, r.created_at, r.student_id, r.session_id, r.payload,
       s.id, s.created_at, s.student_number, s.full_name
FROM attendance_records r
JOIN students s ON s.id = r.student_id
WHERE r.session_id = $1
ORDER BY r.created_at
`

func (r *AttendanceRepo) ListSessionRecords(ctx context.Context, sessionID uuid.UUID) ([]models.AttendanceEntry, error) {
	rows, _ := r.DB.Query(ctx, listSessionRecords, sessionID)
	entries, err := pgx.CollectRows(rows, rowToEntry)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}

func rowToRecord(row pgx.CollectableRow) (models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.StudentID, &rec.SessionID, &rec.Payload)
	return rec, err
}

func rowToEntry(row pgx.CollectableRow) (models.AttendanceEntry, error) {
	var e models.AttendanceEntry
	err := row.Scan(
		&e.Record.ID, &e.Record.CreatedAt, &e.Record.StudentID, &e.Record.SessionID, &e.Record.Payload,
		&e.Student.ID, &e.Student.CreatedAt, &e.Student.StudentNumber, &e.Student.FullName,
	)
	return e, err
}
