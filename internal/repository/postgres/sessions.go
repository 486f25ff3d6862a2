package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/classtrack/rollcall/internal/apperrors"
	"github.com/classtrack/rollcall/internal/models"
)

type SessionRepo struct {
	DB DBTX
}

const createSession = `-- name: CreateSession
INSERT INTO sessions (id, created_at, teacher_id, subject_label, group_label, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, teacher_id, subject_label, group_label, status
`

func (r *SessionRepo) CreateSession(ctx context.Context, teacherID uuid.UUID, subjectLabel string, groupLabel string) (models.Session, error) {
	rows, _ := r.DB.Query(ctx, createSession, uuid.New(), time.Now(), teacherID, subjectLabel, groupLabel, models.SessionActive)
	session, err := pgx.CollectOneRow(rows, rowToSession)

	if err != nil {
		return session, fmt.Errorf("db error: %w", err)
	}

	return session, nil
}

const getSession = `-- name: GetSession
SELECT id, created_at, teacher_id, subject_label, group_label, status FROM sessions
WHERE id = $1
`

func (r *SessionRepo) GetSession(ctx context.Context, id uuid.UUID) (models.Session, error) {
	rows, _ := r.DB.Query(ctx, getSession, id)
	session, err := pgx.CollectOneRow(rows, rowToSession)

	switch {
	case err == nil:
		return session, nil
	case errors.Is(err, pgx.ErrNoRows):
		return session, apperrors.ErrSessionNotFound
	default:
		return session, fmt.Errorf("db error: %w", err)
	}
}

const closeSession = `-- name: CloseSession
UPDATE sessions
SET status = $2
WHERE id = $1
RETURNING id, created_at, teacher_id, subject_label, group_label, status
`

func (r *SessionRepo) CloseSession(ctx context.Context, id uuid.UUID) (models.Session, error) {
	rows, _ := r.DB.Query(ctx, closeSession, id, models.SessionInactive)
	session, err := pgx.CollectOneRow(rows, rowToSession)

	switch {
	case err == nil:
		return session, nil
	case errors.Is(err, pgx.ErrNoRows):
		return session, apperrors.ErrSessionNotFound
	default:
		return session, fmt.Errorf("db error: %w", err)
	}
}

func rowToSession(row pgx.CollectableRow) (models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.CreatedAt, &s.TeacherID, &s.SubjectLabel, &s.GroupLabel, &s.Status)
	return s, err
}
