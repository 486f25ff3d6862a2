package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/classtrack/rollcall/internal/apperrors"
	"github.com/classtrack/rollcall/internal/models"
)

type TeacherRepo struct {
	DB DBTX
}

const createTeacher = `-- name: CreateTeacher
INSERT INTO teachers (id, email, full_name, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, email, full_name, password_hash
`

func (r *TeacherRepo) CreateTeacher(ctx context.Context, email string, fullName string, hashedPassword string) (models.Teacher, error) {
	rows, _ := r.DB.Query(ctx, createTeacher, uuid.New(), email, fullName, hashedPassword)
	teacher, err := pgx.CollectOneRow(rows, rowToTeacher)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return teacher, fmt.Errorf("teacher with email %q already exists", email)
		}

		return teacher, fmt.Errorf("db error: %w", err)
	}

	return teacher, nil
}

const getTeacherByID = `-- name: GetTeacherByID
SELECT id, created_at, email, full_name, password_hash FROM teachers
WHERE id = $1
`

func (r *TeacherRepo) GetTeacherByID(ctx context.Context, id uuid.UUID) (models.Teacher, error) {
	rows, _ := r.DB.Query(ctx, getTeacherByID, id)
	teacher, err := pgx.CollectOneRow(rows, rowToTeacher)

	switch {
	case err == nil:
		return teacher, nil
	case errors.Is(err, pgx.ErrNoRows):
		return teacher, apperrors.ErrTeacherNotFound
	default:
		return teacher, fmt.Errorf("db error: %w", err)
	}
}

const getTeacherByEmail = `-- name: GetTeacherByEmail
SELECT id, created_at, email, full_name, password_hash FROM teachers
WHERE email = $1
`

func (r *TeacherRepo) GetTeacherByEmail(ctx context.Context, email string) (models.Teacher, error) {
	rows, _ := r.DB.Query(ctx, getTeacherByEmail, email)
	teacher, err := pgx.CollectOneRow(rows, rowToTeacher)

	switch {
	case err == nil:
		return teacher, nil
	case errors.Is(err, pgx.ErrNoRows):
		return teacher, apperrors.ErrTeacherNotFound
	default:
		return teacher, fmt.Errorf("db error: %w", err)
	}
}

func rowToTeacher(row pgx.CollectableRow) (models.Teacher, error) {
	var t models.Teacher
	err := row.Scan(&t.ID, &t.CreatedAt, &t.Email, &t.FullName, &t.HashedPassword)
	return t, err
}
