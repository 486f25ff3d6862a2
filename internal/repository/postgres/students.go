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

type StudentRepo struct {
	DB DBTX
}

// Insert the student or, when the number is taken already, return the
// existing row. Single statement, so two concurrent calls with the same
// number both land on the same row.
const getOrCreateStudent = `-- name: GetOrCreateStudent
WITH inserted AS (
	INSERT INTO students (id, created_at, student_number, full_name)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (student_number) DO NOTHING
	RETURNING id, created_at, student_number, full_name
)
SELECT * FROM inserted
UNION
SELECT id, created_at, student_number, full_name FROM students WHERE student_number = $3
`

const getStudentByNumber = `-- name: GetStudentByNumber
SELECT id, created_at, student_number, full_name FROM students WHERE student_number = $1
`

func (r *StudentRepo) GetOrCreateStudent(ctx context.Context, studentNumber string, fullName string) (models.Student, error) {
	rows, _ := r.DB.Query(ctx, getOrCreateStudent, uuid.New(), time.Now(), studentNumber, fullName)
	student, err := pgx.CollectOneRow(rows, rowToStudent)

	switch {
	case err == nil:
		return student, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Lost the insert to a statement that committed after our snapshot
		// was taken, so the read-back branch saw nothing. Re-read with a
		// fresh snapshot.
		rows, _ := r.DB.Query(ctx, getStudentByNumber, studentNumber)
		student, err = pgx.CollectOneRow(rows, rowToStudent)
		if err != nil {
			return student, fmt.Errorf("db error: %w", err)
		}
		return student, nil
	default:
		return student, fmt.Errorf("db error: %w", err)
	}
}

func rowToStudent(row pgx.CollectableRow) (models.Student, error) {
	var s models.Student
	err := row.Scan(&s.ID, &s.CreatedAt, &s.StudentNumber, &s.FullName)
	return s, err
}
