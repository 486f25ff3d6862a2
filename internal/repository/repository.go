package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/classtrack/rollcall/internal/models"
)

// Teacher repository interface
type TeacherRepo interface {
	// Create teacher account
	// Email is unique, second create with same email must fail
	CreateTeacher(ctx context.Context, email string, fullName string, hashedPassword string) (models.Teacher, error)

	// Get teacher by id or email
	// If teacher not found must return apperrors.ErrTeacherNotFound
	GetTeacherByID(ctx context.Context, id uuid.UUID) (models.Teacher, error)
	GetTeacherByEmail(ctx context.Context, email string) (models.Teacher, error)
}

// Session repository interface
type SessionRepo interface {
	// Create session with status ACTIVE
	CreateSession(ctx context.Context, teacherID uuid.UUID, subjectLabel string, groupLabel string) (models.Session, error)

	// Get session by id
	// If session not found must return apperrors.ErrSessionNotFound
	GetSession(ctx context.Context, id uuid.UUID) (models.Session, error)

	// Set session status to INACTIVE and return it
	// Closing an already closed session is not an error
	CloseSession(ctx context.Context, id uuid.UUID) (models.Session, error)
}

// Student repository interface
type StudentRepo interface {
	// Find student by its number or create it in a single atomic statement.
	// Never a separate read followed by a separate write: concurrent calls
	// with the same number must resolve to the same row.
	GetOrCreateStudent(ctx context.Context, studentNumber string, fullName string) (models.Student, error)
}

// Attendance records repository interface
type AttendanceRepo interface {
	// Insert a record for (studentID, sessionID) if absent, atomically.
	// When a record already exists it is returned unchanged with
	// created=false and no write happens.
	CreateRecord(ctx context.Context, studentID uuid.UUID, sessionID uuid.UUID, payload models.AttendancePayload) (rec models.AttendanceRecord, created bool, err error)

	// List records of a session with their student identities,
	// oldest first
	ListSessionRecords(ctx context.Context, sessionID uuid.UUID) ([]models.AttendanceEntry, error)
}

type Storage interface {
	Teacher() TeacherRepo
	Session() SessionRepo
	Student() StudentRepo
	Attendance() AttendanceRepo

	InTx(ctx context.Context, fn func(Storage) error) error
}
