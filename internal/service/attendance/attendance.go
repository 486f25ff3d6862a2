// Package attendance is the redemption decision point: given a validated
// session and an extracted student identity it records presence at most once
// per (student, session) pair.
package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/classtrack/rollcall/internal/apperrors"
	"github.com/classtrack/rollcall/internal/logger"
	"github.com/classtrack/rollcall/internal/models"
	"github.com/classtrack/rollcall/internal/repository"
)

const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"

	ReasonSessionNotActive = "session_not_active"
	ReasonStorageError     = "storage_error"
)

// Identity extracted from the scanned credential. The student number is the
// natural key, the rest is capture metadata.
type Identity struct {
	StudentNumber string
	FullName      string
	SourceURL     string
}

// Result of one redemption attempt. Duplicate is a normal terminal outcome,
// not a failure: the previously recorded identity comes back with it.
type Result struct {
	Outcome string

	// Reason is set for rejected outcomes only
	Reason string

	Record  models.AttendanceRecord
	Student models.Student
}

type Service struct {
	storage repository.Storage
	logger  logger.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(storage repository.Storage, l logger.Logger, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		logger:  l,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Record redeems one attendance attempt. It never returns an error to its
// caller: persistence failures collapse into a rejected outcome and the
// underlying error stays in the logs.
//
// Check order is fixed: the session gate runs first and is independent of
// token expiry, a session closed early rejects structurally valid tokens.
func (s *Service) Record(ctx context.Context, sessionID uuid.UUID, identity Identity) Result {
	session, err := s.storage.Session().GetSession(ctx, sessionID)
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		return Result{Outcome: OutcomeRejected, Reason: ReasonSessionNotActive}
	case err != nil:
		s.logger.Error("session lookup failed", "session_id", sessionID, "error", err.Error())
		return Result{Outcome: OutcomeRejected, Reason: ReasonStorageError}
	case !session.IsActive():
		return Result{Outcome: OutcomeRejected, Reason: ReasonSessionNotActive}
	}

	student, err := s.storage.Student().GetOrCreateStudent(ctx, identity.StudentNumber, identity.FullName)
	if err != nil {
		s.logger.Error("student resolve failed", "student_number", identity.StudentNumber, "error", err.Error())
		return Result{Outcome: OutcomeRejected, Reason: ReasonStorageError}
	}

	payload := models.AttendancePayload{
		StudentNumber: identity.StudentNumber,
		FullName:      identity.FullName,
		SourceURL:     identity.SourceURL,
		ScannedAt:     s.now().UTC(),
	}

	record, created, err := s.storage.Attendance().CreateRecord(ctx, student.ID, sessionID, payload)
	if err != nil {
		s.logger.Error("attendance insert failed", "student_id", student.ID, "session_id", sessionID, "error", err.Error())
		return Result{Outcome: OutcomeRejected, Reason: ReasonStorageError}
	}

	if !created {
		s.logger.Info("duplicate attendance attempt", "student_id", student.ID, "session_id", sessionID)
		return Result{Outcome: OutcomeDuplicate, Record: record, Student: student}
	}

	s.logger.Info("attendance recorded", "student_id", student.ID, "session_id", sessionID, "record_id", record.ID)
	return Result{Outcome: OutcomeAccepted, Record: record, Student: student}
}
