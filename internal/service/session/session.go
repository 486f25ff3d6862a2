// Package session owns the attendance session lifecycle: opening a session,
// issuing its signed QR token, validating scanned tokens and closing the
// session early.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/classtrack/rollcall/internal/apperrors"
	"github.com/classtrack/rollcall/internal/logger"
	"github.com/classtrack/rollcall/internal/models"
	"github.com/classtrack/rollcall/internal/qrimg"
	"github.com/classtrack/rollcall/internal/repository"
	"github.com/classtrack/rollcall/internal/token"
)

const (
	// Validity window bounds enforced at the issuance boundary
	MinValidityMinutes     = 1
	MaxValidityMinutes     = 180
	DefaultValidityMinutes = 90
)

// IssuedQR bundles everything the teacher's screen needs to show one code
type IssuedQR struct {
	Session models.Session
	Token   token.Issued
	// QR image as a data URL, display detail only, not part of the
	// cryptographic contract
	QRDataURL string
}

// ValidationResult is the validation boundary's answer: the token verdict
// plus, for tokens that pass everything, the session's display fields.
type ValidationResult struct {
	Verdict token.Verdict

	// Reason repeats Verdict.Reason except for the one case the verdict
	// cannot see: a verified, unexpired token whose session was closed
	// early reads session_not_active here.
	Reason  string
	Session *models.Session
}

const ReasonSessionNotActive = "session_not_active"

type Service struct {
	sessionRepo    repository.SessionRepo
	attendanceRepo repository.AttendanceRepo
	codec          *token.Codec
	validator      *token.Validator
	logger         logger.Logger
	qrSize         int
}

func NewService(sessionRepo repository.SessionRepo, attendanceRepo repository.AttendanceRepo, codec *token.Codec, validator *token.Validator, l logger.Logger) *Service {
	return &Service{
		sessionRepo:    sessionRepo,
		attendanceRepo: attendanceRepo,
		codec:          codec,
		validator:      validator,
		logger:         l,
		qrSize:         qrimg.DefaultSize,
	}
}

// Create opens a new ACTIVE session for the teacher and issues its first QR
func (s *Service) Create(ctx context.Context, teacherID uuid.UUID, subjectLabel string, groupLabel string, validityMinutes int) (IssuedQR, error) {
	session, err := s.sessionRepo.CreateSession(ctx, teacherID, subjectLabel, groupLabel)
	if err != nil {
		return IssuedQR{}, fmt.Errorf("error while creating session. Err: %w", err)
	}

	return s.issueFor(session, validityMinutes)
}

// IssueQR re-issues a fresh token for an existing session. The session must
// belong to the teacher and still be ACTIVE.
func (s *Service) IssueQR(ctx context.Context, teacherID uuid.UUID, sessionID uuid.UUID, validityMinutes int) (IssuedQR, error) {
	session, err := s.getOwned(ctx, teacherID, sessionID)
	if err != nil {
		return IssuedQR{}, err
	}

	if !session.IsActive() {
		return IssuedQR{}, apperrors.ErrSessionNotActive
	}

	return s.issueFor(session, validityMinutes)
}

func (s *Service) issueFor(session models.Session, validityMinutes int) (IssuedQR, error) {
	issued := s.codec.Issue(session.ID.String(), validityMinutes)

	dataURL, err := qrimg.DataURL(issued.URL, s.qrSize)
	if err != nil {
		return IssuedQR{}, fmt.Errorf("error while rendering qr image. Err: %w", err)
	}

	return IssuedQR{
		Session:   session,
		Token:     issued,
		QRDataURL: dataURL,
	}, nil
}

// Close marks the teacher's session INACTIVE. Tokens that are still inside
// their validity window stop being redeemable immediately.
func (s *Service) Close(ctx context.Context, teacherID uuid.UUID, sessionID uuid.UUID) (models.Session, error) {
	if _, err := s.getOwned(ctx, teacherID, sessionID); err != nil {
		return models.Session{}, err
	}

	return s.sessionRepo.CloseSession(ctx, sessionID)
}

// ValidateToken runs the full validation boundary: cryptographic verdict
// first, then the session gate. The gate applies only to tokens the
// validator already accepted, so a forged token for a closed session still
// reads invalid_signature.
func (s *Service) ValidateToken(ctx context.Context, sessionID string, signature string, issuedAt int64, validityMinutes int) ValidationResult {
	verdict := s.validator.Validate(sessionID, signature, issuedAt, validityMinutes)
	if !verdict.Valid {
		return ValidationResult{Verdict: verdict, Reason: verdict.Reason}
	}

	id, err := uuid.Parse(sessionID)
	if err != nil {
		return s.notActive(verdict)
	}

	session, err := s.sessionRepo.GetSession(ctx, id)
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		return s.notActive(verdict)
	case err != nil:
		// A storage fault is not a closed session: the scanner must not be
		// told the class ended when the lookup merely failed
		s.logger.Error("session lookup failed during validation", "session_id", id, "error", err.Error())
		verdict.Valid = false
		return ValidationResult{Verdict: verdict, Reason: token.ReasonValidationError}
	case !session.IsActive():
		return s.notActive(verdict)
	}

	return ValidationResult{
		Verdict: verdict,
		Reason:  verdict.Reason,
		Session: &session,
	}
}

func (s *Service) notActive(verdict token.Verdict) ValidationResult {
	verdict.Valid = false
	return ValidationResult{Verdict: verdict, Reason: ReasonSessionNotActive}
}

// Records lists who has been recorded in the teacher's session so far
func (s *Service) Records(ctx context.Context, teacherID uuid.UUID, sessionID uuid.UUID) ([]models.AttendanceEntry, error) {
	if _, err := s.getOwned(ctx, teacherID, sessionID); err != nil {
		return nil, err
	}

	return s.attendanceRepo.ListSessionRecords(ctx, sessionID)
}

// getOwned loads the session and hides other teachers' sessions behind
// not-found
func (s *Service) getOwned(ctx context.Context, teacherID uuid.UUID, sessionID uuid.UUID) (models.Session, error) {
	session, err := s.sessionRepo.GetSession(ctx, sessionID)
	if err != nil {
		return models.Session{}, err
	}

	if session.TeacherID != teacherID {
		return models.Session{}, apperrors.ErrSessionNotFound
	}

	return session, nil
}

// ValidateMinutes reports whether the validity window is inside [1, 180].
// Kept at the boundary, not inside the codec: the codec trusts its caller.
func ValidateMinutes(minutes int) error {
	if minutes < MinValidityMinutes || minutes > MaxValidityMinutes {
		return errors.New("validity minutes must be between 1 and 180")
	}
	return nil
}
