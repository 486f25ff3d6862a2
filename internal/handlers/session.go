package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/classtrack/rollcall/internal/apperrors"
	"github.com/classtrack/rollcall/internal/handlers/render"
	"github.com/classtrack/rollcall/internal/handlers/teacherctx"
	"github.com/classtrack/rollcall/internal/logger"
	"github.com/classtrack/rollcall/internal/models"
	"github.com/classtrack/rollcall/internal/service/session"
)

type sessionService interface {
	Create(ctx context.Context, teacherID uuid.UUID, subjectLabel string, groupLabel string, validityMinutes int) (session.IssuedQR, error)
	IssueQR(ctx context.Context, teacherID uuid.UUID, sessionID uuid.UUID, validityMinutes int) (session.IssuedQR, error)
	Close(ctx context.Context, teacherID uuid.UUID, sessionID uuid.UUID) (models.Session, error)
	Records(ctx context.Context, teacherID uuid.UUID, sessionID uuid.UUID) ([]models.AttendanceEntry, error)
	ValidateToken(ctx context.Context, sessionID string, signature string, issuedAt int64, validityMinutes int) session.ValidationResult
}

type CreateSessionRequest struct {
	Subject string `json:"subject" validate:"required"`
	Group   string `json:"group" validate:"required"`

	// Token validity window, defaults to 90 minutes when omitted
	ValidityMinutes int `json:"validity_minutes" validate:"omitempty,min=1,max=180"`
}

type IssueQRRequest struct {
	ValidityMinutes int `json:"validity_minutes" validate:"omitempty,min=1,max=180"`
}

type SessionResponse struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Group     string    `json:"group"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type IssuedQRResponse struct {
	Session   SessionResponse `json:"session"`
	URL       string          `json:"url"`
	Signature string          `json:"signature"`
	IssuedAt  int64           `json:"issued_at"`
	ExpiresAt int64           `json:"expires_at"`
	QRImage   string          `json:"qr_image"`
}

type RecordEntryResponse struct {
	StudentNumber string    `json:"student_number"`
	FullName      string    `json:"full_name"`
	RecordedAt    time.Time `json:"recorded_at"`
}

func sessionToResponse(s models.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID.String(),
		Subject:   s.SubjectLabel,
		Group:     s.GroupLabel,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
	}
}

func issuedToResponse(issued session.IssuedQR) IssuedQRResponse {
	return IssuedQRResponse{
		Session:   sessionToResponse(issued.Session),
		URL:       issued.Token.URL,
		Signature: issued.Token.Signature,
		IssuedAt:  issued.Token.IssuedAt,
		ExpiresAt: issued.Token.ExpiresAt,
		QRImage:   issued.QRDataURL,
	}
}

func handleCreateSession(ss sessionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		teacher, ok := teacherctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		req, err := render.BindAndValidate[CreateSessionRequest](w, r)
		if err != nil {
			return
		}

		minutes := req.ValidityMinutes
		if minutes == 0 {
			minutes = session.DefaultValidityMinutes
		}

		issued, err := ss.Create(r.Context(), teacher.ID, req.Subject, req.Group, minutes)
		if err != nil {
			l.Error("session create failed", "teacher_id", teacher.ID, "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSONWithStatus(w, issuedToResponse(issued), http.StatusCreated)
	})
}

func handleIssueQR(ss sessionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		teacher, ok := teacherctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		sessionID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Session not found", http.StatusNotFound)
			return
		}

		// Body is optional here, an absent one means default validity
		req, err := render.BindAndValidateOptional[IssueQRRequest](w, r)
		if err != nil {
			return
		}

		minutes := req.ValidityMinutes
		if minutes == 0 {
			minutes = session.DefaultValidityMinutes
		}

		issued, err := ss.IssueQR(r.Context(), teacher.ID, sessionID, minutes)
		switch {
		case err == nil:
			render.JSON(w, issuedToResponse(issued))
		case errors.Is(err, apperrors.ErrSessionNotFound):
			render.ServiceError(w, "Session not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrSessionNotActive):
			render.ServiceError(w, "Session is closed", http.StatusConflict)
		default:
			l.Error("qr issue failed", "session_id", sessionID, "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleCloseSession(ss sessionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		teacher, ok := teacherctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		sessionID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Session not found", http.StatusNotFound)
			return
		}

		closed, err := ss.Close(r.Context(), teacher.ID, sessionID)
		switch {
		case err == nil:
			render.JSON(w, sessionToResponse(closed))
		case errors.Is(err, apperrors.ErrSessionNotFound):
			render.ServiceError(w, "Session not found", http.StatusNotFound)
		default:
			l.Error("session close failed", "session_id", sessionID, "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListRecords(ss sessionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		teacher, ok := teacherctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		sessionID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Session not found", http.StatusNotFound)
			return
		}

		entries, err := ss.Records(r.Context(), teacher.ID, sessionID)
		switch {
		case err == nil:
			response := make([]RecordEntryResponse, 0, len(entries))
			for _, entry := range entries {
				response = append(response, RecordEntryResponse{
					StudentNumber: entry.Student.StudentNumber,
					FullName:      entry.Student.FullName,
					RecordedAt:    entry.Record.CreatedAt,
				})
			}
			render.JSON(w, map[string]any{"records": response})
		case errors.Is(err, apperrors.ErrSessionNotFound):
			render.ServiceError(w, "Session not found", http.StatusNotFound)
		default:
			l.Error("records list failed", "session_id", sessionID, "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
