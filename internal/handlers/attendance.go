package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/classtrack/rollcall/internal/handlers/render"
	"github.com/classtrack/rollcall/internal/logger"
	"github.com/classtrack/rollcall/internal/service/attendance"
	"github.com/classtrack/rollcall/internal/service/session"
	"github.com/classtrack/rollcall/internal/token"
)

type attendanceService interface {
	Record(ctx context.Context, sessionID uuid.UUID, identity attendance.Identity) attendance.Result
}

type ValidateResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`

	Session       *SessionResponse `json:"session,omitempty"`
	TimeRemaining *int             `json:"time_remaining,omitempty"`
}

type RecordAttendanceRequest struct {
	SessionID string               `json:"session_id" validate:"required,uuid"`
	Student   RecordStudentRequest `json:"student" validate:"required"`
}

type RecordStudentRequest struct {
	StudentNumber string `json:"student_number" validate:"required"`
	FullName      string `json:"full_name"`
	SourceURL     string `json:"source_url" validate:"omitempty,url"`
}

type RecordAttendanceResponse struct {
	Success   bool   `json:"success"`
	Duplicate bool   `json:"duplicate"`
	Message   string `json:"message"`

	Student *RecordEntryResponse `json:"student,omitempty"`
}

// handleValidate is the validation boundary: token verdict first, then the
// session gate, display fields only for fully valid tokens.
func handleValidate(ss sessionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		sessionID := query.Get("sessionId")
		signature := query.Get("signature")
		timestamp, tsErr := strconv.ParseInt(query.Get("timestamp"), 10, 64)

		if sessionID == "" || signature == "" || tsErr != nil {
			render.JSONWithStatus(w, ValidateResponse{Valid: false, Reason: token.ReasonInvalidFormat}, http.StatusBadRequest)
			return
		}

		minutes := session.DefaultValidityMinutes
		if raw := query.Get("duration"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || session.ValidateMinutes(parsed) != nil {
				render.JSONWithStatus(w, ValidateResponse{Valid: false, Reason: token.ReasonInvalidFormat}, http.StatusBadRequest)
				return
			}
			minutes = parsed
		}

		result := ss.ValidateToken(r.Context(), sessionID, signature, timestamp, minutes)
		if !result.Verdict.Valid {
			render.JSONWithStatus(w, ValidateResponse{Valid: false, Reason: result.Reason}, http.StatusBadRequest)
			return
		}

		remaining := result.Verdict.TimeRemainingMinutes
		response := ValidateResponse{
			Valid:         true,
			Reason:        result.Reason,
			TimeRemaining: &remaining,
		}
		if result.Session != nil {
			sr := sessionToResponse(*result.Session)
			response.Session = &sr
		}

		render.JSON(w, response)
	})
}

// handleRecordAttendance is the redemption boundary. The three user-facing
// failures stay distinct: invalid or expired code, already recorded, and
// session closed each need a different action from the student.
func handleRecordAttendance(as attendanceService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[RecordAttendanceRequest](w, r)
		if err != nil {
			return
		}

		sessionID, err := uuid.Parse(req.SessionID)
		if err != nil {
			render.ServiceError(w, "Session not found", http.StatusBadRequest)
			return
		}

		result := as.Record(r.Context(), sessionID, attendance.Identity{
			StudentNumber: req.Student.StudentNumber,
			FullName:      req.Student.FullName,
			SourceURL:     req.Student.SourceURL,
		})

		switch result.Outcome {
		case attendance.OutcomeAccepted:
			render.JSON(w, RecordAttendanceResponse{
				Success: true,
				Message: "Attendance recorded",
				Student: &RecordEntryResponse{
					StudentNumber: result.Student.StudentNumber,
					FullName:      result.Student.FullName,
					RecordedAt:    result.Record.CreatedAt,
				},
			})
		case attendance.OutcomeDuplicate:
			render.JSON(w, RecordAttendanceResponse{
				Success:   false,
				Duplicate: true,
				Message:   "Already recorded for this session",
				Student: &RecordEntryResponse{
					StudentNumber: result.Student.StudentNumber,
					FullName:      result.Student.FullName,
					RecordedAt:    result.Record.CreatedAt,
				},
			})
		case attendance.OutcomeRejected:
			if result.Reason == attendance.ReasonSessionNotActive {
				render.JSONWithStatus(w, RecordAttendanceResponse{
					Success: false,
					Message: "Session is not active",
				}, http.StatusBadRequest)
				return
			}
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		default:
			l.Error("unexpected redemption outcome", "outcome", result.Outcome)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
