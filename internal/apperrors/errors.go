package apperrors

import (
	"errors"
)

var (
	ErrTeacherNotFound    = errors.New("teacher not found")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionNotActive = errors.New("session is not active")

	ErrStudentNotFound = errors.New("student not found")

	ErrAttendanceNotFound = errors.New("attendance record not found")

	ErrStudentNumberNotFound = errors.New("student number not found on page")
	ErrExtractTimeout        = errors.New("student page fetch timed out")
)
