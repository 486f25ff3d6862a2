package models

import (
	"time"

	"github.com/google/uuid"
)

// Payload captured at redemption time. Stored as jsonb next to the record,
// never interpreted afterwards.
type AttendancePayload struct {
	StudentNumber string    `json:"studentNumber"`
	FullName      string    `json:"fullName"`
	SourceURL     string    `json:"sourceUrl,omitempty"`
	ScannedAt     time.Time `json:"scannedAt"`
}

type AttendanceRecord struct {
	ID        uuid.UUID
	CreatedAt time.Time
	StudentID uuid.UUID
	SessionID uuid.UUID
	Payload   AttendancePayload
}
