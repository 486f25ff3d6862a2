package models

import (
	"time"

	"github.com/google/uuid"
)

// Student identity deduplicated by the student number extracted from the
// scanned credential. The number is the natural key, not the name a student
// types in for a particular session.
type Student struct {
	ID            uuid.UUID
	CreatedAt     time.Time
	StudentNumber string
	FullName      string
}
