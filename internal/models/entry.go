package models

// AttendanceEntry denormalizes a record with the student it belongs to,
// the shape a teacher sees when reviewing a session.
type AttendanceEntry struct {
	Record  AttendanceRecord
	Student Student
}
