package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
	AttendanceStatusLate    AttendanceStatus = "LATE"
	AttendanceStatusExcused AttendanceStatus = "EXCUSED"
	AttendanceStatusHoliday AttendanceStatus = "HOLIDAY"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate,
		AttendanceStatusExcused, AttendanceStatusHoliday:
		return true
	default:
		return false
	}
}

// SessionType identifies the roll-call slot within a day.
type SessionType string

const (
	SessionTypeMorning SessionType = "MORNING"
	SessionTypeEvening SessionType = "EVENING"
	SessionTypeCustom  SessionType = "CUSTOM"
)

// Valid reports whether the session type is supported.
func (t SessionType) Valid() bool {
	switch t {
	case SessionTypeMorning, SessionTypeEvening, SessionTypeCustom:
		return true
	default:
		return false
	}
}

// SessionScope narrows a session to a block, room, course or intake
// year. Empty fields mean facility-wide. The scope participates in the
// session's uniqueness key, so the zero value is stored as empty
// strings rather than NULLs (Postgres unique indexes ignore NULLs).
type SessionScope struct {
	Block  string `db:"scope_block" json:"block,omitempty"`
	RoomID string `db:"scope_room_id" json:"room_id,omitempty"`
	Course string `db:"scope_course" json:"course,omitempty"`
	Year   int    `db:"scope_year" json:"year,omitempty"`
}

// AttendanceSession is created once per (date, type, scope) key and
// never mutated afterwards.
type AttendanceSession struct {
	ID   string      `db:"id" json:"id"`
	Date time.Time   `db:"date" json:"date"`
	Type SessionType `db:"session_type" json:"session_type"`
	SessionScope
	CreatedBy *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Scope returns the scope tuple of the session.
func (s AttendanceSession) Scope() SessionScope {
	return s.SessionScope
}

// AttendanceRecord is the single row per (session, resident). Re-marks
// overwrite in place; no history is retained.
type AttendanceRecord struct {
	ID          string           `db:"id" json:"id"`
	SessionID   string           `db:"session_id" json:"session_id"`
	ResidentID  string           `db:"resident_id" json:"resident_id"`
	Status      AttendanceStatus `db:"status" json:"status"`
	Note        *string          `db:"note" json:"note,omitempty"`
	LateMinutes int              `db:"late_minutes" json:"late_minutes"`
	MarkedBy    string           `db:"marked_by" json:"marked_by"`
	MarkedAt    time.Time        `db:"marked_at" json:"marked_at"`
}

// AttendanceRecordRow extends the record with resident metadata.
type AttendanceRecordRow struct {
	AttendanceRecord
	ResidentName string `db:"resident_name" json:"resident_name"`
	RegNumber    string `db:"reg_number" json:"reg_number"`
}

// AttendanceCalendarEntry is one day in a resident's monthly calendar.
type AttendanceCalendarEntry struct {
	Date        time.Time        `db:"date" json:"date"`
	SessionType SessionType      `db:"session_type" json:"session_type"`
	Status      AttendanceStatus `db:"status" json:"status"`
	LateMinutes int              `db:"late_minutes" json:"late_minutes"`
}

// AttendanceSummary aggregates a session's record counts.
type AttendanceSummary struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Excused int `json:"excused"`
	Holiday int `json:"holiday"`
	Total   int `json:"total"`
}
