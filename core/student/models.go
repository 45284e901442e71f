package student

import (
	"time"

	"github.com/ayalat/maarekhet/core"
)

// Status is a per-lesson attendance status.
type Status string

const (
	StatusPresent Status = "Present"
	StatusLate    Status = "Late"
	StatusAbsent  Status = "Absent"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent:
		return true
	}
	return false
}

// Symbol returns the single-character code used in weekly report tables.
func (s Status) Symbol() string {
	switch s {
	case StatusPresent:
		return "P"
	case StatusLate:
		return "L"
	case StatusAbsent:
		return "A"
	}
	return ""
}

type (
	// AttendanceEntry records one lesson occurrence for a student. A day
	// holds at most one entry per (LessonID, SlotIndex) pair.
	AttendanceEntry struct {
		LessonID  string `json:"lesson_id"`
		SlotIndex int    `json:"slot_index"`
		Status    Status `json:"status"`
	}

	// WeekAttendance is a student's attendance ledger: five day-buckets of
	// unordered entries.
	WeekAttendance struct {
		Sunday    []AttendanceEntry `json:"sunday"`
		Monday    []AttendanceEntry `json:"monday"`
		Tuesday   []AttendanceEntry `json:"tuesday"`
		Wednesday []AttendanceEntry `json:"wednesday"`
		Thursday  []AttendanceEntry `json:"thursday"`
	}

	Student struct {
		ID             string         `json:"id"`
		Name           string         `json:"name"`
		IDNumber       string         `json:"id_number"`
		ParentEmail    string         `json:"parent_email"`
		ClassNumber    int            `json:"class_number"`
		IsActive       bool           `json:"is_active"`
		WeekAttendance WeekAttendance `json:"weekly_attendance"`
		CreatedAt      time.Time      `json:"created_at"` // UTC
		UpdatedAt      time.Time      `json:"updated_at"` // UTC
	}
)

// Day returns the entries recorded for the given weekday.
func (w *WeekAttendance) Day(d core.Day) []AttendanceEntry {
	switch d {
	case core.Sunday:
		return w.Sunday
	case core.Monday:
		return w.Monday
	case core.Tuesday:
		return w.Tuesday
	case core.Wednesday:
		return w.Wednesday
	case core.Thursday:
		return w.Thursday
	}
	return nil
}

// SetDay replaces the entries recorded for the given weekday.
func (w *WeekAttendance) SetDay(d core.Day, entries []AttendanceEntry) {
	switch d {
	case core.Sunday:
		w.Sunday = entries
	case core.Monday:
		w.Monday = entries
	case core.Tuesday:
		w.Tuesday = entries
	case core.Wednesday:
		w.Wednesday = entries
	case core.Thursday:
		w.Thursday = entries
	}
}

// MaxSlotCount returns the highest populated slot count across the five
// day-buckets; 0 means the ledger is empty.
func (w *WeekAttendance) MaxSlotCount() int {
	var max int
	for _, d := range core.Days {
		if n := len(w.Day(d)); n > max {
			max = n
		}
	}
	return max
}

// StatusAt returns the status recorded for (lessonID, slotIndex) on the given
// day, defaulting to Absent when no entry exists: a student with no recorded
// entry for a held lesson is absent, not unknown.
func (w *WeekAttendance) StatusAt(d core.Day, lessonID string, slotIndex int) Status {
	if i := findEntry(w.Day(d), lessonID, slotIndex); i >= 0 {
		return w.Day(d)[i].Status
	}
	return StatusAbsent
}

// findEntry locates the entry matching (lessonID, slotIndex), or -1. Lesson
// identity compares as canonical strings, the slot index numerically.
func findEntry(entries []AttendanceEntry, lessonID string, slotIndex int) int {
	for i, e := range entries {
		if e.LessonID == lessonID && e.SlotIndex == slotIndex {
			return i
		}
	}
	return -1
}

// ValidIDNumber checks a 9-digit national ID number's checksum: digits in odd
// positions are doubled (minus 9 when above 9) and the total must divide by 10.
func ValidIDNumber(id string) bool {
	if len(id) != 9 {
		return false
	}
	var sum int
	for i, r := range id {
		if r < '0' || r > '9' {
			return false
		}
		digit := int(r - '0')
		if i%2 == 1 {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
	}
	return sum%10 == 0
}
