package schedule

import (
	"time"

	"github.com/ayalat/maarekhet/core"
	"github.com/ayalat/maarekhet/core/lesson"
)

type (
	// Slot is a single period position within one weekday of a class's
	// schedule. SlotIndex always equals the slot's position in its day-bucket.
	Slot struct {
		LessonID  string `json:"lesson_id"`
		SlotIndex int    `json:"slot_index"`
	}

	// DaySlots is one day-bucket: an ordered sequence of slots where a nil
	// entry is an explicit hole.
	DaySlots []*Slot

	// Week holds the five day-buckets of a class's schedule.
	Week struct {
		Sunday    DaySlots `json:"sunday"`
		Monday    DaySlots `json:"monday"`
		Tuesday   DaySlots `json:"tuesday"`
		Wednesday DaySlots `json:"wednesday"`
		Thursday  DaySlots `json:"thursday"`
	}

	Schedule struct {
		ClassNumber int `json:"class_number"`
		Week
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}
)

// Day returns the day-bucket for the given weekday.
func (w *Week) Day(d core.Day) DaySlots {
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

// SetDay replaces the day-bucket for the given weekday.
func (w *Week) SetDay(d core.Day, slots DaySlots) {
	switch d {
	case core.Sunday:
		w.Sunday = slots
	case core.Monday:
		w.Monday = slots
	case core.Tuesday:
		w.Tuesday = slots
	case core.Wednesday:
		w.Wednesday = slots
	case core.Thursday:
		w.Thursday = slots
	}
}

// NormalizeDaySlots stamps every slot with its position in the sequence so
// that SlotIndex always equals the array position. Entries without a lesson
// reference become explicit holes, preserving the position of later entries.
// The output has the same length as the input.
func NormalizeDaySlots(slots DaySlots) DaySlots {
	normalized := make(DaySlots, len(slots))
	for i, s := range slots {
		if s == nil || s.LessonID == "" {
			continue
		}
		normalized[i] = &Slot{LessonID: s.LessonID, SlotIndex: i}
	}
	return normalized
}

// Read-side view with lesson references resolved to full records.
type (
	SlotDetail struct {
		Lesson    *lesson.Lesson `json:"lesson"`
		SlotIndex int            `json:"slot_index"`
	}

	DayDetails []*SlotDetail

	WeekDetail struct {
		Sunday    DayDetails `json:"sunday"`
		Monday    DayDetails `json:"monday"`
		Tuesday   DayDetails `json:"tuesday"`
		Wednesday DayDetails `json:"wednesday"`
		Thursday  DayDetails `json:"thursday"`
	}

	ScheduleDetail struct {
		ClassNumber int `json:"class_number"`
		WeekDetail
	}
)

func (w *WeekDetail) setDay(d core.Day, details DayDetails) {
	switch d {
	case core.Sunday:
		w.Sunday = details
	case core.Monday:
		w.Monday = details
	case core.Tuesday:
		w.Tuesday = details
	case core.Wednesday:
		w.Wednesday = details
	case core.Thursday:
		w.Thursday = details
	}
}
