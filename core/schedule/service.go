package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/ayalat/maarekhet/core"
	"github.com/ayalat/maarekhet/core/lesson"
)

var (
	// errors
	ErrNotFound = errors.New("schedule not found")
	ErrExists   = errors.New("a schedule for this class already exists")
)

// OrderingViolationError reports an attempt to set a slot while the
// immediately preceding slot is still empty. Indexes in the message are
// 1-based, matching what secretaries see on screen.
type OrderingViolationError struct {
	SlotIndex int
}

func (e *OrderingViolationError) Error() string {
	return fmt.Sprintf("lesson %d cannot be scheduled before lesson %d is set", e.SlotIndex+1, e.SlotIndex)
}

// IsOrderingViolation reports whether err is an OrderingViolationError.
func IsOrderingViolation(err error) bool {
	_, ok := errors.Cause(err).(*OrderingViolationError)
	return ok
}

type (
	Repository interface {
		CreateSchedule(ctx context.Context, sched Schedule) (Schedule, error)
		GetScheduleByClass(ctx context.Context, classNumber int) (Schedule, error)
		// SaveDay persists one full day-bucket, explicit holes included.
		SaveDay(ctx context.Context, classNumber int, day core.Day, slots DaySlots) error
		DeleteScheduleByClass(ctx context.Context, classNumber int) error
		LessonInUse(ctx context.Context, lessonID string) (bool, error)
	}

	// LessonResolver resolves slot lesson references to full lesson records.
	// Implemented by the lesson repository.
	LessonResolver interface {
		GetLessonsByID(ctx context.Context, ids ...string) ([]lesson.Lesson, error)
	}

	Service interface {
		Create(ctx context.Context, classNumber int) (Schedule, error)
		GetByClass(ctx context.Context, classNumber int) (Schedule, error)
		GetDetailByClass(ctx context.Context, classNumber int) (ScheduleDetail, error)
		// EnsureForClasses creates a blank schedule for every class number
		// that does not have one yet.
		EnsureForClasses(ctx context.Context, classNumbers ...int) error
		ReplaceWeek(ctx context.Context, classNumber int, days map[core.Day]DaySlots) error
		ReplaceDay(ctx context.Context, classNumber int, day core.Day, slots DaySlots) error
		SetSlot(ctx context.Context, classNumber int, day core.Day, slotIndex int, lessonID string) error
		Delete(ctx context.Context, classNumber int) error
	}

	service struct {
		repo    Repository
		lessons LessonResolver
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, lessons LessonResolver) Service {
	return &service{
		repo:    repo,
		lessons: lessons,
	}
}

func (svc *service) Create(ctx context.Context, classNumber int) (Schedule, error) {
	now := time.Now().UTC()
	sched := Schedule{
		ClassNumber: classNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateSchedule(ctx, sched)
}

func (svc *service) GetByClass(ctx context.Context, classNumber int) (Schedule, error) {
	return svc.repo.GetScheduleByClass(ctx, classNumber)
}

// GetDetailByClass returns the schedule with every slot's lesson reference
// resolved to the full lesson record. Slots referencing a lesson that no
// longer resolves keep their position with a nil lesson.
func (svc *service) GetDetailByClass(ctx context.Context, classNumber int) (ScheduleDetail, error) {
	sched, err := svc.repo.GetScheduleByClass(ctx, classNumber)
	if err != nil {
		return ScheduleDetail{}, err
	}

	var ids []string
	seen := make(map[string]bool)
	for _, day := range core.Days {
		for _, slot := range sched.Day(day) {
			if slot != nil && !seen[slot.LessonID] {
				seen[slot.LessonID] = true
				ids = append(ids, slot.LessonID)
			}
		}
	}

	byID := make(map[string]lesson.Lesson, len(ids))
	if len(ids) > 0 {
		lessons, err := svc.lessons.GetLessonsByID(ctx, ids...)
		if err != nil {
			return ScheduleDetail{}, errors.Wrap(err, "resolving slot lessons")
		}
		for _, les := range lessons {
			byID[les.ID] = les
		}
	}

	detail := ScheduleDetail{ClassNumber: sched.ClassNumber}
	for _, day := range core.Days {
		slots := sched.Day(day)
		details := make(DayDetails, len(slots))
		for i, slot := range slots {
			if slot == nil {
				continue
			}
			sd := &SlotDetail{SlotIndex: slot.SlotIndex}
			if les, ok := byID[slot.LessonID]; ok {
				sd.Lesson = &les
			}
			details[i] = sd
		}
		detail.setDay(day, details)
	}
	return detail, nil
}

func (svc *service) EnsureForClasses(ctx context.Context, classNumbers ...int) error {
	for _, classNumber := range classNumbers {
		_, err := svc.repo.GetScheduleByClass(ctx, classNumber)
		if err == nil {
			continue
		}
		if errors.Cause(err) != ErrNotFound {
			return errors.Wrapf(err, "checking schedule for class %d", classNumber)
		}
		if _, err = svc.Create(ctx, classNumber); err != nil {
			return errors.Wrapf(err, "creating schedule for class %d", classNumber)
		}
	}
	return nil
}

// ReplaceWeek replaces the given day-buckets wholesale; each bucket is
// normalized so that slot indexes match array positions. Unknown day keys are
// ignored.
func (svc *service) ReplaceWeek(ctx context.Context, classNumber int, days map[core.Day]DaySlots) error {
	if _, err := svc.repo.GetScheduleByClass(ctx, classNumber); err != nil {
		return err
	}
	for day, slots := range days {
		if !day.IsValid() {
			continue
		}
		if err := svc.repo.SaveDay(ctx, classNumber, day, NormalizeDaySlots(slots)); err != nil {
			return errors.Wrapf(err, "saving %s slots", day)
		}
	}
	return nil
}

func (svc *service) ReplaceDay(ctx context.Context, classNumber int, day core.Day, slots DaySlots) error {
	if _, err := svc.repo.GetScheduleByClass(ctx, classNumber); err != nil {
		return err
	}
	return svc.repo.SaveDay(ctx, classNumber, day, NormalizeDaySlots(slots))
}

// SetSlot writes a single slot, enforcing sequential fill: slot K (K>0) may
// only be set once slot K-1 is occupied. The day-bucket is extended with
// explicit holes up to slotIndex when shorter.
//
// The preceding-slot check and the write are not guarded by a cross-request
// lock; concurrent writers to the same class/day interleave last-write-wins.
func (svc *service) SetSlot(ctx context.Context, classNumber int, day core.Day, slotIndex int, lessonID string) error {
	sched, err := svc.repo.GetScheduleByClass(ctx, classNumber)
	if err != nil {
		return err
	}

	slots := sched.Day(day)
	for len(slots) <= slotIndex {
		slots = append(slots, nil)
	}

	if slotIndex > 0 && slots[slotIndex-1] == nil {
		return &OrderingViolationError{SlotIndex: slotIndex}
	}

	slots[slotIndex] = &Slot{LessonID: lessonID, SlotIndex: slotIndex}
	return svc.repo.SaveDay(ctx, classNumber, day, slots)
}

func (svc *service) Delete(ctx context.Context, classNumber int) error {
	return svc.repo.DeleteScheduleByClass(ctx, classNumber)
}
