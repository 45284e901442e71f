package inmemdb

import (
	"context"
	"time"

	"github.com/ayalat/maarekhet/core"
	"github.com/ayalat/maarekhet/core/schedule"
)

type scheduleRepository struct {
	db *scheduleTable
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db.schedule}
}

func copyDaySlots(slots schedule.DaySlots) schedule.DaySlots {
	if slots == nil {
		return nil
	}
	cp := make(schedule.DaySlots, len(slots))
	for i, s := range slots {
		if s != nil {
			slot := *s
			cp[i] = &slot
		}
	}
	return cp
}

func copySchedule(sched schedule.Schedule) schedule.Schedule {
	cp := sched
	for _, d := range core.Days {
		cp.SetDay(d, copyDaySlots(sched.Day(d)))
	}
	return cp
}

func (repo *scheduleRepository) CreateSchedule(ctx context.Context, sched schedule.Schedule) (schedule.Schedule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[sched.ClassNumber]; ok {
		return schedule.Schedule{}, schedule.ErrExists
	}
	cp := copySchedule(sched)
	repo.db.table[sched.ClassNumber] = &cp
	return sched, nil
}

func (repo *scheduleRepository) GetScheduleByClass(ctx context.Context, classNumber int) (schedule.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sched, ok := repo.db.table[classNumber]; ok {
		return copySchedule(*sched), nil
	}
	return schedule.Schedule{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) SaveDay(ctx context.Context, classNumber int, day core.Day, slots schedule.DaySlots) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sched, ok := repo.db.table[classNumber]
	if !ok {
		return schedule.ErrNotFound
	}
	sched.SetDay(day, copyDaySlots(slots))
	sched.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *scheduleRepository) DeleteScheduleByClass(ctx context.Context, classNumber int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[classNumber]; !ok {
		return schedule.ErrNotFound
	}
	delete(repo.db.table, classNumber)
	return nil
}

func (repo *scheduleRepository) LessonInUse(ctx context.Context, lessonID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, sched := range repo.db.table {
		for _, d := range core.Days {
			for _, s := range sched.Day(d) {
				if s != nil && s.LessonID == lessonID {
					return true, nil
				}
			}
		}
	}
	return false, nil
}
