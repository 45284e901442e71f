package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ayalat/maarekhet/core"
	"github.com/ayalat/maarekhet/core/schedule"
)

type (
	scheduleRow struct {
		ClassNumber int       `db:"class_number"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	slotRow struct {
		ClassNumber int         `db:"class_number"`
		Day         string      `db:"day"`
		SlotIndex   int         `db:"slot_index"`
		LessonID    null.String `db:"lesson_id"` // NULL marks an explicit hole
	}
)

type scheduleRepository struct {
	db *sqlx.DB
}

var (
	_ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check
)

func NewScheduleRepository(db *sqlx.DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo scheduleRepository) CreateSchedule(ctx context.Context, sched schedule.Schedule) (schedule.Schedule, error) {
	row := scheduleRow{
		ClassNumber: sched.ClassNumber,
		CreatedAt:   sched.CreatedAt.UTC(),
		UpdatedAt:   sched.UpdatedAt.UTC(),
	}
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO weekly_schedule (class_number, created_at, updated_at)
			VALUES (:class_number, :created_at, :updated_at)`,
			row,
		); err != nil {
			if isUniqueViolation(err) {
				return schedule.ErrExists
			}
			return errors.Wrap(err, "inserting schedule")
		}
		for _, d := range core.Days {
			if err := saveDaySlots(ctx, tx, sched.ClassNumber, d, sched.Day(d)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return schedule.Schedule{}, err
	}
	return sched, nil
}

func (repo scheduleRepository) GetScheduleByClass(ctx context.Context, classNumber int) (schedule.Schedule, error) {
	var row scheduleRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM weekly_schedule WHERE class_number = $1`, classNumber); err != nil {
		if isNoRows(err) {
			return schedule.Schedule{}, schedule.ErrNotFound
		}
		return schedule.Schedule{}, errors.Wrap(err, "getting schedule")
	}

	sched := schedule.Schedule{
		ClassNumber: row.ClassNumber,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}

	var slots []slotRow
	if err := repo.db.SelectContext(ctx, &slots,
		`SELECT * FROM schedule_slot WHERE class_number = $1 ORDER BY day, slot_index`, classNumber,
	); err != nil {
		return schedule.Schedule{}, errors.Wrap(err, "querying schedule slots")
	}

	buckets := make(map[core.Day]schedule.DaySlots, len(core.Days))
	for _, s := range slots {
		d := core.Day(s.Day)
		bucket := buckets[d]
		// slots are stored contiguously but guard against gaps anyway
		for len(bucket) <= s.SlotIndex {
			bucket = append(bucket, nil)
		}
		if s.LessonID.Valid {
			bucket[s.SlotIndex] = &schedule.Slot{LessonID: s.LessonID.String, SlotIndex: s.SlotIndex}
		}
		buckets[d] = bucket
	}
	for d, bucket := range buckets {
		sched.SetDay(d, bucket)
	}
	return sched, nil
}

func saveDaySlots(ctx context.Context, tx *sqlx.Tx, classNumber int, day core.Day, slots schedule.DaySlots) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM schedule_slot WHERE class_number = $1 AND day = $2`, classNumber, day.String(),
	); err != nil {
		return errors.Wrap(err, "clearing schedule day")
	}
	for i, s := range slots {
		row := slotRow{
			ClassNumber: classNumber,
			Day:         day.String(),
			SlotIndex:   i,
		}
		if s != nil {
			row.LessonID = null.StringFrom(s.LessonID)
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO schedule_slot (class_number, day, slot_index, lesson_id)
			VALUES (:class_number, :day, :slot_index, :lesson_id)`,
			row,
		); err != nil {
			return errors.Wrap(err, "inserting schedule slot")
		}
	}
	return nil
}

func (repo scheduleRepository) SaveDay(ctx context.Context, classNumber int, day core.Day, slots schedule.DaySlots) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE weekly_schedule SET updated_at = $1 WHERE class_number = $2`,
			time.Now().UTC(), classNumber,
		)
		if err != nil {
			return errors.Wrap(err, "touching schedule")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return schedule.ErrNotFound
		}
		return saveDaySlots(ctx, tx, classNumber, day, slots)
	})
}

func (repo scheduleRepository) DeleteScheduleByClass(ctx context.Context, classNumber int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM weekly_schedule WHERE class_number = $1`, classNumber)
	if err != nil {
		return errors.Wrap(err, "deleting schedule")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

func (repo scheduleRepository) LessonInUse(ctx context.Context, lessonID string) (bool, error) {
	var inUse bool
	err := repo.db.GetContext(ctx, &inUse,
		`SELECT EXISTS (SELECT 1 FROM schedule_slot WHERE lesson_id = $1)`, lessonID,
	)
	if err != nil {
		return false, errors.Wrap(err, "checking lesson usage")
	}
	return inUse, nil
}
