package lesson

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ayalat/maarekhet/core"
)

var (
	// errors
	ErrNotFound    = errors.New("lesson not found")
	ErrLessonInUse = errors.New("this lesson is assigned to a weekly schedule and cannot be deleted")
	errNoChanges   = errors.New("no changes were made to the lesson")
)

type (
	Repository interface {
		CreateLesson(ctx context.Context, les Lesson) (Lesson, error)
		QueryAllLessons(ctx context.Context) ([]Lesson, error)
		GetLessonByID(ctx context.Context, id string) (Lesson, error)
		// GetLessonsByID returns the lessons matching the given IDs; unknown
		// IDs are skipped, not reported.
		GetLessonsByID(ctx context.Context, ids ...string) ([]Lesson, error)
		UpdateLesson(ctx context.Context, les Lesson) (Lesson, error)
		DeleteLessonByID(ctx context.Context, id string) error
	}

	// ScheduleChecker reports whether a lesson is referenced by any weekly
	// schedule slot. Implemented by the schedule repository.
	ScheduleChecker interface {
		LessonInUse(ctx context.Context, lessonID string) (bool, error)
	}

	Service interface {
		Create(ctx context.Context, nl NewLesson) (Lesson, error)
		QueryAll(ctx context.Context) ([]Lesson, error)
		GetByID(ctx context.Context, id string) (Lesson, error)
		GetMultiple(ctx context.Context, ids ...string) ([]Lesson, error)
		Update(ctx context.Context, id string, ul UpdateLesson) (Lesson, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo      Repository
		schedules ScheduleChecker
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, schedules ScheduleChecker) Service {
	return &service{
		repo:      repo,
		schedules: schedules,
	}
}

func (svc *service) Create(ctx context.Context, nl NewLesson) (Lesson, error) {
	now := time.Now().UTC()
	les := Lesson{
		Name:      nl.Name,
		Teacher:   nl.Teacher,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateLesson(ctx, les)
}

func (svc *service) QueryAll(ctx context.Context) ([]Lesson, error) {
	return svc.repo.QueryAllLessons(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLessonByID(ctx, id)
}

func (svc *service) GetMultiple(ctx context.Context, ids ...string) ([]Lesson, error) {
	return svc.repo.GetLessonsByID(ctx, ids...)
}

func (svc *service) Update(ctx context.Context, id string, ul UpdateLesson) (Lesson, error) {
	les, err := svc.repo.GetLessonByID(ctx, id)
	if err != nil {
		return Lesson{}, err
	}

	var updated bool
	if ul.Name != "" && les.Name != ul.Name {
		les.Name = ul.Name
		updated = true
	}
	if ul.Teacher != "" && les.Teacher != ul.Teacher {
		les.Teacher = ul.Teacher
		updated = true
	}
	if !updated {
		return Lesson{}, core.NewValidationError(errNoChanges)
	}

	les.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLesson(ctx, les)
}

// Delete removes a lesson, rejecting the deletion while any weekly schedule
// slot still references it.
func (svc *service) Delete(ctx context.Context, id string) error {
	inUse, err := svc.schedules.LessonInUse(ctx, id)
	if err != nil {
		return errors.Wrap(err, "checking lesson usage")
	}
	if inUse {
		return ErrLessonInUse
	}
	return svc.repo.DeleteLessonByID(ctx, id)
}
