package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ayalat/maarekhet/core/lesson"
)

type lessonRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Teacher   string    `db:"teacher"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func newLessonRow(les lesson.Lesson) lessonRow {
	return lessonRow{
		ID:        les.ID,
		Name:      les.Name,
		Teacher:   les.Teacher,
		CreatedAt: les.CreatedAt.UTC(),
		UpdatedAt: les.UpdatedAt.UTC(),
	}
}

func (r lessonRow) toLesson() lesson.Lesson {
	return lesson.Lesson{
		ID:        r.ID,
		Name:      r.Name,
		Teacher:   r.Teacher,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type lessonRepository struct {
	db *sqlx.DB
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *sqlx.DB) *lessonRepository {
	return &lessonRepository{db: db}
}

func (repo lessonRepository) trapNoRowsErr(err error, msg string) error {
	if isNoRows(err) {
		return lesson.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo lessonRepository) CreateLesson(ctx context.Context, les lesson.Lesson) (lesson.Lesson, error) {
	les.ID = uuid.New().String()
	row := newLessonRow(les)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO lesson (id, name, teacher, created_at, updated_at)
		VALUES (:id, :name, :teacher, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return row.toLesson(), nil
}

func (repo lessonRepository) QueryAllLessons(ctx context.Context) ([]lesson.Lesson, error) {
	var rows []lessonRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM lesson ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	lessons := make([]lesson.Lesson, 0, len(rows))
	for _, r := range rows {
		lessons = append(lessons, r.toLesson())
	}
	return lessons, nil
}

func (repo lessonRepository) GetLessonByID(ctx context.Context, id string) (lesson.Lesson, error) {
	var row lessonRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM lesson WHERE id = $1`, id); err != nil {
		return lesson.Lesson{}, repo.trapNoRowsErr(err, "getting lesson")
	}
	return row.toLesson(), nil
}

func (repo lessonRepository) GetLessonsByID(ctx context.Context, ids ...string) ([]lesson.Lesson, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM lesson WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "querying lessons by id")
	}
	var rows []lessonRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying lessons by id")
	}
	lessons := make([]lesson.Lesson, 0, len(rows))
	for _, r := range rows {
		lessons = append(lessons, r.toLesson())
	}
	return lessons, nil
}

func (repo lessonRepository) UpdateLesson(ctx context.Context, les lesson.Lesson) (lesson.Lesson, error) {
	row := newLessonRow(les)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE lesson
		SET name = :name, teacher = :teacher, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	return row.toLesson(), nil
}

func (repo lessonRepository) DeleteLessonByID(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM lesson WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return lesson.ErrNotFound
	}
	return nil
}
