package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ayalat/maarekhet/core"
	"github.com/ayalat/maarekhet/core/student"
)

type (
	studentRow struct {
		ID          string    `db:"id"`
		Name        string    `db:"name"`
		IDNumber    string    `db:"id_number"`
		ParentEmail string    `db:"parent_email"`
		ClassNumber int       `db:"class_number"`
		IsActive    bool      `db:"is_active"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	attendanceRow struct {
		StudentID string `db:"student_id"`
		Day       string `db:"day"`
		LessonID  string `db:"lesson_id"`
		SlotIndex int    `db:"slot_index"`
		Status    string `db:"status"`
		Ord       int    `db:"ord"`
	}
)

func newStudentRow(st student.Student) studentRow {
	return studentRow{
		ID:          st.ID,
		Name:        st.Name,
		IDNumber:    st.IDNumber,
		ParentEmail: st.ParentEmail,
		ClassNumber: st.ClassNumber,
		IsActive:    st.IsActive,
		CreatedAt:   st.CreatedAt.UTC(),
		UpdatedAt:   st.UpdatedAt.UTC(),
	}
}

func (r studentRow) toStudent() student.Student {
	return student.Student{
		ID:          r.ID,
		Name:        r.Name,
		IDNumber:    r.IDNumber,
		ParentEmail: r.ParentEmail,
		ClassNumber: r.ClassNumber,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo studentRepository) trapNoRowsErr(err error, msg string) error {
	if isNoRows(err) {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// loadWeekAttendance fills in the attendance ledgers of the given students,
// preserving the order entries were recorded in.
func (repo studentRepository) loadWeekAttendance(ctx context.Context, students []student.Student) error {
	if len(students) == 0 {
		return nil
	}
	ids := make([]string, 0, len(students))
	byID := make(map[string]*student.Student, len(students))
	for i := range students {
		ids = append(ids, students[i].ID)
		byID[students[i].ID] = &students[i]
	}

	query, args, err := sqlx.In(
		`SELECT * FROM attendance_entry WHERE student_id IN (?) ORDER BY student_id, day, ord`, ids)
	if err != nil {
		return errors.Wrap(err, "querying attendance entries")
	}
	var rows []attendanceRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "querying attendance entries")
	}

	for _, r := range rows {
		st, ok := byID[r.StudentID]
		if !ok {
			continue
		}
		d := core.Day(r.Day)
		st.WeekAttendance.SetDay(d, append(st.WeekAttendance.Day(d), student.AttendanceEntry{
			LessonID:  r.LessonID,
			SlotIndex: r.SlotIndex,
			Status:    student.Status(r.Status),
		}))
	}
	return nil
}

func (repo studentRepository) CheckIDNumberUniqueness(ctx context.Context, idNumber string, excludedStudents ...student.Student) error {
	query := `SELECT EXISTS (SELECT 1 FROM student WHERE id_number = ?)`
	args := []interface{}{idNumber}

	if len(excludedStudents) > 0 {
		ids := make([]string, 0, len(excludedStudents))
		for _, st := range excludedStudents {
			ids = append(ids, st.ID)
		}
		var err error
		query, args, err = sqlx.In(`SELECT EXISTS (SELECT 1 FROM student WHERE id_number = ? AND id NOT IN (?))`, idNumber, ids)
		if err != nil {
			return errors.Wrap(err, "checking ID number uniqueness")
		}
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking ID number uniqueness")
	}
	if exists {
		return student.ErrIDNumberExists
	}
	return nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	st.ID = uuid.New().String()
	row := newStudentRow(st)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO student (id, name, id_number, parent_email, class_number, is_active, created_at, updated_at)
		VALUES (:id, :name, :id_number, :parent_email, :class_number, :is_active, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrIDNumberExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	st = row.toStudent()
	st.WeekAttendance = student.WeekAttendance{}
	return st, nil
}

func (repo studentRepository) queryStudents(ctx context.Context, query string, args ...interface{}) ([]student.Student, error) {
	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.toStudent())
	}
	if err := repo.loadWeekAttendance(ctx, students); err != nil {
		return nil, err
	}
	return students, nil
}

func (repo studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	return repo.queryStudents(ctx, `SELECT * FROM student ORDER BY class_number, name`)
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM student WHERE id = $1`, id); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "getting student")
	}
	st := row.toStudent()
	students := []student.Student{st}
	if err := repo.loadWeekAttendance(ctx, students); err != nil {
		return student.Student{}, err
	}
	return students[0], nil
}

func (repo studentRepository) FilterStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	query := `SELECT * FROM student WHERE 1=1`
	var args []interface{}
	if filter.ClassNumber != nil {
		args = append(args, *filter.ClassNumber)
		query += ` AND class_number = ?`
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		query += ` AND is_active = ?`
	}
	query += ` ORDER BY name`
	return repo.queryStudents(ctx, repo.db.Rebind(query), args...)
}

func (repo studentRepository) QueryClassNumbers(ctx context.Context) ([]int, error) {
	var classes []int
	if err := repo.db.SelectContext(ctx, &classes,
		`SELECT DISTINCT class_number FROM student ORDER BY class_number`,
	); err != nil {
		return nil, errors.Wrap(err, "querying class numbers")
	}
	return classes, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, st student.Student, isActive *bool) (student.Student, error) {
	if isActive != nil {
		st.IsActive = *isActive
	}
	row := newStudentRow(st)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE student
		SET name = :name, id_number = :id_number, parent_email = :parent_email,
		    class_number = :class_number, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrIDNumberExists
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	updated := row.toStudent()
	updated.WeekAttendance = st.WeekAttendance
	return updated, nil
}

func (repo studentRepository) DeleteStudentByID(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo studentRepository) SaveDayAttendance(ctx context.Context, studentID string, day core.Day, entries []student.AttendanceEntry) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM attendance_entry WHERE student_id = $1 AND day = $2`, studentID, day.String(),
		); err != nil {
			return errors.Wrap(err, "clearing day attendance")
		}
		for i, e := range entries {
			row := attendanceRow{
				StudentID: studentID,
				Day:       day.String(),
				LessonID:  e.LessonID,
				SlotIndex: e.SlotIndex,
				Status:    string(e.Status),
				Ord:       i,
			}
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO attendance_entry (student_id, day, lesson_id, slot_index, status, ord)
				VALUES (:student_id, :day, :lesson_id, :slot_index, :status, :ord)`,
				row,
			); err != nil {
				return errors.Wrap(err, "inserting attendance entry")
			}
		}
		return nil
	})
}

func (repo studentRepository) ResetAllWeeklyAttendance(ctx context.Context) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM attendance_entry`); err != nil {
		return errors.Wrap(err, "resetting weekly attendance")
	}
	return nil
}
