package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ayalat/maarekhet/core"
	"github.com/ayalat/maarekhet/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db.student}
}

func copyWeekAttendance(w student.WeekAttendance) student.WeekAttendance {
	var cp student.WeekAttendance
	for _, d := range core.Days {
		entries := w.Day(d)
		if entries == nil {
			continue
		}
		cp.SetDay(d, append([]student.AttendanceEntry(nil), entries...))
	}
	return cp
}

func copyStudent(st student.Student) student.Student {
	cp := st
	cp.WeekAttendance = copyWeekAttendance(st.WeekAttendance)
	return cp
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, st := range repo.db.table {
		students = append(students, copyStudent(*st))
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].ClassNumber != students[j].ClassNumber {
			return students[i].ClassNumber < students[j].ClassNumber
		}
		return students[i].Name < students[j].Name
	})
	return students
}

func (repo *studentRepository) CheckIDNumberUniqueness(ctx context.Context, idNumber string, excludedStudents ...student.Student) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]struct{}, len(excludedStudents))
	for _, st := range excludedStudents {
		excluded[st.ID] = struct{}{}
	}

	for _, st := range repo.db.table {
		if _, ok := excluded[st.ID]; ok {
			continue
		}
		if st.IDNumber == idNumber {
			return student.ErrIDNumberExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	st.ID = uuid.New().String()
	cp := copyStudent(st)
	repo.db.table[st.ID] = &cp
	return st, nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if st, ok := repo.db.table[id]; ok {
		return copyStudent(*st), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) FilterStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var students []student.Student
	for _, st := range repo.query() {
		if filter.ClassNumber != nil && st.ClassNumber != *filter.ClassNumber {
			continue
		}
		if filter.IsActive != nil && st.IsActive != *filter.IsActive {
			continue
		}
		students = append(students, st)
	}
	return students, nil
}

func (repo *studentRepository) QueryClassNumbers(ctx context.Context) ([]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	seen := make(map[int]struct{})
	var classes []int
	for _, st := range repo.db.table {
		if _, ok := seen[st.ClassNumber]; !ok {
			seen[st.ClassNumber] = struct{}{}
			classes = append(classes, st.ClassNumber)
		}
	}
	sort.Ints(classes)
	return classes, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, st student.Student, isActive *bool) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[st.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	if isActive != nil {
		st.IsActive = *isActive
	}
	st.WeekAttendance = copyWeekAttendance(orig.WeekAttendance)
	cp := copyStudent(st)
	repo.db.table[st.ID] = &cp
	return st, nil
}

func (repo *studentRepository) DeleteStudentByID(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *studentRepository) SaveDayAttendance(ctx context.Context, studentID string, day core.Day, entries []student.AttendanceEntry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	st, ok := repo.db.table[studentID]
	if !ok {
		return student.ErrNotFound
	}
	st.WeekAttendance.SetDay(day, append([]student.AttendanceEntry(nil), entries...))
	return nil
}

func (repo *studentRepository) ResetAllWeeklyAttendance(ctx context.Context) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, st := range repo.db.table {
		st.WeekAttendance = student.WeekAttendance{}
	}
	return nil
}
