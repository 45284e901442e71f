package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ayalat/maarekhet/core"
)

var (
	// errors
	ErrNotFound       = errors.New("student not found")
	ErrClassNotFound  = errors.New("no students found for this class")
	ErrIDNumberExists = errors.New("a student with this ID number already exists")
)

type (
	// QueryFilter applies AND operation on available fields.
	QueryFilter struct {
		ClassNumber *int
		IsActive    *bool
	}

	Repository interface {
		CheckIDNumberUniqueness(ctx context.Context, idNumber string, excludedStudents ...Student) error
		CreateStudent(ctx context.Context, st Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		FilterStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
		// QueryClassNumbers returns the distinct class numbers present in the
		// student collection.
		QueryClassNumbers(ctx context.Context) ([]int, error)
		UpdateStudent(ctx context.Context, st Student, isActive *bool) (Student, error)
		DeleteStudentByID(ctx context.Context, id string) error
		// SaveDayAttendance persists one student's day-bucket wholesale.
		SaveDayAttendance(ctx context.Context, studentID string, day core.Day, entries []AttendanceEntry) error
		// ResetAllWeeklyAttendance clears every student's five day-buckets in
		// a single bulk operation.
		ResetAllWeeklyAttendance(ctx context.Context) error
	}

	// SlotStatus is the per-student read model of one lesson occurrence.
	SlotStatus struct {
		IDNumber string `json:"id_number"`
		Name     string `json:"name"`
		Status   Status `json:"status"`
	}

	// AttendanceUpdate sets one student's status for one lesson occurrence.
	AttendanceUpdate struct {
		IDNumber string `json:"id_number" validate:"required"`
		Status   Status `json:"status" validate:"required,status"`
	}

	Service interface {
		Create(ctx context.Context, ns NewStudent) (Student, error)
		QueryAll(ctx context.Context) ([]Student, error)
		GetByID(ctx context.Context, id string) (Student, error)
		GetByClass(ctx context.Context, classNumber int) ([]Student, error)
		ListClasses(ctx context.Context) ([]int, error)
		Update(ctx context.Context, id string, us UpdateStudent) (Student, error)
		ToggleActive(ctx context.Context, id string) (Student, error)
		Delete(ctx context.Context, id string) error

		AttendanceForSlot(ctx context.Context, classNumber int, day core.Day, lessonID string, slotIndex int) ([]SlotStatus, error)
		UpdateAttendance(ctx context.Context, classNumber int, day core.Day, lessonID string, slotIndex int, updates []AttendanceUpdate) error
		ResetWeeklyAttendance(ctx context.Context) error
		SendWeeklyReports(ctx context.Context, opts ReportOptions) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func (svc *service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if err := svc.repo.CheckIDNumberUniqueness(ctx, ns.IDNumber); err != nil {
		return Student{}, err
	}

	now := time.Now().UTC()
	st := Student{
		Name:        ns.Name,
		IDNumber:    ns.IDNumber,
		ParentEmail: ns.ParentEmail,
		ClassNumber: ns.ClassNumber,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateStudent(ctx, st)
}

func (svc *service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *service) GetByClass(ctx context.Context, classNumber int) ([]Student, error) {
	students, err := svc.repo.FilterStudents(ctx, QueryFilter{ClassNumber: &classNumber})
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, ErrClassNotFound
	}
	return students, nil
}

func (svc *service) ListClasses(ctx context.Context) ([]int, error) {
	return svc.repo.QueryClassNumbers(ctx)
}

func (svc *service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	existing, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}

	if existing.IDNumber != us.IDNumber {
		if err = svc.repo.CheckIDNumberUniqueness(ctx, us.IDNumber, existing); err != nil {
			return Student{}, err
		}
	}

	existing.Name = us.Name
	existing.IDNumber = us.IDNumber
	existing.ParentEmail = us.ParentEmail
	existing.ClassNumber = us.ClassNumber
	existing.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, existing, nil)
}

func (svc *service) ToggleActive(ctx context.Context, id string) (Student, error) {
	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	active := !st.IsActive
	st.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, st, &active)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteStudentByID(ctx, id)
}

// AttendanceForSlot reports every student of the class for one lesson
// occurrence; students without a matching entry report Absent.
func (svc *service) AttendanceForSlot(ctx context.Context, classNumber int, day core.Day, lessonID string, slotIndex int) ([]SlotStatus, error) {
	students, err := svc.repo.FilterStudents(ctx, QueryFilter{ClassNumber: &classNumber})
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, ErrClassNotFound
	}

	lessonID = core.CleanString(lessonID)

	statuses := make([]SlotStatus, 0, len(students))
	for i := range students {
		statuses = append(statuses, SlotStatus{
			IDNumber: students[i].IDNumber,
			Name:     students[i].Name,
			Status:   students[i].WeekAttendance.StatusAt(day, lessonID, slotIndex),
		})
	}
	return statuses, nil
}

// UpdateAttendance upserts one lesson occurrence's statuses for a class:
// an existing (lessonID, slotIndex) entry is overwritten in place, otherwise a
// new entry is appended — never duplicated. Updates naming unknown student ID
// numbers are skipped so one bad row cannot abort the batch. One write per
// affected student.
func (svc *service) UpdateAttendance(ctx context.Context, classNumber int, day core.Day, lessonID string, slotIndex int, updates []AttendanceUpdate) error {
	students, err := svc.repo.FilterStudents(ctx, QueryFilter{ClassNumber: &classNumber})
	if err != nil {
		return err
	}

	lessonID = core.CleanString(lessonID)

	byIDNumber := make(map[string]*Student, len(students))
	for i := range students {
		byIDNumber[students[i].IDNumber] = &students[i]
	}

	for _, upd := range updates {
		st, ok := byIDNumber[upd.IDNumber]
		if !ok {
			continue
		}

		entries := st.WeekAttendance.Day(day)
		if i := findEntry(entries, lessonID, slotIndex); i >= 0 {
			entries[i].Status = upd.Status
		} else {
			entries = append(entries, AttendanceEntry{
				LessonID:  lessonID,
				SlotIndex: slotIndex,
				Status:    upd.Status,
			})
		}
		st.WeekAttendance.SetDay(day, entries)

		if err = svc.repo.SaveDayAttendance(ctx, st.ID, day, entries); err != nil {
			return errors.Wrapf(err, "saving attendance for student %s", st.IDNumber)
		}
	}
	return nil
}

// ResetWeeklyAttendance clears all students' ledgers in one bulk write.
func (svc *service) ResetWeeklyAttendance(ctx context.Context) error {
	return svc.repo.ResetAllWeeklyAttendance(ctx)
}
