package student

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ayalat/maarekhet/core"
)

type reportTestRepo struct {
	Repository
	students []Student
}

func (r *reportTestRepo) FilterStudents(ctx context.Context, filter QueryFilter) ([]Student, error) {
	var students []Student
	for _, st := range r.students {
		if filter.IsActive != nil && st.IsActive != *filter.IsActive {
			continue
		}
		students = append(students, st)
	}
	return students, nil
}

type reportTestMailService struct {
	mu       sync.Mutex
	sent     []*core.EmailMessage
	inFlight int32
	maxSeen  int32
	failFor  string // recipient address that fails
}

func (m *reportTestMailService) SendMessage(msg *core.EmailMessage) error {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		max := atomic.LoadInt32(&m.maxSeen)
		if n <= max || atomic.CompareAndSwapInt32(&m.maxSeen, max, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond) // let sends overlap

	if m.failFor != "" && msg.To[0].Address == m.failFor {
		return &core.EmailDeliveryError{Recipient: m.failFor, Err: context.DeadlineExceeded}
	}
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

func (m *reportTestMailService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		_ = m.SendMessage(msg)
	}
}

type reportTestLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *reportTestLogger) Debug(msg string, args ...interface{}) {}
func (l *reportTestLogger) Info(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}
func (l *reportTestLogger) Warn(msg string, args ...interface{}) {}
func (l *reportTestLogger) Error(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}
func (l *reportTestLogger) Fatal(msg string, args ...interface{}) {}

func reportStudent(name, email string, active bool, sunday []AttendanceEntry) Student {
	return Student{
		ID:          name,
		Name:        name,
		IDNumber:    "123456782",
		ParentEmail: email,
		ClassNumber: 1,
		IsActive:    active,
		WeekAttendance: WeekAttendance{
			Sunday: sunday,
		},
	}
}

func attended(status Status) []AttendanceEntry {
	return []AttendanceEntry{{LessonID: "math", SlotIndex: 0, Status: status}}
}

func TestSendWeeklyReportsConcurrencyCap(t *testing.T) {
	var students []Student
	for i := 0; i < 20; i++ {
		students = append(students, reportStudent("Student", "parent@example.com", true, attended(StatusPresent)))
	}
	mailSvc := &reportTestMailService{}
	svc := &service{
		repo:    &reportTestRepo{students: students},
		mailSvc: mailSvc,
		logger:  &reportTestLogger{},
	}

	if err := svc.SendWeeklyReports(context.Background(), ReportOptions{}); err != nil {
		t.Fatalf("SendWeeklyReports() failed: %v", err)
	}
	if got := len(mailSvc.sent); got != 20 {
		t.Errorf("sent %d messages, want 20", got)
	}
	if max := atomic.LoadInt32(&mailSvc.maxSeen); max > maxConcurrentSends {
		t.Errorf("saw %d concurrent sends, cap is %d", max, maxConcurrentSends)
	}
}

func TestSendWeeklyReportsSkipsAndFailures(t *testing.T) {
	students := []Student{
		reportStudent("Tamar", "tamar@example.com", true, attended(StatusPresent)),
		reportStudent("Noa", "noa@example.com", true, nil), // nothing recorded, skipped
		reportStudent("Rivka", "rivka@example.com", true, attended(StatusLate)),
		reportStudent("Gone", "gone@example.com", false, attended(StatusAbsent)), // inactive
	}
	mailSvc := &reportTestMailService{failFor: "rivka@example.com"}
	logger := &reportTestLogger{}
	svc := &service{
		repo:    &reportTestRepo{students: students},
		mailSvc: mailSvc,
		logger:  logger,
	}

	if err := svc.SendWeeklyReports(context.Background(), ReportOptions{}); err != nil {
		t.Fatalf("SendWeeklyReports() failed: %v", err)
	}

	if got := len(mailSvc.sent); got != 1 {
		t.Fatalf("sent %d messages, want 1", got)
	}
	if got := mailSvc.sent[0].To[0].Address; got != "tamar@example.com" {
		t.Errorf("sent to %q, want tamar@example.com", got)
	}
	if !strings.Contains(mailSvc.sent[0].TextContent, "Attached is your daughter's attendance") {
		t.Error("default body text not used when BodyText is empty")
	}

	foundSkip := false
	for _, msg := range logger.infos {
		if strings.Contains(msg, "Noa") {
			foundSkip = true
		}
	}
	if !foundSkip {
		t.Error("empty-ledger skip not logged")
	}
	if len(logger.errors) != 1 || !strings.Contains(logger.errors[0], "rivka@example.com") {
		t.Errorf("failed send log = %v, want one entry for rivka@example.com", logger.errors)
	}
}

func TestSendWeeklyReportsCustomBody(t *testing.T) {
	students := []Student{
		reportStudent("Tamar", "tamar@example.com", true, attended(StatusPresent)),
	}
	mailSvc := &reportTestMailService{}
	svc := &service{
		repo:    &reportTestRepo{students: students},
		mailSvc: mailSvc,
		logger:  &reportTestLogger{},
	}

	opts := ReportOptions{BodyText: "Shalom,\n\nSee below.", Title: "Week 3"}
	if err := svc.SendWeeklyReports(context.Background(), opts); err != nil {
		t.Fatalf("SendWeeklyReports() failed: %v", err)
	}
	if got := len(mailSvc.sent); got != 1 {
		t.Fatalf("sent %d messages, want 1", got)
	}
	msg := mailSvc.sent[0]
	if !strings.Contains(msg.TextContent, "Shalom,") {
		t.Error("custom body text not used")
	}
	if !strings.Contains(msg.HTMLContent, "Tamar - Week 3") {
		t.Error("title not appended to the table heading")
	}
	if !strings.Contains(msg.HTMLContent, "<p>Shalom,</p>") {
		t.Error("intro paragraph missing from HTML body")
	}
}

func TestBuildReportTable(t *testing.T) {
	st := reportStudent("Tamar", "tamar@example.com", true, []AttendanceEntry{
		{LessonID: "math", SlotIndex: 0, Status: StatusPresent},
		{LessonID: "bible", SlotIndex: 1, Status: StatusLate},
	})
	st.WeekAttendance.Monday = []AttendanceEntry{
		{LessonID: "math", SlotIndex: 0, Status: StatusAbsent},
	}

	html := buildReportTable(st, "", "", st.WeekAttendance.MaxSlotCount())

	if strings.Contains(html, "Tamar - ") {
		t.Error("heading has a title separator with no title set")
	}
	for _, want := range []string{
		">Tamar<",
		"Lesson 1", "Lesson 2",
		"<td>P</td>",
		"<td>L</td>",
		"<td>A</td>",
		"Sunday", "Thursday",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("table missing %q", want)
		}
	}
}

func TestSymbolAt(t *testing.T) {
	entries := []AttendanceEntry{
		{LessonID: "math", SlotIndex: 1, Status: StatusLate},
	}
	if got := symbolAt(entries, 1); got != "L" {
		t.Errorf("symbolAt(1) = %q, want L", got)
	}
	if got := symbolAt(entries, 0); got != "" {
		t.Errorf("symbolAt(0) = %q, want empty", got)
	}
}
