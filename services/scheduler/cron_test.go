package schedulersvc

import (
	"context"
	"testing"

	"github.com/ayalat/maarekhet/core"
	"github.com/ayalat/maarekhet/core/student"
)

type fakeStudentService struct {
	student.Service
	resetCalls int
}

func (svc *fakeStudentService) ResetWeeklyAttendance(ctx context.Context) error {
	svc.resetCalls++
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func TestNewScheduler(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{"weekly sunday midnight", "0 0 * * 0", false},
		{"every minute", "* * * * *", false},
		{"garbage spec", "not a cron spec", true},
		{"too few fields", "0 0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &core.Config{WeeklyResetSchedule: tt.spec}
			_, err := NewScheduler(conf, nopLogger{}, &fakeStudentService{})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewScheduler() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchedulerStartStop(t *testing.T) {
	conf := &core.Config{WeeklyResetSchedule: "0 0 * * 0"}
	svc := &fakeStudentService{}
	s, err := NewScheduler(conf, nopLogger{}, svc)
	if err != nil {
		t.Fatalf("NewScheduler() failed: %v", err)
	}

	s.Start()
	s.Stop()

	// the weekly spec must not have fired during the test
	if svc.resetCalls != 0 {
		t.Errorf("resetCalls = %d, want 0", svc.resetCalls)
	}
}
