package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"testing"

	"github.com/ayalat/maarekhet/core"
	"github.com/ayalat/maarekhet/core/student"
	"github.com/ayalat/maarekhet/core/user"
	inmemdb "github.com/ayalat/maarekhet/storage/database/inmem"
)

var (
	usrRepo     user.Repository
	studentRepo student.Repository
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	db := inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	studentRepo = inmemdb.NewStudentRepository(db)

	return &commandLine{
		usrRepo:     usrRepo,
		studentRepo: studentRepo,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "down", "redo", "reset", "status", "version": // pass
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "missing flags", args: []string{"adduser", "-username", "sarah"}, wantErr: errHelp},
		{
			name:    "empty password",
			args:    []string{"adduser", "-username", "sarah", "-email", "sarah@example.com", "-name", "Sarah"},
			wantErr: errHelp,
		},
		{
			name:  "create secretary",
			args:  []string{"adduser", "-username", "Sarah", "-email", "SARAH@example.com", "-name", "Sarah Peretz"},
			extra: extra{pwd: "Str0ng!Pass"},
		},
		{
			name:  "update existing and promote",
			args:  []string{"adduser", "-username", "sarah", "-email", "sarah@example.com", "-name", "Sarah Peretz", "-principal"},
			extra: extra{pwd: "N3w!Password"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// the same username must resolve to one account, now a principal
	usr, err := usrRepo.GetUserByUsername(context.Background(), "sarah")
	if err != nil {
		t.Fatalf("GetUserByUsername() failed: %v", err)
	}
	if usr.Email != "sarah@example.com" || usr.Name != "Sarah Peretz" {
		t.Errorf("user = %+v, want cleaned email and name", usr)
	}
	if !usr.IsPrincipal() {
		t.Error("user not promoted to principal")
	}
	if err = usr.CheckPassword("N3w!Password"); err != nil {
		t.Error("password not updated on second run")
	}

	users, err := usrRepo.QueryAllUsers(context.Background())
	if err != nil {
		t.Fatalf("QueryAllUsers() failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("found %d users, want 1", len(users))
	}
}

func Test_commandLine_resetAttendance(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	st, err := studentRepo.CreateStudent(ctx, student.Student{
		Name:        "Tamar",
		IDNumber:    "123456782",
		ClassNumber: 3,
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	entries := []student.AttendanceEntry{{LessonID: "math", SlotIndex: 0, Status: student.StatusPresent}}
	if err = studentRepo.SaveDayAttendance(ctx, st.ID, core.Sunday, entries); err != nil {
		t.Fatalf("SaveDayAttendance() failed: %v", err)
	}

	if err = cli.run([]string{"admin", "resetattendance"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	st, err = studentRepo.GetStudentByID(ctx, st.ID)
	if err != nil {
		t.Fatalf("GetStudentByID() failed: %v", err)
	}
	if n := st.WeekAttendance.MaxSlotCount(); n != 0 {
		t.Errorf("MaxSlotCount() = %d after reset, want 0", n)
	}
}
