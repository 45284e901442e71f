package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	locen "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/ayalat/maarekhet/core"
	"github.com/ayalat/maarekhet/core/lesson"
	"github.com/ayalat/maarekhet/core/schedule"
	"github.com/ayalat/maarekhet/core/student"
	"github.com/ayalat/maarekhet/core/user"
	emailsvc "github.com/ayalat/maarekhet/services/email"
	logsvc "github.com/ayalat/maarekhet/services/logger"
	inmemdb "github.com/ayalat/maarekhet/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type testApp struct {
	server      *Server
	usrSvc      user.Service
	lessonSvc   lesson.Service
	scheduleSvc schedule.Service
	studentSvc  student.Service
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	conf := &core.Config{
		TestMode:             true,
		Env:                  "TEST",
		AppName:              "Maarekhet",
		SecretKey:            []byte("secret"),
		FrontendBaseURL:      "http://localhost:3000",
		PasswordResetTimeout: time.Hour,
		Server: core.ServerConfig{
			Addr:               ":0",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: 10 * time.Minute,
		},
	}

	db := inmemdb.NewDB()
	userRepo := inmemdb.NewUserRepository(db)
	lessonRepo := inmemdb.NewLessonRepository(db)
	scheduleRepo := inmemdb.NewScheduleRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)

	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	usrSvc := user.NewService(userRepo, mailSvc, conf)
	lessonSvc := lesson.NewService(lessonRepo, scheduleRepo)
	scheduleSvc := schedule.NewService(scheduleRepo, lessonRepo)
	studentSvc := student.NewService(studentRepo, mailSvc, logger)

	validate, translator := newTestValidator(t)

	server := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     usrSvc,
		LessonSvc:   lessonSvc,
		ScheduleSvc: scheduleSvc,
		StudentSvc:  studentSvc,
		Validate:    validate,
		Translator:  translator,
	})

	return &testApp{
		server:      server,
		usrSvc:      usrSvc,
		lessonSvc:   lessonSvc,
		scheduleSvc: scheduleSvc,
		studentSvc:  studentSvc,
	}
}

func newTestValidator(t *testing.T) (*validator.Validate, ut.Translator) {
	t.Helper()
	validate := validator.New()
	_en := locen.New()
	uni := ut.New(_en, _en)
	translator, ok := uni.GetTranslator("en")
	if !ok {
		t.Fatal("en translator not found")
	}
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	return validate, translator
}

func (app *testApp) createUser(t *testing.T, name, uname, pwd string, isPrincipal bool) user.User {
	t.Helper()
	role := user.RoleSecretary
	if isPrincipal {
		role = user.RolePrincipal
	}
	usr, err := app.usrSvc.Create(context.Background(), user.NewUser{
		Name:     name,
		Username: uname,
		Email:    uname + "@example.com",
		Role:     role,
		Password: pwd,
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (app *testApp) createStudent(t *testing.T, name, idNumber string, classNumber int) student.Student {
	t.Helper()
	st, err := app.studentSvc.Create(context.Background(), student.NewStudent{
		Name:        name,
		IDNumber:    idNumber,
		ParentEmail: "parent@example.com",
		ClassNumber: classNumber,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return st
}

func (app *testApp) createLesson(t *testing.T, name, teacher string) lesson.Lesson {
	t.Helper()
	les, err := app.lessonSvc.Create(context.Background(), lesson.NewLesson{Name: name, Teacher: teacher})
	if err != nil {
		t.Fatalf("createLesson() failed: %v", err)
	}
	return les
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
