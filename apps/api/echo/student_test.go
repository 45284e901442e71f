package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayalat/maarekhet/core/student"
)

func TestStudentEndpoints(t *testing.T) {
	app := newTestApp(t)
	token := getToken(t, app.createUser(t, "Sarah Peretz", "sarah", "Str0ng!Pass", false))

	tests := []httpTest{
		{
			name:   "create",
			method: http.MethodPost,
			path:   "/v1/students",
			body: marshallObj(t, student.NewStudent{
				Name:        "Tamar",
				IDNumber:    "123456782",
				ParentEmail: "parent@example.com",
				ClassNumber: 3,
			}),
			token:    token,
			wantCode: http.StatusCreated,
		},
		{
			name:   "duplicate ID number",
			method: http.MethodPost,
			path:   "/v1/students",
			body: marshallObj(t, student.NewStudent{
				Name:        "Other",
				IDNumber:    "123456782",
				ParentEmail: "other@example.com",
				ClassNumber: 1,
			}),
			token:    token,
			wantCode: http.StatusConflict,
			wantData: marshallObj(t, httpErr{Error: "a student with this ID number already exists"}),
		},
		{
			name:   "invalid ID number",
			method: http.MethodPost,
			path:   "/v1/students",
			body: marshallObj(t, student.NewStudent{
				Name:        "Bad",
				IDNumber:    "123456789",
				ParentEmail: "bad@example.com",
				ClassNumber: 1,
			}),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"id_number": "invalid ID number"}),
		},
		{
			name:     "unknown student",
			method:   http.MethodGet,
			path:     "/v1/students/missing",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "student not found"}),
		},
		{
			name:     "class with no students",
			method:   http.MethodGet,
			path:     "/v1/classes/9/students",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "no students found for this class"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestClassAttendanceFlow(t *testing.T) {
	app := newTestApp(t)
	token := getToken(t, app.createUser(t, "Sarah Peretz", "sarah", "Str0ng!Pass", false))

	app.createStudent(t, "Tamar", "123456782", 3)
	app.createStudent(t, "Noa", "314159260", 3)
	math := app.createLesson(t, "Math", "R. Cohen")

	slotIndex := 0
	payload := AttendanceUpdatePayload{
		Day:       "sunday",
		LessonID:  math.ID,
		SlotIndex: &slotIndex,
		Updates: []student.AttendanceUpdate{
			{IDNumber: "123456782", Status: student.StatusPresent},
			{IDNumber: "999999999", Status: student.StatusLate}, // unknown, skipped
		},
	}
	req, rec := newAuthRequest(http.MethodPut, "/v1/classes/3/attendance", token, marshallObj(t, payload))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	req, rec = newAuthRequest(
		http.MethodGet, "/v1/classes/3/attendance?day=sunday&lesson_id="+math.ID+"&slot_index=0", token)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var statuses []student.SlotStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &statuses); err != nil {
		t.Fatalf("unmarshalling statuses failed: %v", err)
	}
	assert.Len(t, statuses, 2)
	byIDNumber := make(map[string]student.Status, len(statuses))
	for _, s := range statuses {
		byIDNumber[s.IDNumber] = s.Status
	}
	assert.Equal(t, student.StatusPresent, byIDNumber["123456782"])
	assert.Equal(t, student.StatusAbsent, byIDNumber["314159260"])

	t.Run("invalid status rejected", func(t *testing.T) {
		payload.Updates = []student.AttendanceUpdate{{IDNumber: "123456782", Status: "Excused"}}
		req, rec := newAuthRequest(http.MethodPut, "/v1/classes/3/attendance", token, marshallObj(t, payload))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// listing classes lazily creates a blank schedule for every class seen.
func TestQueryClassesEnsuresSchedules(t *testing.T) {
	app := newTestApp(t)
	token := getToken(t, app.createUser(t, "Sarah Peretz", "sarah", "Str0ng!Pass", false))

	app.createStudent(t, "Tamar", "123456782", 3)
	app.createStudent(t, "Noa", "314159260", 5)

	req, rec := newAuthRequest(http.MethodGet, "/v1/classes", token)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Classes []int `json:"classes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling classes failed: %v", err)
	}
	assert.Equal(t, []int{3, 5}, resp.Classes)

	ctx := context.Background()
	for _, classNumber := range resp.Classes {
		if _, err := app.scheduleSvc.GetByClass(ctx, classNumber); err != nil {
			t.Errorf("GetByClass(%d) failed: %v", classNumber, err)
		}
	}
}

func TestReportEndpointsArePrincipalOnly(t *testing.T) {
	app := newTestApp(t)
	secretaryToken := getToken(t, app.createUser(t, "Sarah Peretz", "sarah", "Str0ng!Pass", false))
	principalToken := getToken(t, app.createUser(t, "Rivka Mizrahi", "rivka", "Str0ng!Pass", true))

	tests := []httpTest{
		{
			name:     "secretary cannot send reports",
			method:   http.MethodPost,
			path:     "/v1/reports/weekly",
			body:     marshallObj(t, student.ReportOptions{}),
			token:    secretaryToken,
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "principal sends reports",
			method:   http.MethodPost,
			path:     "/v1/reports/weekly",
			body:     marshallObj(t, student.ReportOptions{}),
			token:    principalToken,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, map[string]string{"message": "Weekly reports are being sent."}),
		},
		{
			name:     "secretary cannot reset attendance",
			method:   http.MethodPost,
			path:     "/v1/reports/attendance-reset",
			token:    secretaryToken,
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "principal resets attendance",
			method:   http.MethodPost,
			path:     "/v1/reports/attendance-reset",
			token:    principalToken,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, map[string]string{"message": "Weekly attendance has been reset."}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
