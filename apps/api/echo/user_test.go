package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayalat/maarekhet/core/user"
)

func TestUserLogin(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "Sarah Peretz", "sarah", "Str0ng!Pass", false)

	inactive := app.createUser(t, "Gone Away", "gone", "Str0ng!Pass", false)
	deactivated := false
	if _, err := app.usrSvc.Update(context.Background(), inactive.ID, user.UpdateUser{IsActive: &deactivated}); err != nil {
		t.Fatalf("deactivating user failed: %v", err)
	}

	tests := []httpTest{
		{
			name:     "ok",
			body:     marshallObj(t, LoginRequest{Username: "Sarah", Password: "Str0ng!Pass"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "unknown username",
			body:     marshallObj(t, LoginRequest{Username: "nobody", Password: "Str0ng!Pass"}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			body:     marshallObj(t, LoginRequest{Username: "sarah", Password: "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated account",
			body:     marshallObj(t, LoginRequest{Username: "gone", Password: "Str0ng!Pass"}),
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name:     "missing fields",
			body:     marshallObj(t, LoginRequest{}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling LoginResponse failed: %v", err)
				}
				assert.NotEmpty(t, resp.Token)
			}
		})
	}
}

func TestUserAccessControl(t *testing.T) {
	app := newTestApp(t)
	secretary := app.createUser(t, "Sarah Peretz", "sarah", "Str0ng!Pass", false)
	principal := app.createUser(t, "Rivka Mizrahi", "rivka", "Str0ng!Pass", true)

	secretaryToken := getToken(t, secretary)
	principalToken := getToken(t, principal)

	tests := []httpTest{
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/v1/users",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "secretary cannot list users",
			method:   http.MethodGet,
			path:     "/v1/users",
			token:    secretaryToken,
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "principal lists users",
			method:   http.MethodGet,
			path:     "/v1/users",
			token:    principalToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "secretary reads own account",
			method:   http.MethodGet,
			path:     "/v1/users/" + secretary.ID,
			token:    secretaryToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "secretary cannot read another account",
			method:   http.MethodGet,
			path:     "/v1/users/" + principal.ID,
			token:    secretaryToken,
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "principal reads any account",
			method:   http.MethodGet,
			path:     "/v1/users/" + secretary.ID,
			token:    principalToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "unknown account",
			method:   http.MethodGet,
			path:     "/v1/users/missing",
			token:    principalToken,
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "user not found"}),
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

func TestUserPasswordResetNoLeak(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "Sarah Peretz", "sarah", "Str0ng!Pass", false)

	wantData := marshallObj(t, map[string]string{"message": "If the account exists, a reset email has been sent."})
	tests := []httpTest{
		{
			name:     "existing account",
			body:     marshallObj(t, PasswordResetRequest{Username: "sarah"}),
			wantCode: http.StatusOK,
			wantData: wantData,
		},
		{
			name:     "unknown account looks the same",
			body:     marshallObj(t, PasswordResetRequest{Username: "nobody"}),
			wantCode: http.StatusOK,
			wantData: wantData,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
