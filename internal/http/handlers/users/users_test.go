package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/services/auth"
	"github.com/princekumarofficial/familybook/internal/types"
	"github.com/princekumarofficial/familybook/internal/types/users"
	"github.com/princekumarofficial/familybook/internal/utils/response"
)

type fakeAuth struct {
	signUps  int
	signOuts []auth.Session
}

func (f *fakeAuth) SignUp(_ context.Context, req users.SignUpRequest) (users.User, types.Account, error) {
	f.signUps++
	if req.Password != req.ConfirmPassword {
		return users.User{}, types.Account{}, auth.ErrPasswordMismatch
	}
	if req.Email == "taken@example.com" {
		return users.User{}, types.Account{}, auth.ErrEmailTaken
	}
	return users.User{ID: "1", Email: req.Email, Username: req.Username},
		types.Account{ID: "7", OwnerID: "1", InviteCode: "ABCDEF0123"}, nil
}

func (f *fakeAuth) SignIn(_ context.Context, req users.SignInRequest) (string, auth.Session, error) {
	if req.Password != "secret123" {
		return "", auth.Session{}, auth.ErrInvalidCredentials
	}
	return "tok", auth.Session{UserID: "1", TokenID: "jti", ExpiresAt: time.Unix(1700000000, 0)}, nil
}

func (f *fakeAuth) SignOut(_ context.Context, s auth.Session) error {
	f.signOuts = append(f.signOuts, s)
	return nil
}

func (f *fakeAuth) Me(_ context.Context, s auth.Session) (users.Me, error) {
	return users.Me{User: users.User{ID: s.UserID}}, nil
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSignUp(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantError string
	}{
		{"empty body", "", http.StatusBadRequest, "request body cannot be empty"},
		{"invalid email", `{"email":"nope","username":"ann","password":"secret123","confirm_password":"secret123"}`, http.StatusBadRequest, "Email must be a valid email"},
		{"short password", `{"email":"a@b.co","username":"ann","password":"123","confirm_password":"123"}`, http.StatusBadRequest, "Password must be min 6"},
		{"confirmation mismatch", `{"email":"a@b.co","username":"ann","password":"secret123","confirm_password":"secret124"}`, http.StatusBadRequest, "passwords do not match"},
		{"email taken", `{"email":"taken@example.com","username":"ann","password":"secret123","confirm_password":"secret123"}`, http.StatusConflict, "email is already registered"},
		{"ok", `{"email":"a@b.co","username":"ann","password":"secret123","confirm_password":"secret123"}`, http.StatusCreated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(SignUp(&fakeAuth{}, zap.NewNop()), tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantError == "" {
				return
			}
			var resp response.Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !strings.Contains(resp.Error, tt.wantError) {
				t.Fatalf("expected error containing %q, got %q", tt.wantError, resp.Error)
			}
		})
	}
}

func TestSignUpValidationSkipsService(t *testing.T) {
	svc := &fakeAuth{}
	post(SignUp(svc, zap.NewNop()), `{"email":"nope"}`)
	if svc.signUps != 0 {
		t.Fatal("invalid input must not reach the auth service")
	}
}

func TestLogin(t *testing.T) {
	rec := post(Login(&fakeAuth{}, zap.NewNop()), `{"email":"a@b.co","password":"wrong123"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = post(Login(&fakeAuth{}, zap.NewNop()), `{"email":"a@b.co","password":"secret123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token != "tok" || resp.UserID != "1" || resp.ExpiresAt != 1700000000 {
		t.Fatalf("unexpected login response %+v", resp)
	}
}

func TestLogoutUsesContextSession(t *testing.T) {
	svc := &fakeAuth{}
	h := Logout(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	session := auth.Session{UserID: "1", TokenID: "jti"}
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req = req.WithContext(auth.WithSession(req.Context(), session))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.signOuts) != 1 || svc.signOuts[0].TokenID != "jti" {
		t.Fatalf("expected the context session to be revoked, got %+v", svc.signOuts)
	}
}
