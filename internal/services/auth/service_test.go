package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/familybook/internal/storage"
	"github.com/princekumarofficial/familybook/internal/types"
	"github.com/princekumarofficial/familybook/internal/types/users"
)

type fakeUserStore struct {
	users       map[string]users.User
	byEmail     map[string]string
	accounts    []types.Account
	takenCodes  map[string]bool
	createCalls int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:      make(map[string]users.User),
		byEmail:    make(map[string]string),
		takenCodes: make(map[string]bool),
	}
}

func (f *fakeUserStore) CreateUser(_ context.Context, email, username, hash string) (string, error) {
	f.createCalls++
	if _, ok := f.byEmail[email]; ok {
		return "", storage.ErrAlreadyExists
	}
	id := fmt.Sprintf("%d", len(f.users)+1)
	f.users[id] = users.User{ID: id, Email: email, Username: username, Password: hash, CreatedAt: time.Now()}
	f.byEmail[email] = id
	return id, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (users.User, error) {
	id, ok := f.byEmail[email]
	if !ok {
		return users.User{}, storage.ErrNotFound
	}
	return f.users[id], nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (users.User, error) {
	u, ok := f.users[id]
	if !ok {
		return users.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) CreateAccount(_ context.Context, ownerID, title, code string) (types.Account, error) {
	if f.takenCodes[code] {
		return types.Account{}, storage.ErrAlreadyExists
	}
	acc := types.Account{ID: fmt.Sprintf("acc-%s", ownerID), OwnerID: ownerID, Title: title, InviteCode: code}
	f.takenCodes[code] = true
	f.accounts = append(f.accounts, acc)
	return acc, nil
}

func (f *fakeUserStore) ListAccountsForUser(_ context.Context, userID string) ([]types.Account, error) {
	var out []types.Account
	for _, a := range f.accounts {
		if a.OwnerID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *fakeUserStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	store := newFakeUserStore()
	return NewService(store, NewRedisRevocations(client), "test-secret", time.Hour, nil), store
}

func signUpRequest() users.SignUpRequest {
	return users.SignUpRequest{
		Email:           "Ann@Example.com",
		Username:        "ann",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}
}

func TestSignUpRejectsPasswordMismatch(t *testing.T) {
	svc, store := newTestService(t)

	req := signUpRequest()
	req.ConfirmPassword = "different"

	_, _, err := svc.SignUp(context.Background(), req)
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
	if store.createCalls != 0 {
		t.Fatal("storage must not be touched on a confirmation mismatch")
	}
}

func TestSignUpCreatesOwnedAccount(t *testing.T) {
	svc, _ := newTestService(t)

	user, account, err := svc.SignUp(context.Background(), signUpRequest())
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.Email != "ann@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if account.OwnerID != user.ID {
		t.Fatalf("account owner %q != user %q", account.OwnerID, user.ID)
	}
	if len(account.InviteCode) != 10 || account.InviteCode != strings.ToUpper(account.InviteCode) {
		t.Fatalf("unexpected invite code %q", account.InviteCode)
	}

	if _, _, err := svc.SignUp(context.Background(), signUpRequest()); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken on duplicate sign up, got %v", err)
	}
}

func TestSignInAndAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.SignUp(ctx, signUpRequest()); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	if _, _, err := svc.SignIn(ctx, users.SignInRequest{Email: "ann@example.com", Password: "wrong-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.SignIn(ctx, users.SignInRequest{Email: "nobody@example.com", Password: "secret123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	token, session, err := svc.SignIn(ctx, users.SignInRequest{Email: "ann@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	got, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.UserID != session.UserID || got.TokenID != session.TokenID {
		t.Fatalf("session mismatch: %+v vs %+v", got, session)
	}

	me, err := svc.Me(ctx, got)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.User.ID != session.UserID || len(me.Accounts) != 1 {
		t.Fatalf("unexpected me: %+v", me)
	}
}

func TestSignOutRevokesToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.SignUp(ctx, signUpRequest()); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	token, session, err := svc.SignIn(ctx, users.SignInRequest{Email: "ann@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	if err := svc.SignOut(ctx, session); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}

	// A fresh sign-in is unaffected.
	fresh, _, err := svc.SignIn(ctx, users.SignInRequest{Email: "ann@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("sign in again: %v", err)
	}
	if _, err := svc.Authenticate(ctx, fresh); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t)

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.Authenticate(context.Background(), raw); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for %q, got %v", raw, err)
		}
	}
}

func TestSessionContext(t *testing.T) {
	if _, ok := SessionFromContext(context.Background()); ok {
		t.Fatal("expected no session on a bare context")
	}

	ctx := WithSession(context.Background(), Session{UserID: "7"})
	session, ok := SessionFromContext(ctx)
	if !ok || session.UserID != "7" {
		t.Fatalf("unexpected session %+v ok=%v", session, ok)
	}
}
