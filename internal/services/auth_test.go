package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/PatelJay-25/SlotSwapper-Project/internal/apierr"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/repos"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/requestdata"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/types"
)

func newAuthService(t *testing.T) (AuthService, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	log := newTestLogger(t)
	userRepo := repos.NewUserRepo(env.db, log)
	userTokenRepo := repos.NewUserTokenRepo(env.db, log)
	svc := NewAuthService(env.db, log, userRepo, userTokenRepo, "test-secret", time.Hour)
	return svc, env
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user := &types.User{Name: "Alice Smith", Email: "Alice@Example.com", Password: "hunter22"}
	token, created, err := svc.Signup(ctx, user)
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if token == "" {
		t.Fatalf("Signup must issue a token")
	}
	if created.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", created.Email)
	}
	if created.Password == "hunter22" {
		t.Fatalf("password stored in plaintext")
	}

	loginToken, loggedIn, err := svc.Login(ctx, "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loginToken == "" || loggedIn.ID != created.ID {
		t.Fatalf("login mismatch")
	}

	_, _, err = svc.Login(ctx, "alice@example.com", "wrong")
	assertAPIError(t, err, http.StatusUnauthorized, "INVALID_CREDENTIALS")
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, &types.User{Name: "Alice", Email: "", Password: "pw"})
	assertAPIError(t, err, http.StatusBadRequest, apierr.CodeValidation)

	_, _, err = svc.Signup(ctx, &types.User{Name: "Al1ce", Email: "a@example.com", Password: "pw"})
	assertAPIError(t, err, http.StatusBadRequest, apierr.CodeValidation)

	if _, _, err := svc.Signup(ctx, &types.User{Name: "Alice", Email: "dup@example.com", Password: "pw"}); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	_, _, err = svc.Signup(ctx, &types.User{Name: "Bob", Email: "dup@example.com", Password: "pw"})
	assertAPIError(t, err, http.StatusConflict, apierr.CodeConflict)
}

func TestTokenRoundTripAndLogout(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user := &types.User{Name: "Alice", Email: "alice@example.com", Password: "pw"}
	token, created, err := svc.Signup(ctx, user)
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	authedCtx, err := svc.SetContextFromToken(ctx, token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(authedCtx)
	if rd == nil || rd.UserID != created.ID {
		t.Fatalf("token did not resolve to the signed-up user")
	}

	if err := svc.Logout(authedCtx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.SetContextFromToken(ctx, token); err == nil {
		t.Fatalf("revoked token must not authenticate")
	}
}
