package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hourtrim/core/auth"
	"hourtrim/core/errs"
	"hourtrim/internal/testsupport"
)

func newService(t *testing.T) (*auth.Service, *testsupport.MemoryUserRepository) {
	t.Helper()
	repo := testsupport.NewMemoryUserRepository()
	return auth.NewService(repo, auth.NewTokenManager("test-secret", 7*24*time.Hour)), repo
}

func TestSignupThenLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, tc := range []struct{ user, pass string }{
		{"alice", "hunter2"},
		{"bob", "correct horse battery staple"},
		{"ünïcode", "pässwörd"},
	} {
		if err := svc.Signup(ctx, tc.user, tc.pass); err != nil {
			t.Fatalf("Signup(%q): %v", tc.user, err)
		}
		token, err := svc.Login(ctx, tc.user, tc.pass)
		if err != nil {
			t.Fatalf("Login(%q): %v", tc.user, err)
		}
		claims, err := svc.Tokens().ParseToken(token)
		if err != nil {
			t.Fatalf("ParseToken: %v", err)
		}
		if claims.Username != tc.user || claims.UserID == 0 {
			t.Fatalf("claims = %+v", claims)
		}
	}
}

func TestSignupStoresHashNotPassword(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	if err := svc.Signup(ctx, "alice", "hunter2"); err != nil {
		t.Fatal(err)
	}
	u, _ := repo.GetUserByUsername(ctx, "alice")
	if u.PasswordHash == "hunter2" || !strings.HasPrefix(u.PasswordHash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", u.PasswordHash)
	}
}

func TestSignupMissingFields(t *testing.T) {
	svc, repo := newService(t)
	for _, tc := range []struct{ user, pass string }{{"", "x"}, {"x", ""}, {"  ", "x"}} {
		err := svc.Signup(context.Background(), tc.user, tc.pass)
		if !errors.Is(err, errs.ErrValidation) || errs.Message(err, "") != auth.MsgMissingFields {
			t.Fatalf("Signup(%q, %q) err = %v", tc.user, tc.pass, err)
		}
	}
	if repo.Count() != 0 {
		t.Fatal("nothing should be stored")
	}
}

func TestSignupDuplicateRegardlessOfPassword(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	if err := svc.Signup(ctx, "alice", "first"); err != nil {
		t.Fatal(err)
	}
	for _, pass := range []string{"first", "second", "x"} {
		err := svc.Signup(ctx, "alice", pass)
		if !errors.Is(err, errs.ErrValidation) || errs.Message(err, "") != auth.MsgUserExists {
			t.Fatalf("duplicate signup err = %v", err)
		}
	}
	if repo.Count() != 1 {
		t.Fatalf("Count = %d", repo.Count())
	}
}

func TestSignupPasswordTooLong(t *testing.T) {
	svc, _ := newService(t)
	err := svc.Signup(context.Background(), "alice", strings.Repeat("x", 100))
	if errs.Message(err, "") != auth.MsgPasswordTooLong {
		t.Fatalf("err = %v", err)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	if err := svc.Signup(ctx, "alice", "hunter2"); err != nil {
		t.Fatal(err)
	}

	_, wrongPass := svc.Login(ctx, "alice", "nope")
	_, unknownUser := svc.Login(ctx, "mallory", "hunter2")
	for _, err := range []error{wrongPass, unknownUser} {
		if !errors.Is(err, errs.ErrAuth) {
			t.Fatalf("err = %v, want auth error", err)
		}
	}
	if wrongPass.Error() != unknownUser.Error() {
		t.Fatalf("errors differ: %q vs %q", wrongPass, unknownUser)
	}
	if errs.Status(wrongPass) != errs.Status(unknownUser) {
		t.Fatal("statuses differ")
	}
}

func TestTokenSignedWithOtherSecretIsRejected(t *testing.T) {
	issuer := auth.NewTokenManager("secret-a", time.Hour)
	verifier := auth.NewTokenManager("secret-b", time.Hour)

	token, err := issuer.GenerateToken(1, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("expected signature verification failure")
	}
	if _, err := issuer.ParseToken(token); err != nil {
		t.Fatalf("issuer should accept its own token: %v", err)
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	m := auth.NewTokenManager("secret", -time.Minute)
	token, err := m.GenerateToken(1, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ParseToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestMalformedTokenIsRejected(t *testing.T) {
	m := auth.NewTokenManager("secret", time.Hour)
	for _, tok := range []string{"", "abc", "a.b.c"} {
		if _, err := m.ParseToken(tok); err == nil {
			t.Fatalf("ParseToken(%q) expected error", tok)
		}
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := auth.HashPassword("pw")
	if err != nil {
		t.Fatal(err)
	}
	if !auth.CheckPasswordHash("pw", hash) || auth.CheckPasswordHash("other", hash) {
		t.Fatal("hash verification mismatch")
	}
	if auth.CheckPasswordHash("pw", "not-a-hash") {
		t.Fatal("garbage hash must not verify")
	}
}
