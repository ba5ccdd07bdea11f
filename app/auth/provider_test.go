package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/rpcerr"
	"github.com/vibast-solutions/ms-go-console/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	findUserByEmailQuery       = `(?s)SELECT id, email, canonical_email.+FROM users WHERE canonical_email = \?`
	insertUserQuery            = `(?s)INSERT INTO users`
	listMembershipsByUserQuery = `(?s)FROM memberships WHERE user_id = \?\s+ORDER BY created_at ASC`
	findMembershipQuery        = `(?s)FROM memberships WHERE user_id = \? AND org_id = \?`
	insertRefreshTokenQuery    = `(?s)INSERT INTO refresh_tokens`
	findRefreshForUpdateQuery  = `(?s)FROM refresh_tokens WHERE token = \? FOR UPDATE`
	deleteRefreshTokenQuery    = `(?s)DELETE FROM refresh_tokens WHERE token = \?`
)

const testSecret = "0123456789abcdef0123456789abcdef"

var (
	userColumns         = []string{"id", "email", "canonical_email", "password_hash", "first_name", "last_name", "last_login", "created_at", "updated_at"}
	membershipColumns   = []string{"id", "user_id", "org_id", "role", "created_at"}
	refreshTokenColumns = []string{"id", "user_id", "org_id", "token", "expires_at", "created_at"}
)

func newTestConfig() *config.Config {
	return &config.Config{
		Session: config.SessionConfig{
			Secret:     testSecret,
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 24 * time.Hour,
			CookieName: "console-session",
		},
		Password: config.PasswordConfig{
			Policy: config.PasswordPolicy{MinLength: 8, RequireNumber: true},
		},
	}
}

func newTestProvider(t *testing.T, opts ...ProviderOption) (*LocalProvider, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	opts = append([]ProviderOption{WithAsyncRunner(func(task func()) {})}, opts...)
	return NewLocalProvider(db, newTestConfig(), opts...), mock, func() { _ = db.Close() }
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return string(hash)
}

func TestSignUpCreatesUser(t *testing.T) {
	provider, mock, cleanup := newTestProvider(t)
	defer cleanup()

	mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("user@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(insertUserQuery).WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := provider.SignUp(context.Background(), "User@Example.com", "password1", "Ada", "")
	if err != nil {
		t.Fatalf("sign up failed: %v", err)
	}
	if user.CanonicalEmail != "user@example.com" || !user.FirstName.Valid || user.LastName.Valid {
		t.Fatalf("unexpected user: %+v", user)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password1")); err != nil {
		t.Fatalf("expected bcrypt hash, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	provider, mock, cleanup := newTestProvider(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("user@gmail.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("user_1", "user@gmail.com", "user@gmail.com", "hash", nil, nil, nil, now, now))

	_, err := provider.SignUp(context.Background(), "u.s.e.r+test@gmail.com", "password1", "", "")
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestSignUpRejectsWeakPassword(t *testing.T) {
	provider, mock, cleanup := newTestProvider(t)
	defer cleanup()

	mock.ExpectQuery(findUserByEmailQuery).WillReturnError(sql.ErrNoRows)

	_, err := provider.SignUp(context.Background(), "user@example.com", "short", "", "")
	if rpcerr.CodeOf(err) != rpcerr.CodeBadRequest {
		t.Fatalf("expected BAD_REQUEST, got %v", err)
	}
}

func TestSignInIssuesSession(t *testing.T) {
	ran := false
	provider, mock, cleanup := newTestProvider(t, WithAsyncRunner(func(task func()) { ran = true }))
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("user@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("user_1", "user@example.com", "user@example.com", hashPassword(t, "password1"), nil, nil, nil, now, now))
	mock.ExpectQuery(listMembershipsByUserQuery).
		WithArgs("user_1").
		WillReturnRows(sqlmock.NewRows(membershipColumns).AddRow("mem_1", "user_1", "org_1", "admin", now))
	mock.ExpectExec(insertRefreshTokenQuery).
		WithArgs("user_1", "org_1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	session, err := provider.SignIn(context.Background(), "user@example.com", "password1", "")
	if err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if session.OrgID != "org_1" || session.Role != "admin" || session.RefreshToken == "" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if !ran {
		t.Fatalf("expected last login update to be scheduled")
	}

	info, err := provider.ValidateSession(session.AccessToken)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if info.UserID != "user_1" || info.OrgID != "org_1" || info.Role != "admin" {
		t.Fatalf("unexpected session info: %+v", info)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSignInRejectsWrongPassword(t *testing.T) {
	provider, mock, cleanup := newTestProvider(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(findUserByEmailQuery).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("user_1", "user@example.com", "user@example.com", hashPassword(t, "password1"), nil, nil, nil, now, now))

	_, err := provider.SignIn(context.Background(), "user@example.com", "wrong", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignInRejectsForeignOrg(t *testing.T) {
	provider, mock, cleanup := newTestProvider(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(findUserByEmailQuery).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("user_1", "user@example.com", "user@example.com", hashPassword(t, "password1"), nil, nil, nil, now, now))
	mock.ExpectQuery(findMembershipQuery).
		WithArgs("user_1", "org_other").
		WillReturnError(sql.ErrNoRows)

	_, err := provider.SignIn(context.Background(), "user@example.com", "password1", "org_other")
	if !errors.Is(err, ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}
}

func TestValidateSessionDistinguishesExpired(t *testing.T) {
	provider, _, cleanup := newTestProvider(t)
	defer cleanup()

	sign := func(secret string, expiresAt time.Time) string {
		claims := &Claims{
			UserID: "user_1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign failed: %v", err)
		}
		return token
	}

	if _, err := provider.ValidateSession(sign(testSecret, time.Now().Add(-time.Minute))); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if _, err := provider.ValidateSession(sign("another-secret-another-secret-xx", time.Now().Add(time.Minute))); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if _, err := provider.ValidateSession("garbage"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for garbage, got %v", err)
	}
}

func TestRefreshSessionRotatesToken(t *testing.T) {
	provider, mock, cleanup := newTestProvider(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(findRefreshForUpdateQuery).
		WithArgs("old-token").
		WillReturnRows(sqlmock.NewRows(refreshTokenColumns).
			AddRow(uint64(1), "user_1", "org_1", "old-token", now.Add(time.Hour), now))
	mock.ExpectQuery(findMembershipQuery).
		WithArgs("user_1", "org_1").
		WillReturnRows(sqlmock.NewRows(membershipColumns).AddRow("mem_1", "user_1", "org_1", "basic_member", now))
	mock.ExpectExec(deleteRefreshTokenQuery).
		WithArgs("old-token").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertRefreshTokenQuery).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	session, err := provider.RefreshSession(context.Background(), "old-token", "")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if session.RefreshToken == "old-token" || session.Role != "basic_member" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshSessionRejectsExpiredToken(t *testing.T) {
	provider, mock, cleanup := newTestProvider(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(findRefreshForUpdateQuery).
		WillReturnRows(sqlmock.NewRows(refreshTokenColumns).
			AddRow(uint64(1), "user_1", "org_1", "old-token", now.Add(-time.Hour), now))
	mock.ExpectRollback()

	_, err := provider.RefreshSession(context.Background(), "old-token", "")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshSessionRejectsUnknownToken(t *testing.T) {
	provider, mock, cleanup := newTestProvider(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(findRefreshForUpdateQuery).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := provider.RefreshSession(context.Background(), "missing", "")
	if rpcerr.CodeOf(err) != rpcerr.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestAddMembershipJoinsTransaction(t *testing.T) {
	provider, mock, cleanup := newTestProvider(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)INSERT INTO memberships`).
		WithArgs(sqlmock.AnyArg(), "user_1", "org_new", "admin", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	tx, err := provider.db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err = provider.AddMembership(context.Background(), tx, "user_1", "org_new", "admin"); err != nil {
		t.Fatalf("add membership failed: %v", err)
	}
	if err = tx.Rollback(); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
