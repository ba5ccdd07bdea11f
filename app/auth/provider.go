package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/entity"
	"github.com/vibast-solutions/ms-go-console/app/repository"
	"github.com/vibast-solutions/ms-go-console/app/rpcerr"
	"github.com/vibast-solutions/ms-go-console/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = rpcerr.Conflict("a user with this email already exists")
	ErrInvalidCredentials = rpcerr.New(rpcerr.CodeUnauthorized, "invalid email or password")
	ErrInvalidSession     = rpcerr.New(rpcerr.CodeUnauthorized, "invalid session")
	ErrSessionExpired     = rpcerr.New(rpcerr.CodeUnauthorized, "session expired")
	ErrNotAMember         = rpcerr.New(rpcerr.CodeForbidden, "you are not a member of this workspace")
	ErrUserNotFound       = rpcerr.NotFound("user not found")
)

// Claims are carried by the signed access token.
type Claims struct {
	UserID string `json:"uid"`
	OrgID  string `json:"org,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	OrgID        string
	Role         string
	ExpiresAt    time.Time
}

type SessionInfo struct {
	UserID    string
	OrgID     string
	Role      string
	ExpiresAt time.Time
}

// Provider authenticates dashboard users and manages their sessions and
// workspace memberships.
type Provider interface {
	SignUp(ctx context.Context, email, password, firstName, lastName string) (*entity.User, error)
	SignIn(ctx context.Context, email, password, orgID string) (*Session, error)
	ValidateSession(accessToken string) (*SessionInfo, error)
	RefreshSession(ctx context.Context, refreshToken, orgID string) (*Session, error)
	SignOut(ctx context.Context, refreshToken string) error
	GetUser(ctx context.Context, userID string) (*entity.User, error)
	ListMemberships(ctx context.Context, userID string) ([]*entity.Membership, error)
	ListOrgMembers(ctx context.Context, orgID string) ([]*entity.Membership, error)
	AddMembership(ctx context.Context, tx repository.DBTX, userID, orgID, role string) error
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type AsyncRunner func(task func())

type ProviderOption func(*LocalProvider)

func WithAsyncRunner(runner AsyncRunner) ProviderOption {
	return func(p *LocalProvider) {
		if runner != nil {
			p.asyncRunner = runner
		}
	}
}

func WithClock(now func() time.Time) ProviderOption {
	return func(p *LocalProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// LocalProvider keeps users, memberships and refresh tokens in the console database.
type LocalProvider struct {
	db          *sql.DB
	cfg         *config.Config
	asyncRunner AsyncRunner
	now         func() time.Time
}

func NewLocalProvider(db *sql.DB, cfg *config.Config, opts ...ProviderOption) *LocalProvider {
	p := &LocalProvider{
		db:  db,
		cfg: cfg,
		asyncRunner: func(task func()) {
			go task()
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password, firstName, lastName string) (*entity.User, error) {
	canonical := canonicalEmail(email)
	users := repository.NewUserRepository(p.db)

	existing, err := users.FindByCanonicalEmail(ctx, canonical)
	if err != nil {
		return nil, rpcerr.Internal("create your account", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	if err = p.cfg.Password.Policy.Validate(password); err != nil {
		return nil, rpcerr.Wrap(rpcerr.CodeBadRequest, err.Error(), err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, rpcerr.Internal("create your account", err)
	}

	now := p.now()
	user := &entity.User{
		ID:             "user_" + uuid.NewString(),
		Email:          email,
		CanonicalEmail: canonical,
		PasswordHash:   string(hashedPassword),
		FirstName:      optionalString(firstName),
		LastName:       optionalString(lastName),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err = users.Create(ctx, user); err != nil {
		if repository.IsDuplicateEntry(err) {
			return nil, ErrUserExists
		}
		return nil, rpcerr.Internal("create your account", err)
	}

	return user, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password, orgID string) (*Session, error) {
	users := repository.NewUserRepository(p.db)
	user, err := users.FindByCanonicalEmail(ctx, canonicalEmail(email))
	if err != nil {
		return nil, rpcerr.Internal("sign you in", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	membership, err := p.resolveMembership(ctx, repository.NewMembershipRepository(p.db), user.ID, orgID)
	if err != nil {
		return nil, err
	}

	p.asyncRunner(func() {
		updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if updateErr := users.UpdateLastLogin(updateCtx, user.ID, p.now()); updateErr != nil {
			logrus.WithError(updateErr).WithField("user_id", user.ID).Error("failed to update last_login")
		}
	})

	session, err := p.issueSession(ctx, repository.NewRefreshTokenRepository(p.db), user.ID, membership)
	if err != nil {
		return nil, rpcerr.Internal("sign you in", err)
	}
	return session, nil
}

func (p *LocalProvider) ValidateSession(accessToken string) (*SessionInfo, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(p.cfg.Session.Secret), nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidSession
	}

	info := &SessionInfo{UserID: claims.UserID, OrgID: claims.OrgID, Role: claims.Role}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// RefreshSession rotates the refresh token. A non-empty orgID switches the
// active workspace when the user is a member of it.
func (p *LocalProvider) RefreshSession(ctx context.Context, refreshToken, orgID string) (*Session, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, rpcerr.Internal("refresh your session", err)
	}
	defer tx.Rollback()

	tokens := repository.NewRefreshTokenRepository(tx)
	token, err := tokens.FindByTokenForUpdate(ctx, refreshToken)
	if err != nil {
		return nil, rpcerr.Internal("refresh your session", err)
	}
	if token == nil {
		return nil, ErrInvalidSession
	}
	if token.ExpiresAt.Before(p.now()) {
		return nil, ErrSessionExpired
	}

	if orgID == "" {
		orgID = token.OrgID
	}
	membership, err := p.resolveMembership(ctx, repository.NewMembershipRepository(tx), token.UserID, orgID)
	if err != nil {
		return nil, err
	}

	rowsDeleted, err := tokens.DeleteByToken(ctx, refreshToken)
	if err != nil {
		return nil, rpcerr.Internal("refresh your session", err)
	}
	if rowsDeleted == 0 {
		return nil, ErrInvalidSession
	}

	session, err := p.issueSession(ctx, tokens, token.UserID, membership)
	if err != nil {
		return nil, rpcerr.Internal("refresh your session", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, rpcerr.Internal("refresh your session", err)
	}
	return session, nil
}

func (p *LocalProvider) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if _, err := repository.NewRefreshTokenRepository(p.db).DeleteByToken(ctx, refreshToken); err != nil {
		return rpcerr.Internal("sign you out", err)
	}
	return nil
}

func (p *LocalProvider) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := repository.NewUserRepository(p.db).FindByID(ctx, userID)
	if err != nil {
		return nil, rpcerr.Internal("load the user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (p *LocalProvider) ListMemberships(ctx context.Context, userID string) ([]*entity.Membership, error) {
	memberships, err := repository.NewMembershipRepository(p.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, rpcerr.Internal("load your workspaces", err)
	}
	return memberships, nil
}

func (p *LocalProvider) ListOrgMembers(ctx context.Context, orgID string) ([]*entity.Membership, error) {
	memberships, err := repository.NewMembershipRepository(p.db).ListByOrg(ctx, orgID)
	if err != nil {
		return nil, rpcerr.Internal("load the workspace members", err)
	}
	return memberships, nil
}

// AddMembership writes through tx so the membership commits or rolls back
// together with the caller's transaction.
func (p *LocalProvider) AddMembership(ctx context.Context, tx repository.DBTX, userID, orgID, role string) error {
	membership := &entity.Membership{
		ID:        "mem_" + uuid.NewString(),
		UserID:    userID,
		OrgID:     orgID,
		Role:      role,
		CreatedAt: p.now(),
	}
	if err := repository.NewMembershipRepository(tx).Create(ctx, membership); err != nil {
		if repository.IsDuplicateEntry(err) {
			return rpcerr.Conflict("the user is already a member of this workspace")
		}
		return rpcerr.Internal("add the workspace member", err)
	}
	return nil
}

func (p *LocalProvider) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return repository.NewRefreshTokenRepository(p.db).DeleteExpired(ctx, p.now())
}

type membershipFinder interface {
	FindByUserAndOrg(ctx context.Context, userID, orgID string) (*entity.Membership, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Membership, error)
}

// resolveMembership returns the membership for orgID, or the user's first
// membership when orgID is empty. Users without any workspace get nil.
func (p *LocalProvider) resolveMembership(ctx context.Context, repo membershipFinder, userID, orgID string) (*entity.Membership, error) {
	if orgID != "" {
		membership, err := repo.FindByUserAndOrg(ctx, userID, orgID)
		if err != nil {
			return nil, rpcerr.Internal("load your workspaces", err)
		}
		if membership == nil {
			return nil, ErrNotAMember
		}
		return membership, nil
	}

	memberships, err := repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, rpcerr.Internal("load your workspaces", err)
	}
	if len(memberships) == 0 {
		return nil, nil
	}
	return memberships[0], nil
}

type refreshTokenCreator interface {
	Create(ctx context.Context, token *entity.RefreshToken) error
}

func (p *LocalProvider) issueSession(ctx context.Context, repo refreshTokenCreator, userID string, membership *entity.Membership) (*Session, error) {
	now := p.now()
	session := &Session{
		UserID:    userID,
		ExpiresAt: now.Add(p.cfg.Session.AccessTTL),
	}
	if membership != nil {
		session.OrgID = membership.OrgID
		session.Role = membership.Role
	}

	claims := &Claims{
		UserID: userID,
		OrgID:  session.OrgID,
		Role:   session.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.cfg.Session.Secret))
	if err != nil {
		return nil, err
	}

	refreshToken := &entity.RefreshToken{
		UserID:    userID,
		OrgID:     session.OrgID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(p.cfg.Session.RefreshTTL),
		CreatedAt: now,
	}
	if err = repo.Create(ctx, refreshToken); err != nil {
		return nil, err
	}

	session.AccessToken = accessToken
	session.RefreshToken = refreshToken.Token
	return session, nil
}

func optionalString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
