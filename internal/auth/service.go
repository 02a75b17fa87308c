package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LoginResult is a freshly issued token and the user it was issued to.
type LoginResult struct {
	Token IssuedToken
	User  User
}

// Service authenticates users and issues access tokens.
type Service struct {
	users    UserStore
	roles    RoleStore
	issuer   *TokenIssuer
	denylist Denylist
	now      func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithDenylist enables token revocation on logout.
func WithDenylist(d Denylist) ServiceOption {
	return func(s *Service) {
		s.denylist = d
	}
}

// WithServiceClock overrides time source (useful for tests).
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs Service with optional configuration.
func NewService(users UserStore, roles RoleStore, issuer *TokenIssuer, opts ...ServiceOption) (*Service, error) {
	if users == nil || roles == nil {
		return nil, errors.New("user and role stores are required")
	}
	if issuer == nil {
		return nil, errMissingSecret
	}
	svc := &Service{users: users, roles: roles, issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Login verifies credentials and issues a token carrying the user's current
// role and permissions. Unknown email, wrong password and inactive account all
// yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		burnPassword(password)
		return LoginResult{}, ErrInvalidCredentials
	}
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			burnPassword(password)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !VerifyPassword(user.PasswordHash, password) || !user.IsActive {
		return LoginResult{}, ErrInvalidCredentials
	}
	user.PasswordHash = ""

	user.Role = nil
	if user.RoleID != nil {
		role, err := s.roles.FindRoleWithPermissions(ctx, *user.RoleID)
		switch {
		case err == nil:
			user.Role = &role
		case errors.Is(err, ErrNotFound):
			user.RoleID = nil
		default:
			return LoginResult{}, err
		}
	}

	tok, err := s.issuer.Issue(user)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: tok, User: user}, nil
}

// Authenticate verifies a bearer token and rejects revoked ones.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil, err
	}
	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrInvalidToken
		}
	}
	return claims, nil
}

// Logout revokes the token described by claims until its expiry.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil {
		return ErrUnauthenticated
	}
	if s.denylist == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	if !claims.ExpiresAt.Time.After(s.now()) {
		return nil
	}
	return s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Profile returns the current state of the authenticated user.
func (s *Service) Profile(ctx context.Context, claims *Claims) (User, error) {
	if claims == nil {
		return User{}, ErrUnauthenticated
	}
	return s.users.FindUserWithRole(ctx, claims.Subject)
}
