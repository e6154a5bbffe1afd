package service

import (
	"context"
	"time"

	"github.com/spec-kit/agency-ledger/internal/auth"
	"github.com/spec-kit/agency-ledger/internal/domain"
)

// Session is the result of a sign-in.
type Session struct {
	User      *domain.AppUser
	Token     string
	ExpiresAt time.Time
}

// AuthService exchanges verified identities for API tokens.
type AuthService struct {
	users    *UserService
	tokenMgr *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(users *UserService, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokenMgr: tokens}
}

// SignIn maps the identity to an application user, creating it on first
// sign-in, and issues an access token.
func (s *AuthService) SignIn(ctx context.Context, identity domain.Identity) (*Session, error) {
	user, err := s.users.EnsureUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	token, exp, err := s.tokenMgr.GenerateToken(*user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
