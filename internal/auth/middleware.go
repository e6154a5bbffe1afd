package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-ledger/internal/domain"
	apperrors "github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// UserLoader resolves the user a token was issued to.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*domain.AppUser, error)
}

// AuthMiddleware validates bearer tokens and loads the caller.
type AuthMiddleware struct {
	tokens *TokenManager
	users  UserLoader
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.users.GetByID(c.UserContext(), claims.UserID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, user)
	return c.Next()
}

// UserFromContext retrieves the authenticated user.
func UserFromContext(c *fiber.Ctx) (*domain.AppUser, bool) {
	user, ok := c.Locals(principalKey).(*domain.AppUser)
	return user, ok && user != nil
}

// ActorFromContext returns the caller as an audit actor.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, bool) {
	user, ok := UserFromContext(c)
	if !ok {
		return domain.Actor{}, false
	}
	return domain.ActorFromUser(*user), true
}
