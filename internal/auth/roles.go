package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-ledger/internal/domain"
	apperrors "github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

// IdentitySecretHeader carries the identity bridge secret.
const IdentitySecretHeader = "X-Identity-Secret"

// RequireRole ensures the caller has one of the allowed roles. With no
// roles it only requires authentication.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[user.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireIdentitySecret guards endpoints called by the identity bridge.
func RequireIdentitySecret(verifier *IdentityVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !verifier.Verify(c.Get(IdentitySecretHeader)) {
			return apperrors.NewUnauthorized("invalid identity secret")
		}
		return c.Next()
	}
}
