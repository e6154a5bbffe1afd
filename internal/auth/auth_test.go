package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/agency-ledger/internal/domain"
	apperrors "github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

type userMap map[string]*domain.AppUser

func (m userMap) GetByID(_ context.Context, id string) (*domain.AppUser, error) {
	u, ok := m[id]
	if !ok {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return u, nil
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	token, expires, err := tm.GenerateToken(domain.AppUser{ID: "u-1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	_, err = NewTokenManager("other", time.Hour).ParseToken(token)
	assert.Error(t, err)
}

func TestTokenExpires(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	tm := NewTokenManager("secret", time.Minute)
	tm.now = func() time.Time { return now }
	token, _, err := tm.GenerateToken(domain.AppUser{ID: "u-1"})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestIdentityVerifier(t *testing.T) {
	plain := NewIdentityVerifier("bridge", "")
	assert.True(t, plain.Verify("bridge"))
	assert.False(t, plain.Verify("bridg"))
	assert.False(t, plain.Verify(""))

	hash, err := HashSecret("bridge", bcrypt.MinCost)
	require.NoError(t, err)
	hashed := NewIdentityVerifier("ignored", hash)
	assert.True(t, hashed.Verify("bridge"))
	assert.False(t, hashed.Verify("ignored"))

	assert.False(t, NewIdentityVerifier("", "").Verify("anything"))
}

func newGuardedApp(t *testing.T, roles ...domain.Role) (*fiber.App, *TokenManager) {
	t.Helper()
	tm := NewTokenManager("secret", time.Hour)
	users := userMap{
		"u-admin": {ID: "u-admin", Role: domain.RoleAdmin},
		"u-clerk": {ID: "u-clerk", Role: domain.RoleAgent},
	}
	app := newApp()
	mw := NewAuthMiddleware(tm, users)
	app.Get("/secure", mw.Handle, RequireRole(roles...), func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return fiber.ErrTeapot
		}
		return c.SendString(actor.ID)
	})
	return app, tm
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
}

func bearer(t *testing.T, tm *TokenManager, id string) string {
	t.Helper()
	token, _, err := tm.GenerateToken(domain.AppUser{ID: id})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRequireRole(t *testing.T) {
	app, tm := newGuardedApp(t, domain.RoleAdmin)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "malformed header", header: "Token abc", status: http.StatusUnauthorized},
		{name: "unknown user", header: bearer(t, tm, "u-ghost"), status: http.StatusUnauthorized},
		{name: "wrong role", header: bearer(t, tm, "u-clerk"), status: http.StatusForbidden},
		{name: "admin", header: bearer(t, tm, "u-admin"), status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireRoleWithoutRolesOnlyAuthenticates(t *testing.T) {
	app, tm := newGuardedApp(t)
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, tm, "u-clerk"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireIdentitySecret(t *testing.T) {
	app := newApp()
	app.Post("/session", RequireIdentitySecret(NewIdentityVerifier("bridge", "")), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/session", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/session", nil)
	req.Header.Set(IdentitySecretHeader, "bridge")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
