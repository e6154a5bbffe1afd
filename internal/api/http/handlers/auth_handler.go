package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-ledger/internal/api/dto"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/service"
)

// AuthHandler exchanges identities for API sessions.
type AuthHandler struct {
	auth      *service.AuthService
	presenter *Presenter
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, presenter *Presenter) *AuthHandler {
	return &AuthHandler{auth: authService, presenter: presenter}
}

// Session POST /auth/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	var req dto.SessionRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	session, err := h.auth.SignIn(c.UserContext(), domain.Identity{
		UID:         req.UID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{
		AccessToken: session.Token,
		ExpiresAt:   session.ExpiresAt,
		User:        userResponse(*session.User, h.presenter.viewerFor(c, session.User.PreferredCurrency)),
	}})
}
