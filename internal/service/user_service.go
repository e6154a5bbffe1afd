package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

// UserService maps signed-in identities to application users.
type UserService struct {
	deps       Dependencies
	currencies CurrencyLookup
	events     publisher
	logger     *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(deps Dependencies, currencies CurrencyLookup) *UserService {
	return &UserService{deps: deps, currencies: currencies, events: newPublisher(deps), logger: deps.logger()}
}

// EnsureUser returns the user for identity, creating it with the agent
// role on first sign-in. Profile fields follow the identity provider.
func (s *UserService) EnsureUser(ctx context.Context, identity domain.Identity) (*domain.AppUser, error) {
	uid, err := requireText("uid", identity.UID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(identity.DisplayName)
	if name == "" {
		name = strings.TrimSpace(identity.Email)
	}

	existing, err := s.deps.UserRepo.GetByID(ctx, uid)
	switch {
	case err == nil:
		if existing.Name == name && existing.Email == identity.Email && existing.PhotoURL == identity.PhotoURL {
			return existing, nil
		}
		existing.Name = name
		existing.Email = identity.Email
		existing.PhotoURL = identity.PhotoURL
		existing.UpdatedAt = s.events.now()
		if err := s.deps.UserRepo.Save(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	case !errorutil.HasCode(err, errorutil.CodeNotFound):
		return nil, err
	}

	now := s.events.now()
	user := &domain.AppUser{
		ID:                uid,
		Name:              name,
		Email:             identity.Email,
		PhotoURL:          identity.PhotoURL,
		Role:              domain.RoleAgent,
		PreferredCurrency: domain.BaseCurrencyCode,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.deps.UserRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered on first sign-in", zap.String("user_id", user.ID))
	s.events.publish(ctx, events.EventUserCreated, domain.ActorFromUser(*user), events.UserCreatedPayload{User: *user})
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.AppUser, error) {
	return s.deps.UserRepo.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]domain.AppUser, error) {
	return s.deps.UserRepo.List(ctx)
}

// UpdateRole changes a user's role. Administrators only.
func (s *UserService) UpdateRole(ctx context.Context, actor domain.Actor, userID string, role domain.Role) (*domain.AppUser, error) {
	if err := requireAdmin(actor, "change roles"); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, errorutil.NewValidationError("unknown role", map[string]any{"role": role})
	}
	user, err := s.deps.UserRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	old := user.Role
	if old == role {
		return user, nil
	}
	user.Role = role
	user.UpdatedAt = s.events.now()
	if err := s.deps.UserRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.EventUserRoleUpdated, actor, events.UserRoleUpdatedPayload{
		User:    *user,
		OldRole: old,
		NewRole: role,
	})
	return user, nil
}

// SetPreferredCurrency changes the currency amounts are displayed in. Users
// may change their own preference; administrators may change anyone's.
func (s *UserService) SetPreferredCurrency(ctx context.Context, actor domain.Actor, userID, code string) (*domain.AppUser, error) {
	if actor.ID != userID && !actor.IsAdmin() {
		return nil, errorutil.NewForbidden("cannot change another user's preferences")
	}
	c, err := s.currencies.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	user, err := s.deps.UserRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.PreferredCurrency == c.Code {
		return user, nil
	}
	user.PreferredCurrency = c.Code
	user.UpdatedAt = s.events.now()
	if err := s.deps.UserRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
