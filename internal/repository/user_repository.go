package repository

import (
	"context"

	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/store"
)

// UserRepository defines persistence access for back-office users. The
// document id is the identity provider uid.
type UserRepository interface {
	Save(ctx context.Context, user *domain.AppUser) error
	GetByID(ctx context.Context, id string) (*domain.AppUser, error)
	List(ctx context.Context) ([]domain.AppUser, error)
}

type userRepository struct {
	docs collection[domain.AppUser]
}

// NewUserRepository returns a document-store implementation.
func NewUserRepository(s store.DocumentStore) UserRepository {
	return &userRepository{docs: newCollection[domain.AppUser](s, CollectionUsers, "user")}
}

func (r *userRepository) Save(ctx context.Context, user *domain.AppUser) error {
	if user.ID == "" {
		user.ID = newID()
	}
	return r.docs.put(ctx, user.ID, user)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.AppUser, error) {
	return r.docs.get(ctx, id)
}

func (r *userRepository) List(ctx context.Context) ([]domain.AppUser, error) {
	return r.docs.query(ctx, store.Query{}.Sorted("name", false))
}

// AgentRepository persists agents.
type AgentRepository interface {
	Save(ctx context.Context, agent *domain.Agent) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	List(ctx context.Context) ([]domain.Agent, error)
}

type agentRepository struct {
	docs collection[domain.Agent]
}

// NewAgentRepository returns a document-store implementation.
func NewAgentRepository(s store.DocumentStore) AgentRepository {
	return &agentRepository{docs: newCollection[domain.Agent](s, CollectionAgents, "agent")}
}

func (r *agentRepository) Save(ctx context.Context, agent *domain.Agent) error {
	if agent.ID == "" {
		agent.ID = newID()
	}
	return r.docs.put(ctx, agent.ID, agent)
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	return r.docs.get(ctx, id)
}

func (r *agentRepository) List(ctx context.Context) ([]domain.Agent, error) {
	return r.docs.query(ctx, store.Query{}.Sorted("name", false))
}
