package repository

import (
	"context"

	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/store"
)

// CurrencyRepository persists the rate table. Currencies are keyed by
// their code.
type CurrencyRepository interface {
	Save(ctx context.Context, currency *domain.Currency) error
	GetByCode(ctx context.Context, code string) (*domain.Currency, error)
	Delete(ctx context.Context, code string) error
	List(ctx context.Context) ([]domain.Currency, error)
}

type currencyRepository struct {
	docs collection[domain.Currency]
}

// NewCurrencyRepository returns a document-store implementation.
func NewCurrencyRepository(s store.DocumentStore) CurrencyRepository {
	return &currencyRepository{docs: newCollection[domain.Currency](s, CollectionCurrencies, "currency")}
}

func (r *currencyRepository) Save(ctx context.Context, currency *domain.Currency) error {
	currency.ID = currency.Code
	return r.docs.put(ctx, currency.Code, currency)
}

func (r *currencyRepository) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	return r.docs.get(ctx, code)
}

func (r *currencyRepository) Delete(ctx context.Context, code string) error {
	return r.docs.delete(ctx, code)
}

func (r *currencyRepository) List(ctx context.Context) ([]domain.Currency, error) {
	return r.docs.query(ctx, store.Query{}.Sorted("code", false))
}

// ServiceRepository persists the services catalog.
type ServiceRepository interface {
	Save(ctx context.Context, service *domain.Service) error
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Service, error)
}

type serviceRepository struct {
	docs collection[domain.Service]
}

// NewServiceRepository returns a document-store implementation.
func NewServiceRepository(s store.DocumentStore) ServiceRepository {
	return &serviceRepository{docs: newCollection[domain.Service](s, CollectionServices, "service")}
}

func (r *serviceRepository) Save(ctx context.Context, service *domain.Service) error {
	if service.ID == "" {
		service.ID = newID()
	}
	return r.docs.put(ctx, service.ID, service)
}

func (r *serviceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	return r.docs.get(ctx, id)
}

func (r *serviceRepository) List(ctx context.Context, activeOnly bool) ([]domain.Service, error) {
	q := store.Query{}
	if activeOnly {
		q = q.Where("isActive", store.OpEq, true)
	}
	return r.docs.query(ctx, q.Sorted("name", false))
}
