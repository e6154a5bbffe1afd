package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/spec-kit/agency-ledger/internal/resilience"
	"github.com/spec-kit/agency-ledger/internal/store"
	"github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

// Collection names.
const (
	CollectionTickets        = "tickets"
	CollectionServiceTickets = "serviceTickets"
	CollectionAgents         = "agents"
	CollectionUsers          = "users"
	CollectionCurrencies     = "currencies"
	CollectionServices       = "services"
	CollectionLogs           = "logs"
	CollectionTicketLogs     = "ticketLogs"
)

// collection maps typed entities onto one document collection.
type collection[T any] struct {
	store    store.DocumentStore
	name     string
	resource string
}

func newCollection[T any](s store.DocumentStore, name, resource string) collection[T] {
	return collection[T]{store: s, name: name, resource: resource}
}

func (c collection[T]) path(id string) store.Path {
	return store.Path{Collection: c.name, ID: id}
}

func (c collection[T]) get(ctx context.Context, id string) (*T, error) {
	doc, err := c.store.Get(ctx, c.path(id))
	if err != nil {
		return nil, c.mapErr(err, id)
	}
	var out T
	if err := store.Decode(doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c collection[T]) put(ctx context.Context, id string, v *T) error {
	doc, err := store.Encode(v)
	if err != nil {
		return err
	}
	return c.store.Write(ctx, c.path(id), doc)
}

func (c collection[T]) delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, c.path(id)); err != nil {
		return c.mapErr(err, id)
	}
	return nil
}

func (c collection[T]) query(ctx context.Context, q store.Query) ([]T, error) {
	q.Collection = c.name
	docs, err := c.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](docs)
}

func (c collection[T]) subscribe(ctx context.Context, q store.Query, onData func([]T), onError func(error)) (store.Unsubscribe, error) {
	q.Collection = c.name
	return c.store.Subscribe(ctx, q, func(docs []store.Document) {
		items, err := decodeAll[T](docs)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onData(items)
	}, onError)
}

func (c collection[T]) mapErr(err error, id string) error {
	if errors.Is(err, store.ErrNotFound) || resilience.IsNotFound(err) {
		return errorutil.NewNotFound(c.resource, map[string]any{"id": id})
	}
	return err
}

func decodeAll[T any](docs []store.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := store.Decode(doc, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func newID() string {
	return uuid.NewString()
}
