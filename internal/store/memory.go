package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process DocumentStore. It backs tests and the
// `memory` store driver.
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string]map[string]Document
	subs   map[int]*memorySub
	nextID int
	closed bool
}

type memorySub struct {
	query   Query
	onData  func([]Document)
	onError func(error)
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]Document),
		subs: make(map[int]*memorySub),
	}
}

func (m *MemoryStore) Get(ctx context.Context, path Path) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	doc, ok := m.docs[path.Collection][path.ID]
	if !ok {
		return nil, ErrNotFound
	}
	return Clone(doc), nil
}

func (m *MemoryStore) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.queryLocked(q), nil
}

func (m *MemoryStore) queryLocked(q Query) []Document {
	coll := m.docs[q.Collection]
	all := make([]Document, 0, len(coll))
	for _, d := range coll {
		all = append(all, Clone(d))
	}
	return Apply(all, q)
}

func (m *MemoryStore) Write(ctx context.Context, path Path, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	coll, ok := m.docs[path.Collection]
	if !ok {
		coll = make(map[string]Document)
		m.docs[path.Collection] = coll
	}
	stored := Clone(doc)
	if stored == nil {
		stored = Document{}
	}
	stored["id"] = path.ID
	coll[path.ID] = stored
	m.mu.Unlock()

	m.notify(path.Collection)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, path Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if _, ok := m.docs[path.Collection][path.ID]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.docs[path.Collection], path.ID)
	m.mu.Unlock()

	m.notify(path.Collection)
	return nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, q Query, onData func([]Document), onError func(error)) (Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	id := m.nextID
	m.nextID++
	m.subs[id] = &memorySub{query: q, onData: onData, onError: onError}
	initial := m.queryLocked(q)
	m.mu.Unlock()

	onData(initial)
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

// Interrupt breaks every live subscription with err, as a dropped
// realtime connection would.
func (m *MemoryStore) Interrupt(err error) {
	m.mu.Lock()
	subs := make([]*memorySub, 0, len(m.subs))
	for id, s := range m.subs {
		subs = append(subs, s)
		delete(m.subs, id)
	}
	m.mu.Unlock()
	for _, s := range subs {
		if s.onError != nil {
			s.onError(err)
		}
	}
}

// Close fails all subscriptions and rejects further calls.
func (m *MemoryStore) Close() {
	m.Interrupt(ErrClosed)
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

func (m *MemoryStore) notify(collection string) {
	type delivery struct {
		fn   func([]Document)
		docs []Document
	}
	m.mu.Lock()
	var out []delivery
	for _, s := range m.subs {
		if s.query.Collection != collection {
			continue
		}
		out = append(out, delivery{fn: s.onData, docs: m.queryLocked(s.query)})
	}
	m.mu.Unlock()
	for _, d := range out {
		d.fn(d.docs)
	}
}
