// Package store defines the document-store contract the ledger depends on:
// schemaless JSON-like documents addressed by collection and id, with
// per-document atomic writes and realtime query subscriptions.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("store: document not found")
	// ErrAlreadyExists is returned when a create collides with an existing id.
	ErrAlreadyExists = errors.New("store: document already exists")
	// ErrClosed is returned after the store has been closed.
	ErrClosed = errors.New("store: closed")
)

// Document is a schemaless record. Numbers decode as float64.
type Document map[string]any

// Path addresses a single document.
type Path struct {
	Collection string
	ID         string
}

func (p Path) String() string {
	return p.Collection + "/" + p.ID
}

// Unsubscribe tears a subscription down.
type Unsubscribe func()

// DocumentStore is the persistence collaborator.
type DocumentStore interface {
	Get(ctx context.Context, path Path) (Document, error)
	Query(ctx context.Context, q Query) ([]Document, error)
	// Write creates or replaces the document at path.
	Write(ctx context.Context, path Path, doc Document) error
	Delete(ctx context.Context, path Path) error
	// Subscribe delivers the full result set of q whenever the collection
	// changes, starting with the current state. onError is called when the
	// feed breaks; the subscription is dead afterwards.
	Subscribe(ctx context.Context, q Query, onData func([]Document), onError func(error)) (Unsubscribe, error)
	Ping(ctx context.Context) error
}

// Encode converts a typed entity into a Document.
func Encode(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: encode: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("store: encode: %w", err)
	}
	return doc, nil
}

// Decode fills v from a Document.
func Decode(doc Document, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: decode: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("store: decode: %w", err)
	}
	return nil
}

// Clone returns a deep copy of doc so callers never share maps with a backend.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out, err := Encode(doc)
	if err != nil {
		cp := make(Document, len(doc))
		for k, v := range doc {
			cp[k] = v
		}
		return cp
	}
	return out
}
