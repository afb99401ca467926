package storage

import (
	"context"
	"time"
)

// Storage is the hosted document store a tree is persisted in. Content is
// opaque JSON: the store never interprets it, so legacy encodings survive
// until a reader normalizes them.
type Storage interface {
	// Create inserts a new document and returns its generated ID.
	Create(ctx context.Context, content []byte) (string, error)

	// Read fetches a document by ID. It returns model.ErrNotFound when the ID
	// does not resolve.
	Read(ctx context.Context, id string) ([]byte, error)

	// Update overwrites a document's content wholesale.
	Update(ctx context.Context, id string, content []byte) error

	// List returns recently updated documents, newest first.
	List(ctx context.Context, opts ListOptions) ([]Summary, error)

	// Close releases the backend connection.
	Close() error
}

// ListOptions limits List results.
type ListOptions struct {
	Limit int
}

// Summary describes a stored document without its content.
type Summary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
