package core

import "context"

// Repository defines the contract for reading and writing documents.
type Repository interface {
	// Get retrieves a document by its ID.
	Get(ctx context.Context, id string) (Document, error)

	// Save persists a document, creating it if needed.
	Save(ctx context.Context, doc Document) error

	// List returns the documents whose ID matches pattern.
	List(ctx context.Context, pattern string) ([]Document, error)

	// Initialize ensures the underlying storage is ready.
	Initialize(ctx context.Context) error
}

// Watchable is implemented by repositories that can report changes.
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Publisher is the remote blog endpoint.
type Publisher interface {
	// NewPost creates a post and returns its remote ID.
	NewPost(ctx context.Context, post Post) (string, error)

	// EditPost replaces the post with the given remote ID.
	EditPost(ctx context.Context, id string, post Post) error

	// ListMethods returns the methods the endpoint exposes.
	ListMethods(ctx context.Context) ([]string, error)
}
