package database

import (
	"context"

	"github.com/bachngocs/support-chatbot-be/types"
)

// KnowledgeStore defines the interface for knowledge base operations.
// Implementations own the backing document exclusively; callers only ever
// see entries and derived values, never the raw file.
type KnowledgeStore interface {
	// Load reads the backing document, creating an empty one if absent
	// and migrating legacy formats in place.
	Load(ctx context.Context) (*types.KnowledgeBaseDocument, error)
	// Save persists the whole document atomically.
	Save(ctx context.Context, doc *types.KnowledgeBaseDocument) error

	GetAll(ctx context.Context) ([]types.KnowledgeEntry, error)
	// GetByID returns nil when no entry matches; absence is not an error.
	GetByID(ctx context.Context, id string) (*types.KnowledgeEntry, error)
	Create(ctx context.Context, key, value string, tags []string) (*types.KnowledgeEntry, error)
	Update(ctx context.Context, id string, update types.EntryUpdate) (*types.KnowledgeEntry, error)
	Delete(ctx context.Context, id string) (*types.KnowledgeEntry, error)

	// Search scores every entry against the query, drops zero scores and
	// returns the top results in descending score order. A blank query
	// returns the first entries in stored order, unscored.
	Search(ctx context.Context, query string, limit int) ([]types.ScoredEntry, error)
	// RelevantContext renders the top search hits as "key: value" blocks
	// for prompt injection. Empty string when nothing matches.
	RelevantContext(ctx context.Context, message string, maxEntries int) (string, error)
	Stats(ctx context.Context) (*types.KnowledgeStats, error)
}
