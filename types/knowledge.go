package types

import "time"

// KnowledgeBaseVersion is the schema tag written into every persisted
// knowledge base document. Legacy files (a bare JSON array of entries)
// are migrated to this shape on load.
const KnowledgeBaseVersion = "1.0"

// KnowledgeEntry is a single title/body/tags record. Entries are shown in
// the admin panel and injected as context into AI prompts.
type KnowledgeEntry struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KnowledgeBaseDocument is the whole persisted aggregate. The store reads
// and writes it wholesale; there is no per-entry partial update on disk.
type KnowledgeBaseDocument struct {
	Entries     []KnowledgeEntry `json:"entries"`
	LastUpdated time.Time        `json:"last_updated"`
	Version     string           `json:"version"`
	// Recovered is set when the document was reset after a corrupt file
	// was quarantined.
	Recovered bool `json:"recovered,omitempty"`
}

// EntryUpdate carries the fields of a partial entry update. Nil fields are
// left untouched; the entry ID is never overwritten.
type EntryUpdate struct {
	Key   *string   `json:"key,omitempty"`
	Value *string   `json:"value,omitempty"`
	Tags  *[]string `json:"tags,omitempty"`
}

// ScoredEntry pairs an entry with its relevance score for a query.
type ScoredEntry struct {
	Entry KnowledgeEntry `json:"entry"`
	Score int            `json:"score"`
}

// KnowledgeStats summarizes the knowledge base for the admin panel.
type KnowledgeStats struct {
	TotalEntries       int       `json:"total_entries"`
	LastUpdated        time.Time `json:"last_updated"`
	AverageKeyLength   float64   `json:"average_key_length"`
	AverageValueLength float64   `json:"average_value_length"`
}
