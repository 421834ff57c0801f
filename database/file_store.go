package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bachngocs/support-chatbot-be/types"
	"github.com/bachngocs/support-chatbot-be/utils"
)

const (
	maxAttempts   = 3
	retryDelay    = 100 * time.Millisecond
	flockRetry    = 50 * time.Millisecond
	maxSnapshots  = 5
	snapshotKind  = "bak"
	corruptedKind = "corrupt"
)

// FileStore is a KnowledgeStore backed by a single JSON document. Every
// mutation is a full read-modify-write of the file; a temp-file plus
// atomic rename keeps readers from ever seeing a half-written document.
// An in-process mutex plus a cross-process file lock serialize the
// load-modify-save sequences.
type FileStore struct {
	path     string
	fileLock *flock.Flock
	logger   *zap.Logger

	mu sync.Mutex
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		path:     path,
		fileLock: flock.New(path + ".lock"),
		logger:   logger,
	}
}

// lock acquires the in-process mutex and the cross-process file lock. The
// returned function releases both.
func (s *FileStore) lock(ctx context.Context) (func(), error) {
	s.mu.Lock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		s.mu.Unlock()
		return nil, &types.PersistenceError{Op: "lock", Err: err}
	}
	locked, err := s.fileLock.TryLockContext(ctx, flockRetry)
	if err != nil {
		s.mu.Unlock()
		return nil, &types.PersistenceError{Op: "lock", Err: err}
	}
	if !locked {
		s.mu.Unlock()
		return nil, &types.PersistenceError{Op: "lock", Err: errors.New("file lock not acquired")}
	}
	return func() {
		s.fileLock.Unlock()
		s.mu.Unlock()
	}, nil
}

func (s *FileStore) Load(ctx context.Context) (*types.KnowledgeBaseDocument, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.loadLocked(ctx)
}

func (s *FileStore) Save(ctx context.Context, doc *types.KnowledgeBaseDocument) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return s.saveLocked(ctx, doc)
}

func (s *FileStore) GetAll(ctx context.Context) ([]types.KnowledgeEntry, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Entries, nil
}

func (s *FileStore) GetByID(ctx context.Context, id string) (*types.KnowledgeEntry, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doc.Entries {
		if doc.Entries[i].ID == id {
			entry := doc.Entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

func (s *FileStore) Create(ctx context.Context, key, value string, tags []string) (*types.KnowledgeEntry, error) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return nil, types.ErrInvalidEntry
	}
	if tags == nil {
		tags = []string{}
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := types.KnowledgeEntry{
		ID:        uuid.NewString(),
		Key:       key,
		Value:     value,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.Entries = append(doc.Entries, entry)

	if err := s.saveLocked(ctx, doc); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *FileStore) Update(ctx context.Context, id string, update types.EntryUpdate) (*types.KnowledgeEntry, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range doc.Entries {
		if doc.Entries[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, types.ErrEntryNotFound
	}

	entry := &doc.Entries[idx]
	if update.Key != nil {
		key := strings.TrimSpace(*update.Key)
		if key == "" {
			return nil, types.ErrInvalidEntry
		}
		entry.Key = key
	}
	if update.Value != nil {
		value := strings.TrimSpace(*update.Value)
		if value == "" {
			return nil, types.ErrInvalidEntry
		}
		entry.Value = value
	}
	if update.Tags != nil {
		tags := *update.Tags
		if tags == nil {
			tags = []string{}
		}
		entry.Tags = tags
	}
	entry.UpdatedAt = time.Now().UTC()

	if err := s.saveLocked(ctx, doc); err != nil {
		return nil, err
	}
	updated := *entry
	return &updated, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) (*types.KnowledgeEntry, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}

	for i := range doc.Entries {
		if doc.Entries[i].ID == id {
			removed := doc.Entries[i]
			doc.Entries = append(doc.Entries[:i], doc.Entries[i+1:]...)
			if err := s.saveLocked(ctx, doc); err != nil {
				return nil, err
			}
			return &removed, nil
		}
	}
	return nil, types.ErrEntryNotFound
}

func (s *FileStore) Search(ctx context.Context, query string, limit int) ([]types.ScoredEntry, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		results := make([]types.ScoredEntry, 0, len(doc.Entries))
		for _, entry := range doc.Entries {
			results = append(results, types.ScoredEntry{Entry: entry})
		}
		return truncate(results, limit), nil
	}

	results := make([]types.ScoredEntry, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		if score := ScoreEntry(entry, query); score > 0 {
			results = append(results, types.ScoredEntry{Entry: entry, Score: score})
		}
	}
	// Stable sort keeps stored order as the tie-break.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return truncate(results, limit), nil
}

func (s *FileStore) RelevantContext(ctx context.Context, message string, maxEntries int) (string, error) {
	results, err := s.Search(ctx, message, maxEntries)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(results))
	for _, result := range results {
		lines = append(lines, fmt.Sprintf("%s: %s", result.Entry.Key, result.Entry.Value))
	}
	return strings.Join(lines, "\n\n"), nil
}

func (s *FileStore) Stats(ctx context.Context) (*types.KnowledgeStats, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}

	stats := &types.KnowledgeStats{
		TotalEntries: len(doc.Entries),
		LastUpdated:  doc.LastUpdated,
	}
	if len(doc.Entries) == 0 {
		return stats, nil
	}

	var keyLen, valueLen int
	for _, entry := range doc.Entries {
		keyLen += len(entry.Key)
		valueLen += len(entry.Value)
	}
	stats.AverageKeyLength = float64(keyLen) / float64(len(doc.Entries))
	stats.AverageValueLength = float64(valueLen) / float64(len(doc.Entries))
	return stats, nil
}

// loadLocked reads and decodes the backing file. I/O and parse failures
// are retried with a linearly increasing delay; a file that still does not
// parse after the last attempt is quarantined and replaced with an empty
// recovered document, favoring availability over failing the caller.
func (s *FileStore) loadLocked(ctx context.Context) (*types.KnowledgeBaseDocument, error) {
	var lastErr error
	parseFailed := false

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, time.Duration(attempt-1)*retryDelay); err != nil {
				return nil, err
			}
		}

		raw, err := os.ReadFile(s.path)
		if err != nil {
			if os.IsNotExist(err) {
				doc := newEmptyDocument()
				if err := s.saveLocked(ctx, doc); err != nil {
					return nil, err
				}
				s.logger.Info("created empty knowledge base", zap.String("path", s.path))
				return doc, nil
			}
			lastErr = err
			parseFailed = false
			continue
		}

		doc, migrated, err := decodeDocument(s.path, raw)
		if err != nil {
			var formatErr *types.FormatError
			if errors.As(err, &formatErr) {
				return nil, err
			}
			lastErr = err
			parseFailed = true
			continue
		}

		if migrated {
			if err := s.saveLocked(ctx, doc); err != nil {
				return nil, err
			}
			s.logger.Info("migrated legacy knowledge base",
				zap.String("path", s.path),
				zap.Int("entries", len(doc.Entries)))
		}
		return doc, nil
	}

	if parseFailed {
		if quarantine, err := utils.TimestampedCopy(s.path, corruptedKind); err != nil {
			s.logger.Warn("failed to quarantine corrupt knowledge file", zap.Error(err))
		} else {
			s.logger.Warn("quarantined corrupt knowledge file",
				zap.String("quarantine", quarantine),
				zap.NamedError("parse_error", lastErr))
		}
		doc := newEmptyDocument()
		doc.Recovered = true
		if err := s.saveLocked(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	return nil, &types.PersistenceError{Op: "load", Err: lastErr}
}

// saveLocked stamps the document, snapshots the current file best-effort
// and atomically replaces it, retrying the write on failure.
func (s *FileStore) saveLocked(ctx context.Context, doc *types.KnowledgeBaseDocument) error {
	if doc == nil || doc.Entries == nil {
		return &types.FormatError{Path: s.path, Reason: "entries must be a list"}
	}
	doc.LastUpdated = time.Now().UTC()
	if doc.Version == "" {
		doc.Version = types.KnowledgeBaseVersion
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &types.PersistenceError{Op: "save", Err: err}
	}

	s.snapshot()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, time.Duration(attempt-1)*retryDelay); err != nil {
				return err
			}
		}
		if err := s.writeAtomic(data); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return &types.PersistenceError{Op: "save", Err: lastErr}
}

// writeAtomic writes to a temp file in the target directory and renames
// it over the target so readers never observe a partial write.
func (s *FileStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".knowledge-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// snapshot takes a rolling safety copy of the current on-disk file and
// prunes old copies. Failures never block a save.
func (s *FileStore) snapshot() {
	if _, err := os.Stat(s.path); err != nil {
		return
	}
	if _, err := utils.TimestampedCopy(s.path, snapshotKind); err != nil {
		s.logger.Warn("failed to snapshot knowledge file", zap.Error(err))
		return
	}

	pattern := fmt.Sprintf("%s.%s-*", s.path, snapshotKind)
	snapshots, err := filepath.Glob(pattern)
	if err != nil || len(snapshots) <= maxSnapshots {
		return
	}
	// Nanosecond suffixes are fixed-width, so lexicographic order is
	// chronological.
	sort.Strings(snapshots)
	for _, old := range snapshots[:len(snapshots)-maxSnapshots] {
		if err := os.Remove(old); err != nil {
			s.logger.Warn("failed to prune knowledge snapshot",
				zap.String("snapshot", old), zap.Error(err))
		}
	}
}

// decodeDocument parses raw file content into a document. A bare JSON
// array is the legacy shape and gets wrapped; the returned bool reports
// that a migration happened. An object without an entries array is a
// FormatError; anything unparseable comes back as the raw JSON error.
func decodeDocument(path string, raw []byte) (*types.KnowledgeBaseDocument, bool, error) {
	trimmed := bytes.TrimSpace(raw)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []types.KnowledgeEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, false, err
		}
		return &types.KnowledgeBaseDocument{
			Entries: entries,
			Version: types.KnowledgeBaseVersion,
		}, true, nil
	}

	var probe struct {
		Entries     json.RawMessage `json:"entries"`
		LastUpdated time.Time       `json:"last_updated"`
		Version     string          `json:"version"`
		Recovered   bool            `json:"recovered"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, false, err
	}
	if len(probe.Entries) == 0 || string(probe.Entries) == "null" {
		return nil, false, &types.FormatError{Path: path, Reason: "missing entries array"}
	}

	var entries []types.KnowledgeEntry
	if err := json.Unmarshal(probe.Entries, &entries); err != nil {
		return nil, false, &types.FormatError{Path: path, Reason: "entries is not an array"}
	}
	return &types.KnowledgeBaseDocument{
		Entries:     entries,
		LastUpdated: probe.LastUpdated,
		Version:     probe.Version,
		Recovered:   probe.Recovered,
	}, false, nil
}

func newEmptyDocument() *types.KnowledgeBaseDocument {
	return &types.KnowledgeBaseDocument{
		Entries: []types.KnowledgeEntry{},
		Version: types.KnowledgeBaseVersion,
	}
}

func truncate(results []types.ScoredEntry, limit int) []types.ScoredEntry {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
