package database

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bachngocs/support-chatbot-be/types"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "knowledge.json"), nil)
}

func TestLoadCreatesEmptyDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Entries)
	assert.Equal(t, types.KnowledgeBaseVersion, doc.Version)
	assert.False(t, doc.Recovered)

	// The empty document is persisted, not just returned.
	_, err = os.Stat(store.path)
	assert.NoError(t, err)
}

func TestCreateAndGetByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry, err := store.Create(ctx, "  Shipping  ", "  We ship worldwide  ", []string{"shipping", "faq"})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "Shipping", entry.Key)
	assert.Equal(t, "We ship worldwide", entry.Value)
	assert.Equal(t, []string{"shipping", "faq"}, entry.Tags)
	assert.Equal(t, entry.CreatedAt, entry.UpdatedAt)

	got, err := store.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, entry.Key, got.Key)
	assert.Equal(t, entry.Value, got.Value)
	assert.Equal(t, entry.Tags, got.Tags)

	missing, err := store.GetByID(ctx, "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "   ", "value", nil)
	assert.ErrorIs(t, err, types.ErrInvalidEntry)

	_, err = store.Create(ctx, "key", "  ", nil)
	assert.ErrorIs(t, err, types.ErrInvalidEntry)

	entry, err := store.Create(ctx, "key", "value", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, entry.Tags)
}

func TestUpdateMergesOnlyProvidedFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "Returns", "30 day window", []string{"policy"})
	require.NoError(t, err)

	newValue := "60 day window"
	updated, err := store.Update(ctx, created.ID, types.EntryUpdate{Value: &newValue})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Returns", updated.Key)
	assert.Equal(t, "60 day window", updated.Value)
	assert.Equal(t, []string{"policy"}, updated.Tags)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	_, err = store.Update(ctx, "no-such-id", types.EntryUpdate{Value: &newValue})
	assert.ErrorIs(t, err, types.ErrEntryNotFound)

	blank := "   "
	_, err = store.Update(ctx, created.ID, types.EntryUpdate{Key: &blank})
	assert.ErrorIs(t, err, types.ErrInvalidEntry)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "Warranty", "Two years", nil)
	require.NoError(t, err)

	removed, err := store.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, removed.ID)

	got, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = store.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, types.ErrEntryNotFound)
}

func TestSearchOrderingAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "Pricing", "See our plans", nil)
	require.NoError(t, err)
	_, err = store.Create(ctx, "Our Pricing Plans", "Monthly and yearly", nil)
	require.NoError(t, err)
	_, err = store.Create(ctx, "Refunds", "See pricing terms", []string{"pricing"})
	require.NoError(t, err)
	_, err = store.Create(ctx, "Shipping", "We deliver worldwide", nil)
	require.NoError(t, err)

	results, err := store.Search(ctx, "pricing", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "Pricing", results[0].Entry.Key)
	assert.Equal(t, "Our Pricing Plans", results[1].Entry.Key)
	assert.Equal(t, "Refunds", results[2].Entry.Key)
	for _, r := range results {
		assert.Greater(t, r.Score, 0)
	}

	limited, err := store.Search(ctx, "pricing", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	// Idempotence: same query, same ordered results.
	again, err := store.Search(ctx, "pricing", 10)
	require.NoError(t, err)
	assert.Equal(t, results, again)
}

func TestSearchBlankQueryReturnsStoredOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	keys := []string{"One", "Two", "Three"}
	for _, key := range keys {
		_, err := store.Create(ctx, key, "body", nil)
		require.NoError(t, err)
	}

	results, err := store.Search(ctx, "   ", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "One", results[0].Entry.Key)
	assert.Equal(t, "Two", results[1].Entry.Key)
	assert.Zero(t, results[0].Score)
}

func TestRelevantContext(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "Shipping", "We ship worldwide", []string{"shipping"})
	require.NoError(t, err)
	_, err = store.Create(ctx, "Shipping Costs", "Free over $50", nil)
	require.NoError(t, err)

	contextText, err := store.RelevantContext(ctx, "shipping", 5)
	require.NoError(t, err)
	assert.Contains(t, contextText, "Shipping: We ship worldwide")
	assert.Contains(t, contextText, "Shipping Costs: Free over $50")
	assert.Contains(t, contextText, "\n\n")

	empty, err := store.RelevantContext(ctx, "unrelated topic zzz", 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSaveRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "Pricing", "See plans", []string{"pricing"})
	require.NoError(t, err)
	_, err = store.Create(ctx, "Returns", "30 days", nil)
	require.NoError(t, err)

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, doc))

	reloaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc.Entries, reloaded.Entries)
}

func TestLegacyArrayMigration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	legacy := `[{"id":"abc","key":"Pricing","value":"See plans","tags":["pricing"]}]`
	require.NoError(t, os.MkdirAll(filepath.Dir(store.path), 0755))
	require.NoError(t, os.WriteFile(store.path, []byte(legacy), 0644))

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "abc", doc.Entries[0].ID)
	assert.Equal(t, types.KnowledgeBaseVersion, doc.Version)

	// The migrated shape is persisted immediately.
	raw, err := os.ReadFile(store.path)
	require.NoError(t, err)
	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Contains(t, onDisk, "entries")
	assert.Contains(t, onDisk, "version")
}

func TestCorruptFileIsQuarantinedAndReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Dir(store.path), 0755))
	require.NoError(t, os.WriteFile(store.path, []byte("{this is not json"), 0644))

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Entries)
	assert.True(t, doc.Recovered)

	quarantined, err := filepath.Glob(store.path + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, quarantined, 1)
	raw, err := os.ReadFile(quarantined[0])
	require.NoError(t, err)
	assert.Equal(t, "{this is not json", string(raw))
}

func TestMissingEntriesArrayIsFormatError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Dir(store.path), 0755))
	require.NoError(t, os.WriteFile(store.path, []byte(`{"version":"1.0"}`), 0644))

	_, err := store.Load(ctx)
	var formatErr *types.FormatError
	require.ErrorAs(t, err, &formatErr)

	require.NoError(t, os.WriteFile(store.path, []byte(`{"entries":"nope"}`), 0644))
	_, err = store.Load(ctx)
	require.ErrorAs(t, err, &formatErr)
}

func TestSnapshotsArePruned(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := store.Create(ctx, "Key", "Value", nil)
		require.NoError(t, err)
	}

	snapshots, err := filepath.Glob(store.path + ".bak-*")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(snapshots), maxSnapshots)
	assert.NotEmpty(t, snapshots)
}

func TestSaveRejectsNilEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var formatErr *types.FormatError
	err := store.Save(ctx, &types.KnowledgeBaseDocument{})
	require.ErrorAs(t, err, &formatErr)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEntries)
	assert.Zero(t, stats.AverageKeyLength)

	_, err = store.Create(ctx, "ab", "1234", nil)
	require.NoError(t, err)
	_, err = store.Create(ctx, "abcd", "12", nil)
	require.NoError(t, err)

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.InDelta(t, 3.0, stats.AverageKeyLength, 0.001)
	assert.InDelta(t, 3.0, stats.AverageValueLength, 0.001)
	assert.False(t, stats.LastUpdated.IsZero())
}

func TestCreateThenSearchScenario(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "FAQ", "We ship worldwide", []string{"shipping"})
	require.NoError(t, err)

	results, err := store.Search(ctx, "shipping", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, created.ID, results[0].Entry.ID)
	assert.GreaterOrEqual(t, results[0].Score, 40)
}
