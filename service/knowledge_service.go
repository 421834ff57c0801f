package service

import (
	"context"

	"github.com/bachngocs/support-chatbot-be/database"
	"github.com/bachngocs/support-chatbot-be/types"
)

const defaultSearchLimit = 5

type KnowledgeService interface {
	CreateEntry(ctx context.Context, req types.CreateEntryRequest) (*types.KnowledgeEntry, error)
	UpdateEntry(ctx context.Context, req types.UpdateEntryRequest) (*types.KnowledgeEntry, error)
	DeleteEntry(ctx context.Context, id string) (*types.KnowledgeEntry, error)
	GetEntry(ctx context.Context, id string) (*types.KnowledgeEntry, error)
	ListEntries(ctx context.Context) ([]types.KnowledgeEntry, error)
	Search(ctx context.Context, query string, limit int) ([]types.ScoredEntry, error)
	RelevantContext(ctx context.Context, message string) (string, error)
	Stats(ctx context.Context) (*types.KnowledgeStats, error)
}

type knowledgeService struct {
	store database.KnowledgeStore
	// contextEntries caps how many entries are injected into a prompt.
	contextEntries int
}

func NewKnowledgeService(store database.KnowledgeStore, contextEntries int) KnowledgeService {
	if contextEntries <= 0 {
		contextEntries = 3
	}
	return &knowledgeService{
		store:          store,
		contextEntries: contextEntries,
	}
}

func (s *knowledgeService) CreateEntry(ctx context.Context, req types.CreateEntryRequest) (*types.KnowledgeEntry, error) {
	return s.store.Create(ctx, req.Key, req.Value, req.Tags)
}

func (s *knowledgeService) UpdateEntry(ctx context.Context, req types.UpdateEntryRequest) (*types.KnowledgeEntry, error) {
	update := types.EntryUpdate{
		Key:   req.Key,
		Value: req.Value,
		Tags:  req.Tags,
	}
	return s.store.Update(ctx, req.ID, update)
}

func (s *knowledgeService) DeleteEntry(ctx context.Context, id string) (*types.KnowledgeEntry, error) {
	return s.store.Delete(ctx, id)
}

func (s *knowledgeService) GetEntry(ctx context.Context, id string) (*types.KnowledgeEntry, error) {
	return s.store.GetByID(ctx, id)
}

func (s *knowledgeService) ListEntries(ctx context.Context) ([]types.KnowledgeEntry, error) {
	return s.store.GetAll(ctx)
}

func (s *knowledgeService) Search(ctx context.Context, query string, limit int) ([]types.ScoredEntry, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return s.store.Search(ctx, query, limit)
}

func (s *knowledgeService) RelevantContext(ctx context.Context, message string) (string, error) {
	return s.store.RelevantContext(ctx, message, s.contextEntries)
}

func (s *knowledgeService) Stats(ctx context.Context) (*types.KnowledgeStats, error) {
	return s.store.Stats(ctx)
}
