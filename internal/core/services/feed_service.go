package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/ports"
)

type FeedService struct {
	entries  ports.ListCache[domain.FeedEntry]
	store    ports.FeedStore
	hydrator *Hydrator
	log      *slog.Logger
}

func NewFeedService(entries ports.ListCache[domain.FeedEntry], store ports.FeedStore, hydrator *Hydrator, log *slog.Logger) *FeedService {
	return &FeedService{
		entries:  entries,
		store:    store,
		hydrator: hydrator,
		log:      log,
	}
}

func (s *FeedService) ListFeed(ctx context.Context, req domain.FeedRequest) (domain.Page[domain.FeedEntry], error) {
	if req.UserID == "" || req.PageSize <= 0 {
		return domain.Page[domain.FeedEntry]{}, domain.ErrInvalidArgument
	}

	page, err := paginateCached(ctx, s.entries, req.UserID, req.Cursor, req.PageSize,
		func(ctx context.Context, cursor domain.Cursor, limit int) ([]domain.FeedEntry, error) {
			s.log.DebugContext(ctx, "Feed window exhausted, querying store", "user_id", req.UserID)
			return s.store.ListFeedEntries(ctx, req.UserID, cursor, limit)
		})
	if err != nil {
		return domain.Page[domain.FeedEntry]{}, fmt.Errorf("feed: list %s: %w", req.UserID, err)
	}
	return page, nil
}

func (s *FeedService) GetTimeline(ctx context.Context, req domain.FeedRequest) (domain.Page[domain.FeedItem], error) {
	page, err := s.ListFeed(ctx, req)
	if err != nil {
		return domain.Page[domain.FeedItem]{}, err
	}

	items, err := s.hydrator.Hydrate(ctx, page.Items)
	if err != nil {
		return domain.Page[domain.FeedItem]{}, fmt.Errorf("feed: hydrate: %w", err)
	}

	return domain.Page[domain.FeedItem]{Items: items, HasNextPage: page.HasNextPage}, nil
}
