package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/ports"
)

// FanoutService implémente le fan-out on write: chaque post est recopié
// dans le feed de l'auteur et de chacun de ses abonnés.
type FanoutService struct {
	posts     ports.PostStore
	feeds     ports.FeedStore
	entries   ports.ListCache[domain.FeedEntry]
	graph     ports.FollowerSource
	scheduler ports.TaskScheduler
	batchSize int
	log       *slog.Logger
}

func NewFanoutService(
	posts ports.PostStore,
	feeds ports.FeedStore,
	entries ports.ListCache[domain.FeedEntry],
	graph ports.FollowerSource,
	scheduler ports.TaskScheduler,
	batchSize int,
	log *slog.Logger,
) *FanoutService {
	return &FanoutService{
		posts:     posts,
		feeds:     feeds,
		entries:   entries,
		graph:     graph,
		scheduler: scheduler,
		batchSize: batchSize,
		log:       log,
	}
}

func (s *FanoutService) EnqueueFanout(ctx context.Context, postID string) error {
	if postID == "" {
		return domain.ErrInvalidArgument
	}
	return s.scheduler.EnqueueFanout(ctx, postID)
}

// FanoutMain est rejouable: les entrées déjà créées sont absorbées par le store
// et les pushs en cache sont idempotents.
func (s *FanoutService) FanoutMain(ctx context.Context, postID string) (domain.FanoutResult, error) {
	result := domain.FanoutResult{PostID: postID}

	post, err := s.posts.FindPostByID(ctx, postID)
	if err != nil {
		return result, fmt.Errorf("fanout: load post %s: %w", postID, err)
	}

	// 1. Le feed de l'auteur, synchrone dans la tâche principale
	own, err := s.feeds.BulkInsertFeedEntries(ctx, post.ID, []string{post.AuthorID})
	if err != nil {
		return result, fmt.Errorf("fanout: author entry: %w", err)
	}
	s.push(ctx, own)

	// 2. Les abonnés
	followers, err := s.graph.GetFollowerIDs(ctx, post.AuthorID)
	if err != nil {
		return result, fmt.Errorf("fanout: followers of %s: %w", post.AuthorID, err)
	}
	followers = uniqueIDs(followers, post.AuthorID)

	batches := Chunk(followers, s.batchSize)
	result.Followers = len(followers)
	result.Batches = len(batches)

	s.log.InfoContext(ctx, fmt.Sprintf("%d feed entries going to fan out, %d batches created", len(followers), len(batches)),
		"post_id", post.ID,
		"author_id", post.AuthorID,
	)

	// 3. Un batch = une tâche. On planifie tout, puis on remonte les échecs:
	// la tâche principale sera rejouée en entier.
	var errs []error
	for i, batch := range batches {
		if err := s.scheduler.EnqueueFanoutBatch(ctx, post.ID, batch); err != nil {
			s.log.ErrorContext(ctx, "Failed to schedule fan-out batch", "post_id", post.ID, "batch", i, "error", err)
			errs = append(errs, fmt.Errorf("batch %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return result, fmt.Errorf("fanout: schedule batches: %w", errors.Join(errs...))
	}

	return result, nil
}

// FanoutBatch insère les entrées en un seul aller-retour puis met à jour les caches.
func (s *FanoutService) FanoutBatch(ctx context.Context, postID string, followerIDs []string) (int, error) {
	followerIDs = uniqueIDs(followerIDs, "")
	if len(followerIDs) == 0 {
		return 0, nil
	}

	entries, err := s.feeds.BulkInsertFeedEntries(ctx, postID, followerIDs)
	if err != nil {
		return 0, fmt.Errorf("fanout: bulk insert %d entries: %w", len(followerIDs), err)
	}
	s.push(ctx, entries)

	s.log.DebugContext(ctx, "Fan-out batch done", "post_id", postID, "entries", len(entries))
	return len(entries), nil
}

// push n'échoue jamais: l'entrée est en base, une fenêtre invalidée se reconstruit à la lecture.
func (s *FanoutService) push(ctx context.Context, entries []domain.FeedEntry) {
	for _, e := range entries {
		if err := s.entries.Push(ctx, e.OwnerID, e); err != nil {
			s.log.WarnContext(ctx, "Failed to push feed entry to cache", "owner_id", e.OwnerID, "post_id", e.PostID, "error", err)
		}
	}
}

// Chunk découpe ids en tranches de taille size (la dernière peut être plus courte).
func Chunk(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// uniqueIDs dédoublonne en gardant l'ordre, et retire exclude.
// Un owner en double dans le même INSERT ... ON CONFLICT DO UPDATE ferait échouer la requête.
func uniqueIDs(ids []string, exclude string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
