package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
)

const (
	feedEntryColumns = `id, owner_id, post_id, created_at`

	foreignKeyViolation = "23503"
)

// BulkInsertFeedEntries : un seul aller-retour quel que soit le nombre d'owners.
// Le DO UPDATE (no-op) force le RETURNING des lignes déjà présentes: un batch rejoué
// renvoie exactement les mêmes entrées, sans erreur de contrainte.
func (r *PostgresRepo) BulkInsertFeedEntries(ctx context.Context, postID string, ownerIDs []string) ([]domain.FeedEntry, error) {
	if len(ownerIDs) == 0 {
		return []domain.FeedEntry{}, nil
	}

	ids := make([]string, len(ownerIDs))
	for i := range ownerIDs {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate entry id: %w", err)
		}
		ids[i] = id.String()
	}
	now := time.Now().UTC().Truncate(time.Microsecond)

	query := `
		INSERT INTO feed_entries (id, owner_id, post_id, created_at)
		SELECT e.id, e.owner_id, $3, $4
		FROM unnest($1::text[], $2::text[]) AS e(id, owner_id)
		ON CONFLICT (owner_id, post_id) DO UPDATE SET post_id = EXCLUDED.post_id
		RETURNING ` + feedEntryColumns

	rows, err := r.db.Query(ctx, query, ids, ownerIDs, postID, now)
	if err != nil {
		return nil, fmt.Errorf("bulk insert feed entries: %w", postGone(err))
	}
	entries, err := pgx.CollectRows(rows, scanFeedEntry)
	if err != nil {
		return nil, fmt.Errorf("bulk insert feed entries: %w", postGone(err))
	}
	return entries, nil
}

// postGone : le post a été supprimé entre la tâche principale et le batch (FK feed_entries.post_id).
func postGone(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return fmt.Errorf("%w: %s", domain.ErrPostNotFound, pgErr.ConstraintName)
	}
	return err
}

func (r *PostgresRepo) ListFeedEntries(ctx context.Context, ownerID string, cursor domain.Cursor, limit int) ([]domain.FeedEntry, error) {
	query, args := keyset(`SELECT `+feedEntryColumns+` FROM feed_entries WHERE owner_id = $1`, ownerID, cursor, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feed entries: %w", err)
	}
	return pgx.CollectRows(rows, scanFeedEntry)
}

// NewestFeedEntries alimente le ListCache "newsfeeds".
func (r *PostgresRepo) NewestFeedEntries(ctx context.Context, ownerID string, limit int) ([]domain.FeedEntry, error) {
	return r.ListFeedEntries(ctx, ownerID, domain.Cursor{}, limit)
}

// NewestPosts alimente le ListCache "tweets".
func (r *PostgresRepo) NewestPosts(ctx context.Context, authorID string, limit int) ([]domain.Post, error) {
	return r.ListPostsByAuthor(ctx, authorID, domain.Cursor{}, limit)
}

func scanFeedEntry(row pgx.CollectableRow) (domain.FeedEntry, error) {
	var e domain.FeedEntry
	err := row.Scan(&e.ID, &e.OwnerID, &e.PostID, &e.CreatedAt)
	return e, err
}
