package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
)

const postColumns = `id, author_id, content, created_at`

func (r *PostgresRepo) SavePost(ctx context.Context, post *domain.Post) error {
	query := `INSERT INTO posts (id, author_id, content, created_at) VALUES ($1, $2, $3, $4)`

	if _, err := r.db.Exec(ctx, query, post.ID, post.AuthorID, post.Content, post.CreatedAt); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *PostgresRepo) FindPostByID(ctx context.Context, postID string) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	var p domain.Post
	err := r.db.QueryRow(ctx, query, postID).Scan(&p.ID, &p.AuthorID, &p.Content, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("select post: %w", err)
	}
	return &p, nil
}

// ListPostsByAuthor : pagination keyset, jamais d'OFFSET.
func (r *PostgresRepo) ListPostsByAuthor(ctx context.Context, authorID string, cursor domain.Cursor, limit int) ([]domain.Post, error) {
	query, args := keyset(`SELECT `+postColumns+` FROM posts WHERE author_id = $1`, authorID, cursor, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return pgx.CollectRows(rows, scanPost)
}

func (r *PostgresRepo) DeletePost(ctx context.Context, postID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func scanPost(row pgx.CollectableRow) (domain.Post, error) {
	var p domain.Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.Content, &p.CreatedAt)
	return p, err
}
