package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
)

// DB est le sous-ensemble de *pgxpool.Pool utilisé ici (pgxmock en test).
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepo implémente PostStore, UserStore et FeedStore sur la même base.
type PostgresRepo struct {
	db DB
}

func NewPostgresRepo(db DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// keyset ajoute le filtre du curseur, le tri et la limite à une requête "... WHERE <owner> = $1".
// Le tri (created_at DESC, id DESC) est le même que celui des caches.
func keyset(query string, ownerID string, cursor domain.Cursor, limit int) (string, []any) {
	args := []any{ownerID}

	switch {
	case cursor.After != nil:
		query += " AND created_at > $2"
		args = append(args, *cursor.After)
	case cursor.Before != nil:
		query += " AND created_at < $2"
		args = append(args, *cursor.Before)
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))
	return query, args
}
