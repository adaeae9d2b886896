package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
)

func (r *PostgresRepo) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT id, username, full_name, updated_at FROM users WHERE id = $1`

	var u domain.User
	err := r.db.QueryRow(ctx, query, userID).Scan(&u.ID, &u.Username, &u.FullName, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound // Traduction technique -> Domaine
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// UpsertUser : les events peuvent arriver dans le désordre, le WHERE garde le snapshot le plus récent.
func (r *PostgresRepo) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, full_name, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username, full_name = EXCLUDED.full_name, updated_at = EXCLUDED.updated_at
		WHERE users.updated_at <= EXCLUDED.updated_at
	`

	if _, err := r.db.Exec(ctx, query, user.ID, user.Username, user.FullName, user.UpdatedAt); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
