package services

import (
	"context"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/ports"
)

// PaginateWindow applique le curseur à une fenêtre newest-first issue du cache.
//
// resolved == false signifie que la fenêtre est pleine (capacity) et ne suffit pas
// à construire la page ET à dire s'il en existe une suivante: il faut interroger la base.
func PaginateWindow[T domain.Timestamped](window []T, cursor domain.Cursor, pageSize, capacity int) (page domain.Page[T], resolved bool) {
	// Pull to refresh: tout ce qui est plus récent, sans pagination.
	// La fenêtre fait foi, même si elle est pleine (fraîcheur > complétude).
	if cursor.After != nil {
		items := make([]T, 0)
		for _, item := range window {
			if !item.Timestamp().After(*cursor.After) {
				break
			}
			items = append(items, item)
		}
		return domain.Page[T]{Items: items}, true
	}

	start := 0
	if cursor.Before != nil {
		start = len(window)
		for i, item := range window {
			if item.Timestamp().Before(*cursor.Before) {
				start = i
				break
			}
		}
	}

	end := min(start+pageSize, len(window))
	page = domain.Page[T]{
		Items:       append(make([]T, 0, end-start), window[start:end]...),
		HasNextPage: len(window) > start+pageSize,
	}

	// Fenêtre non pleine => historique complet, la réponse est définitive
	return page, page.HasNextPage || len(window) < capacity
}

// PaginateRows découpe un résultat de base demandé avec LIMIT pageSize+1.
func PaginateRows[T any](rows []T, pageSize int) domain.Page[T] {
	if len(rows) > pageSize {
		return domain.Page[T]{Items: rows[:pageSize], HasNextPage: true}
	}
	if rows == nil {
		rows = make([]T, 0)
	}
	return domain.Page[T]{Items: rows}
}

// rangeQuery est la requête de secours: même curseur, tri created_at DESC, id DESC.
type rangeQuery[T any] func(ctx context.Context, cursor domain.Cursor, limit int) ([]T, error)

// paginateCached essaie le cache borné puis retombe sur la base si nécessaire.
func paginateCached[T domain.Timestamped](ctx context.Context, lc ports.ListCache[T], ownerID string, cursor domain.Cursor, pageSize int, query rangeQuery[T]) (domain.Page[T], error) {
	window, err := lc.Load(ctx, ownerID)
	if err != nil {
		return domain.Page[T]{}, err
	}

	page, resolved := PaginateWindow(window, cursor, pageSize, lc.Limit())
	if resolved {
		return page, nil
	}

	rows, err := query(ctx, cursor, pageSize+1)
	if err != nil {
		return domain.Page[T]{}, err
	}
	return PaginateRows(rows, pageSize), nil
}
