package domain

import "time"

// Timestamped est tout ce qui peut être paginé par curseur temporel.
type Timestamped interface {
	Timestamp() time.Time
	Identity() string
}

// FeedEntry matérialise "ce post apparaît dans le feed de ce user".
// Le CreatedAt est celui du fan-out, pas celui du post.
type FeedEntry struct {
	ID        string
	OwnerID   string
	PostID    string
	CreatedAt time.Time
}

func (e FeedEntry) Timestamp() time.Time { return e.CreatedAt }
func (e FeedEntry) Identity() string     { return e.ID }

// FeedItem est une entrée hydratée, prête pour le rendu.
type FeedItem struct {
	Entry  FeedEntry
	Post   Post
	Author User
}

// Cursor encapsule le protocole "pull to refresh" (After) / "load more" (Before).
// Si les deux sont renseignés, After l'emporte.
type Cursor struct {
	After  *time.Time
	Before *time.Time
}

func (c Cursor) IsZero() bool { return c.After == nil && c.Before == nil }

// Page est le résultat consommé par la couche API.
type Page[T any] struct {
	Items       []T
	HasNextPage bool
}

// FeedRequest encapsule les critères de lecture
type FeedRequest struct {
	UserID   string
	Cursor   Cursor
	PageSize int
}

// FanoutResult résume le travail planifié par la tâche principale.
type FanoutResult struct {
	PostID    string
	Followers int
	Batches   int
}
