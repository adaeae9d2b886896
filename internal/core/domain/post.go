package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxContentLength = 255

// Post est immuable après création.
type Post struct {
	ID        string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

func (p Post) Timestamp() time.Time { return p.CreatedAt }
func (p Post) Identity() string     { return p.ID }

// NewPost valide le contenu et génère l'identité (UUID v7, ordonné dans le temps).
func NewPost(authorID, content string) (*Post, error) {
	if strings.TrimSpace(authorID) == "" {
		return nil, ErrInvalidArgument
	}
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > MaxContentLength {
		return nil, ErrInvalidContent
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	return &Post{
		ID:       id.String(),
		AuthorID: authorID,
		Content:  content,
		// Postgres stocke à la microseconde
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}, nil
}
