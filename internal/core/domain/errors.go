package domain

import "errors"

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidContent  = errors.New("content must be between 1 and 255 characters")
	ErrInvalidCursor   = errors.New("invalid cursor")
)

// IsNotFound regroupe les erreurs "l'objet n'existe plus".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound) || errors.Is(err, ErrUserNotFound)
}
