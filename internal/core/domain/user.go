package domain

import "time"

// User est le profil public affiché à côté des posts.
// La source de vérité est l'identity-service; on en garde une projection.
type User struct {
	ID        string
	Username  string
	FullName  string
	UpdatedAt time.Time
}
