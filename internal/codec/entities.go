package codec

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
)

// Numéros de champs: ne jamais réutiliser un numéro retiré.
const (
	postID        protowire.Number = 1
	postAuthorID  protowire.Number = 2
	postContent   protowire.Number = 3
	postCreatedAt protowire.Number = 4

	userID        protowire.Number = 1
	userUsername  protowire.Number = 2
	userFullName  protowire.Number = 3
	userUpdatedAt protowire.Number = 4

	entryID        protowire.Number = 1
	entryOwnerID   protowire.Number = 2
	entryPostID    protowire.Number = 3
	entryCreatedAt protowire.Number = 4
)

type PostCodec struct{}

func (PostCodec) Encode(p domain.Post) ([]byte, error) {
	b := []byte{schemaV1}
	b = appendString(b, postID, p.ID)
	b = appendString(b, postAuthorID, p.AuthorID)
	b = appendString(b, postContent, p.Content)
	b = appendTime(b, postCreatedAt, p.CreatedAt)
	return b, nil
}

func (PostCodec) Decode(data []byte) (domain.Post, error) {
	var p domain.Post
	body, err := header(data)
	if err != nil {
		return p, err
	}
	err = walk(body, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case postID:
			return consumeString(typ, b, &p.ID)
		case postAuthorID:
			return consumeString(typ, b, &p.AuthorID)
		case postContent:
			return consumeString(typ, b, &p.Content)
		case postCreatedAt:
			return consumeTime(typ, b, &p.CreatedAt)
		}
		return 0
	})
	return p, err
}

type UserCodec struct{}

func (UserCodec) Encode(u domain.User) ([]byte, error) {
	b := []byte{schemaV1}
	b = appendString(b, userID, u.ID)
	b = appendString(b, userUsername, u.Username)
	b = appendString(b, userFullName, u.FullName)
	b = appendTime(b, userUpdatedAt, u.UpdatedAt)
	return b, nil
}

func (UserCodec) Decode(data []byte) (domain.User, error) {
	var u domain.User
	body, err := header(data)
	if err != nil {
		return u, err
	}
	err = walk(body, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case userID:
			return consumeString(typ, b, &u.ID)
		case userUsername:
			return consumeString(typ, b, &u.Username)
		case userFullName:
			return consumeString(typ, b, &u.FullName)
		case userUpdatedAt:
			return consumeTime(typ, b, &u.UpdatedAt)
		}
		return 0
	})
	return u, err
}

type FeedEntryCodec struct{}

func (FeedEntryCodec) Encode(e domain.FeedEntry) ([]byte, error) {
	b := []byte{schemaV1}
	b = appendString(b, entryID, e.ID)
	b = appendString(b, entryOwnerID, e.OwnerID)
	b = appendString(b, entryPostID, e.PostID)
	b = appendTime(b, entryCreatedAt, e.CreatedAt)
	return b, nil
}

func (FeedEntryCodec) Decode(data []byte) (domain.FeedEntry, error) {
	var e domain.FeedEntry
	body, err := header(data)
	if err != nil {
		return e, err
	}
	err = walk(body, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case entryID:
			return consumeString(typ, b, &e.ID)
		case entryOwnerID:
			return consumeString(typ, b, &e.OwnerID)
		case entryPostID:
			return consumeString(typ, b, &e.PostID)
		case entryCreatedAt:
			return consumeTime(typ, b, &e.CreatedAt)
		}
		return 0
	})
	return e, err
}
