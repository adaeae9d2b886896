package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPost(t *testing.T) {
	post, err := NewPost("author-1", "  hello world  ")
	require.NoError(t, err)

	assert.Equal(t, "author-1", post.AuthorID)
	assert.Equal(t, "hello world", post.Content)
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, post.CreatedAt, post.CreatedAt.Truncate(time.Microsecond))
}

func TestNewPostRejectsInvalidContent(t *testing.T) {
	tests := []struct {
		name    string
		author  string
		content string
		wantErr error
	}{
		{name: "empty author", author: "", content: "hi", wantErr: ErrInvalidArgument},
		{name: "blank content", author: "a", content: "   ", wantErr: ErrInvalidContent},
		{name: "too long", author: "a", content: strings.Repeat("é", MaxContentLength+1), wantErr: ErrInvalidContent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPost(tc.author, tc.content)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrPostNotFound))
	assert.True(t, IsNotFound(ErrUserNotFound))
	assert.False(t, IsNotFound(ErrInvalidCursor))
}
