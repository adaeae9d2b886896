package grpc

import "time"

// FeedPageRequest sert à ListFeed et GetTimeline.
// after => pull to refresh, before => load more; after l'emporte si les deux sont fournis.
type FeedPageRequest struct {
	UserID   string     `json:"user_id"`
	After    *time.Time `json:"after,omitempty"`
	Before   *time.Time `json:"before,omitempty"`
	PageSize int32      `json:"page_size,omitempty"`
}

type FeedEntry struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ListFeedResponse struct {
	Entries     []FeedEntry `json:"entries"`
	HasNextPage bool        `json:"has_next_page"`
}

type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// FeedItem : created_at est celui de l'entrée (curseur), pas celui du post.
type FeedItem struct {
	EntryID   string    `json:"entry_id"`
	CreatedAt time.Time `json:"created_at"`
	Post      Post      `json:"post"`
	Author    Author    `json:"author"`
}

type GetTimelineResponse struct {
	Items       []FeedItem `json:"items"`
	HasNextPage bool       `json:"has_next_page"`
}

type CreatePostRequest struct {
	AuthorID string `json:"author_id"`
	Content  string `json:"content"`
}

type CreatePostResponse struct {
	Post Post `json:"post"`
}

type GetPostRequest struct {
	PostID string `json:"post_id"`
}

type GetPostResponse struct {
	Post Post `json:"post"`
}

type ListPostsByAuthorRequest struct {
	AuthorID string     `json:"author_id"`
	After    *time.Time `json:"after,omitempty"`
	Before   *time.Time `json:"before,omitempty"`
	PageSize int32      `json:"page_size,omitempty"`
}

type ListPostsResponse struct {
	Posts       []Post `json:"posts"`
	HasNextPage bool   `json:"has_next_page"`
}
