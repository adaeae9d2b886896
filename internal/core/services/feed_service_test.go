package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
)

func TestListFeedEmptyFeed(t *testing.T) {
	h := newHarness(20, 1000, nil)

	page, err := h.feed.ListFeed(context.Background(), domain.FeedRequest{UserID: "u1", PageSize: 20})
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.False(t, page.HasNextPage)
	assert.False(t, h.entries.cached("u1"), "an empty history is not cached")
}

func TestListFeedRejectsInvalidRequest(t *testing.T) {
	h := newHarness(20, 1000, nil)
	ctx := context.Background()

	_, err := h.feed.ListFeed(ctx, domain.FeedRequest{PageSize: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = h.feed.ListFeed(ctx, domain.FeedRequest{UserID: "u1"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

// 25 entrées, fenêtre de 20, pages de 10: la 3e page et la fin de la 2e passent par la base.
func TestListFeedWalksPastTheWindow(t *testing.T) {
	h := newHarness(20, 1000, nil)
	for i := 1; i <= 25; i++ {
		h.store.seedEntry("u1", i)
	}
	ctx := context.Background()
	req := domain.FeedRequest{UserID: "u1", PageSize: 10}

	page1, err := h.feed.ListFeed(ctx, req)
	require.NoError(t, err)
	require.Len(t, page1.Items, 10)
	assert.Equal(t, "fe-u1-025", page1.Items[0].ID)
	assert.Equal(t, "fe-u1-016", page1.Items[9].ID)
	assert.True(t, page1.HasNextPage)
	assert.EqualValues(t, 1, h.store.feedQueries.Load(), "only the cold fill")

	req.Cursor = domain.Cursor{Before: &page1.Items[9].CreatedAt}
	page2, err := h.feed.ListFeed(ctx, req)
	require.NoError(t, err)
	require.Len(t, page2.Items, 10)
	assert.Equal(t, "fe-u1-015", page2.Items[0].ID)
	assert.Equal(t, "fe-u1-006", page2.Items[9].ID)
	assert.True(t, page2.HasNextPage)
	assert.EqualValues(t, 2, h.store.feedQueries.Load())

	req.Cursor = domain.Cursor{Before: &page2.Items[9].CreatedAt}
	page3, err := h.feed.ListFeed(ctx, req)
	require.NoError(t, err)
	require.Len(t, page3.Items, 5)
	assert.Equal(t, "fe-u1-005", page3.Items[0].ID)
	assert.Equal(t, "fe-u1-001", page3.Items[4].ID)
	assert.False(t, page3.HasNextPage)
	assert.EqualValues(t, 3, h.store.feedQueries.Load())
}

func TestListFeedShortHistoryNeverHitsStoreAgain(t *testing.T) {
	h := newHarness(20, 1000, nil)
	for i := 1; i <= 7; i++ {
		h.store.seedEntry("u1", i)
	}
	ctx := context.Background()

	var cursor domain.Cursor
	var seen []string
	for {
		page, err := h.feed.ListFeed(ctx, domain.FeedRequest{UserID: "u1", Cursor: cursor, PageSize: 3})
		require.NoError(t, err)
		seen = append(seen, entryIDs(page.Items)...)
		if !page.HasNextPage {
			break
		}
		cursor = domain.Cursor{Before: &page.Items[len(page.Items)-1].CreatedAt}
	}

	assert.Len(t, seen, 7)
	assert.EqualValues(t, 1, h.store.feedQueries.Load())
}

func TestListFeedRefreshReturnsOnlyNewerEntries(t *testing.T) {
	h := newHarness(20, 1000, staticGraph{"author": {"u1"}})
	for i := 1; i <= 5; i++ {
		h.store.seedEntry("u1", i)
	}
	ctx := context.Background()

	first, err := h.feed.ListFeed(ctx, domain.FeedRequest{UserID: "u1", PageSize: 10})
	require.NoError(t, err)
	newest := first.Items[0].CreatedAt

	// Un nouveau post arrive par le fan-out
	h.store.now = newest
	n, err := h.fanout.FanoutBatch(ctx, "p-new", []string{"u1"})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	page, err := h.feed.ListFeed(ctx, domain.FeedRequest{UserID: "u1", Cursor: domain.Cursor{After: &newest}, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "p-new", page.Items[0].PostID)
	assert.False(t, page.HasNextPage)
}

func TestGetTimelineHydratesAndSkipsDeletedPosts(t *testing.T) {
	h := newHarness(20, 1000, staticGraph{"author": {"reader"}})
	h.store.addUser("author")
	h.store.addUser("reader")
	ctx := context.Background()

	var created []*domain.Post
	for i := range 3 {
		post, err := h.post.CreatePost(ctx, "author", fmt.Sprintf("post %d", i))
		require.NoError(t, err)
		created = append(created, post)
	}
	h.scheduler.runAll(t, h.fanout)

	// Le feed de reader est déjà en cache quand la modération supprime le 2e post
	_, err := h.feed.ListFeed(ctx, domain.FeedRequest{UserID: "reader", PageSize: 10})
	require.NoError(t, err)
	require.NoError(t, h.sync.PostDeleted(ctx, created[1].ID, "author"))

	page, err := h.feed.GetTimeline(ctx, domain.FeedRequest{UserID: "reader", PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, created[2].ID, page.Items[0].Post.ID)
	assert.Equal(t, created[0].ID, page.Items[1].Post.ID)
	for _, item := range page.Items {
		assert.Equal(t, "author", item.Author.ID)
		assert.Equal(t, "User author", item.Author.FullName)
		assert.Equal(t, item.Entry.PostID, item.Post.ID)
	}
}

func TestGetTimelinePropagatesInvalidRequest(t *testing.T) {
	h := newHarness(20, 1000, nil)

	_, err := h.feed.GetTimeline(context.Background(), domain.FeedRequest{UserID: "u1"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
