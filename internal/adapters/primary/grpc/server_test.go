package grpc

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
)

var ts = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeFeed struct {
	last domain.FeedRequest
	err  error
}

func (f *fakeFeed) ListFeed(_ context.Context, req domain.FeedRequest) (domain.Page[domain.FeedEntry], error) {
	f.last = req
	if f.err != nil {
		return domain.Page[domain.FeedEntry]{}, f.err
	}
	return domain.Page[domain.FeedEntry]{
		Items:       []domain.FeedEntry{{ID: "e2", OwnerID: req.UserID, PostID: "p2", CreatedAt: ts}},
		HasNextPage: true,
	}, nil
}

func (f *fakeFeed) GetTimeline(_ context.Context, req domain.FeedRequest) (domain.Page[domain.FeedItem], error) {
	f.last = req
	if f.err != nil {
		return domain.Page[domain.FeedItem]{}, f.err
	}
	return domain.Page[domain.FeedItem]{Items: []domain.FeedItem{{
		Entry:  domain.FeedEntry{ID: "e2", OwnerID: req.UserID, PostID: "p2", CreatedAt: ts},
		Post:   domain.Post{ID: "p2", AuthorID: "a1", Content: "hello", CreatedAt: ts.Add(-time.Minute)},
		Author: domain.User{ID: "a1", Username: "neo", FullName: "Thomas Anderson"},
	}}}, nil
}

type fakePosts struct {
	lastCursor domain.Cursor
	lastSize   int
}

func (f *fakePosts) CreatePost(_ context.Context, authorID, content string) (*domain.Post, error) {
	return domain.NewPost(authorID, content)
}

func (f *fakePosts) GetPost(_ context.Context, postID string) (*domain.Post, error) {
	if postID != "p1" {
		return nil, domain.ErrPostNotFound
	}
	return &domain.Post{ID: "p1", AuthorID: "a1", Content: "hello", CreatedAt: ts}, nil
}

func (f *fakePosts) ListPostsByAuthor(_ context.Context, authorID string, cursor domain.Cursor, pageSize int) (domain.Page[domain.Post], error) {
	f.lastCursor, f.lastSize = cursor, pageSize
	return domain.Page[domain.Post]{Items: []domain.Post{{ID: "p1", AuthorID: authorID, CreatedAt: ts}}}, nil
}

func startServer(t *testing.T, feed *fakeFeed, posts *fakePosts) (*Client, *grpc.ClientConn) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	srv := grpc.NewServer()
	NewServer(feed, posts, 20, slog.New(slog.DiscardHandler)).Register(srv)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewClient(conn), conn
}

func TestListFeed(t *testing.T) {
	feed := &fakeFeed{}
	client, _ := startServer(t, feed, &fakePosts{})
	before := ts

	resp, err := client.ListFeed(context.Background(), &FeedPageRequest{UserID: "u1", Before: &before, PageSize: 10})
	require.NoError(t, err)

	assert.True(t, resp.HasNextPage)
	assert.Equal(t, []FeedEntry{{ID: "e2", PostID: "p2", CreatedAt: ts}}, resp.Entries)
	assert.Equal(t, "u1", feed.last.UserID)
	assert.Equal(t, 10, feed.last.PageSize)
	require.NotNil(t, feed.last.Cursor.Before)
	assert.True(t, ts.Equal(*feed.last.Cursor.Before))
	assert.Nil(t, feed.last.Cursor.After)
}

func TestPageSizeIsClamped(t *testing.T) {
	feed := &fakeFeed{}
	client, _ := startServer(t, feed, &fakePosts{})
	ctx := context.Background()

	cases := map[int32]int{0: 20, -3: 1, 1: 1, 100: 100, 5000: 100}
	for requested, want := range cases {
		_, err := client.ListFeed(ctx, &FeedPageRequest{UserID: "u1", PageSize: requested})
		require.NoError(t, err)
		assert.Equal(t, want, feed.last.PageSize, "requested %d", requested)
	}
}

func TestGetTimeline(t *testing.T) {
	client, _ := startServer(t, &fakeFeed{}, &fakePosts{})

	resp, err := client.GetTimeline(context.Background(), &FeedPageRequest{UserID: "u1"})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	item := resp.Items[0]
	assert.Equal(t, "e2", item.EntryID)
	assert.True(t, ts.Equal(item.CreatedAt))
	assert.Equal(t, "hello", item.Post.Content)
	assert.Equal(t, Author{ID: "a1", Username: "neo", FullName: "Thomas Anderson"}, item.Author)
	assert.False(t, resp.HasNextPage)
}

func TestErrorsAreMappedToStatusCodes(t *testing.T) {
	feed := &fakeFeed{}
	client, _ := startServer(t, feed, &fakePosts{})
	ctx := context.Background()

	_, err := client.ListFeed(ctx, &FeedPageRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.GetPost(ctx, &GetPostRequest{PostID: "ghost"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.CreatePost(ctx, &CreatePostRequest{AuthorID: "a1", Content: strings.Repeat("x", 300)})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	feed.err = assert.AnError
	_, err = client.GetTimeline(ctx, &FeedPageRequest{UserID: "u1"})
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.NotContains(t, status.Convert(err).Message(), assert.AnError.Error())
}

func TestCreateAndGetPost(t *testing.T) {
	client, _ := startServer(t, &fakeFeed{}, &fakePosts{})
	ctx := context.Background()

	created, err := client.CreatePost(ctx, &CreatePostRequest{AuthorID: "a1", Content: " hi "})
	require.NoError(t, err)
	assert.Equal(t, "hi", created.Post.Content)
	assert.NotEmpty(t, created.Post.ID)

	got, err := client.GetPost(ctx, &GetPostRequest{PostID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, Post{ID: "p1", AuthorID: "a1", Content: "hello", CreatedAt: ts}, got.Post)
}

func TestListPostsByAuthor(t *testing.T) {
	posts := &fakePosts{}
	client, _ := startServer(t, &fakeFeed{}, posts)
	after := ts

	resp, err := client.ListPostsByAuthor(context.Background(), &ListPostsByAuthorRequest{AuthorID: "a1", After: &after})
	require.NoError(t, err)

	require.Len(t, resp.Posts, 1)
	assert.Equal(t, "a1", resp.Posts[0].AuthorID)
	assert.Equal(t, 20, posts.lastSize)
	require.NotNil(t, posts.lastCursor.After)
}

func TestHealthCheckUsesProtoCodec(t *testing.T) {
	_, conn := startServer(t, &fakeFeed{}, &fakePosts{})

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)
}
