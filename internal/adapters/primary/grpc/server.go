package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/ports"
)

const maxPageSize = 100

var _ FeedServiceServer = (*Server)(nil)

type Server struct {
	feed            ports.FeedService
	posts           ports.PostService
	defaultPageSize int
	log             *slog.Logger
}

func NewServer(feed ports.FeedService, posts ports.PostService, defaultPageSize int, log *slog.Logger) *Server {
	return &Server{
		feed:            feed,
		posts:           posts,
		defaultPageSize: defaultPageSize,
		log:             log,
	}
}

func (s *Server) Register(registrar grpc.ServiceRegistrar) {
	registrar.RegisterService(&FeedServiceDesc, s)
}

// --- QUERIES (Read) ---

func (s *Server) ListFeed(ctx context.Context, req *FeedPageRequest) (*ListFeedResponse, error) {
	if req.UserID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}

	page, err := s.feed.ListFeed(ctx, s.feedRequest(req))
	if err != nil {
		return nil, s.toStatus(ctx, err, "failed to fetch feed")
	}

	entries := make([]FeedEntry, len(page.Items))
	for i, e := range page.Items {
		entries[i] = FeedEntry{ID: e.ID, PostID: e.PostID, CreatedAt: e.CreatedAt}
	}
	return &ListFeedResponse{Entries: entries, HasNextPage: page.HasNextPage}, nil
}

func (s *Server) GetTimeline(ctx context.Context, req *FeedPageRequest) (*GetTimelineResponse, error) {
	if req.UserID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}

	page, err := s.feed.GetTimeline(ctx, s.feedRequest(req))
	if err != nil {
		return nil, s.toStatus(ctx, err, "failed to fetch timeline")
	}

	items := make([]FeedItem, len(page.Items))
	for i, item := range page.Items {
		items[i] = FeedItem{
			EntryID:   item.Entry.ID,
			CreatedAt: item.Entry.CreatedAt,
			Post:      mapPost(item.Post),
			Author:    Author{ID: item.Author.ID, Username: item.Author.Username, FullName: item.Author.FullName},
		}
	}
	return &GetTimelineResponse{Items: items, HasNextPage: page.HasNextPage}, nil
}

func (s *Server) GetPost(ctx context.Context, req *GetPostRequest) (*GetPostResponse, error) {
	if req.PostID == "" {
		return nil, status.Error(codes.InvalidArgument, "post_id is required")
	}

	post, err := s.posts.GetPost(ctx, req.PostID)
	if err != nil {
		return nil, s.toStatus(ctx, err, "failed to fetch post")
	}
	return &GetPostResponse{Post: mapPost(*post)}, nil
}

func (s *Server) ListPostsByAuthor(ctx context.Context, req *ListPostsByAuthorRequest) (*ListPostsResponse, error) {
	if req.AuthorID == "" {
		return nil, status.Error(codes.InvalidArgument, "author_id is required")
	}

	cursor := domain.Cursor{After: req.After, Before: req.Before}
	page, err := s.posts.ListPostsByAuthor(ctx, req.AuthorID, cursor, s.pageSize(req.PageSize))
	if err != nil {
		return nil, s.toStatus(ctx, err, "failed to list posts")
	}

	posts := make([]Post, len(page.Items))
	for i, p := range page.Items {
		posts[i] = mapPost(p)
	}
	return &ListPostsResponse{Posts: posts, HasNextPage: page.HasNextPage}, nil
}

// --- COMMANDS (Write) ---

func (s *Server) CreatePost(ctx context.Context, req *CreatePostRequest) (*CreatePostResponse, error) {
	if req.AuthorID == "" || req.Content == "" {
		return nil, status.Error(codes.InvalidArgument, "author_id and content are required")
	}

	post, err := s.posts.CreatePost(ctx, req.AuthorID, req.Content)
	if err != nil {
		return nil, s.toStatus(ctx, err, "failed to create post")
	}
	return &CreatePostResponse{Post: mapPost(*post)}, nil
}

// --- Helpers ---

func (s *Server) feedRequest(req *FeedPageRequest) domain.FeedRequest {
	return domain.FeedRequest{
		UserID:   req.UserID,
		Cursor:   domain.Cursor{After: req.After, Before: req.Before},
		PageSize: s.pageSize(req.PageSize),
	}
}

// pageSize : 0 => défaut, sinon borné à [1, 100].
func (s *Server) pageSize(requested int32) int {
	switch {
	case requested == 0:
		return s.defaultPageSize
	case requested < 1:
		return 1
	case requested > maxPageSize:
		return maxPageSize
	}
	return int(requested)
}

// toStatus traduit les erreurs du domaine; le détail des erreurs internes reste dans les logs.
func (s *Server) toStatus(ctx context.Context, err error, msg string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidContent),
		errors.Is(err, domain.ErrInvalidCursor):
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, msg)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, msg)
	}

	s.log.ErrorContext(ctx, msg, "error", err)
	return status.Error(codes.Internal, msg)
}

func mapPost(p domain.Post) Post {
	return Post{ID: p.ID, AuthorID: p.AuthorID, Content: p.Content, CreatedAt: p.CreatedAt}
}
