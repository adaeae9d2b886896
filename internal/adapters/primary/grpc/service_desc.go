package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "newsfeed.v1.FeedService"

// FeedServiceServer est ce que protoc-gen-go-grpc aurait généré.
type FeedServiceServer interface {
	ListFeed(context.Context, *FeedPageRequest) (*ListFeedResponse, error)
	GetTimeline(context.Context, *FeedPageRequest) (*GetTimelineResponse, error)
	CreatePost(context.Context, *CreatePostRequest) (*CreatePostResponse, error)
	GetPost(context.Context, *GetPostRequest) (*GetPostResponse, error)
	ListPostsByAuthor(context.Context, *ListPostsByAuthorRequest) (*ListPostsResponse, error)
}

var FeedServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FeedServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListFeed", Handler: unary("ListFeed", FeedServiceServer.ListFeed)},
		{MethodName: "GetTimeline", Handler: unary("GetTimeline", FeedServiceServer.GetTimeline)},
		{MethodName: "CreatePost", Handler: unary("CreatePost", FeedServiceServer.CreatePost)},
		{MethodName: "GetPost", Handler: unary("GetPost", FeedServiceServer.GetPost)},
		{MethodName: "ListPostsByAuthor", Handler: unary("ListPostsByAuthor", FeedServiceServer.ListPostsByAuthor)},
	},
	Streams: []grpc.StreamDesc{},
}

func fullMethod(method string) string { return "/" + ServiceName + "/" + method }

func unary[Req, Resp any](method string, call func(FeedServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FeedServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(FeedServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client est utilisé par l'API Gateway (et les tests).
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ListFeed(ctx context.Context, in *FeedPageRequest, opts ...grpc.CallOption) (*ListFeedResponse, error) {
	return invoke[ListFeedResponse](ctx, c.cc, "ListFeed", in, opts)
}

func (c *Client) GetTimeline(ctx context.Context, in *FeedPageRequest, opts ...grpc.CallOption) (*GetTimelineResponse, error) {
	return invoke[GetTimelineResponse](ctx, c.cc, "GetTimeline", in, opts)
}

func (c *Client) CreatePost(ctx context.Context, in *CreatePostRequest, opts ...grpc.CallOption) (*CreatePostResponse, error) {
	return invoke[CreatePostResponse](ctx, c.cc, "CreatePost", in, opts)
}

func (c *Client) GetPost(ctx context.Context, in *GetPostRequest, opts ...grpc.CallOption) (*GetPostResponse, error) {
	return invoke[GetPostResponse](ctx, c.cc, "GetPost", in, opts)
}

func (c *Client) ListPostsByAuthor(ctx context.Context, in *ListPostsByAuthorRequest, opts ...grpc.CallOption) (*ListPostsResponse, error) {
	return invoke[ListPostsResponse](ctx, c.cc, "ListPostsByAuthor", in, opts)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
