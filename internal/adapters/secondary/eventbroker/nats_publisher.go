package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
)

const SubjectPostCreated = "post.created"

// MsgPublisher est implémenté par *nats.Conn.
type MsgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

type NatsPublisher struct {
	nc  MsgPublisher
	log *slog.Logger
}

func NewNatsPublisher(nc MsgPublisher, log *slog.Logger) *NatsPublisher {
	return &NatsPublisher{nc: nc, log: log}
}

// PostCreatedEvent est le contrat implicite avec les consumers (notification, search...)
type PostCreatedEvent struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *NatsPublisher) PublishPostCreated(ctx context.Context, post *domain.Post) error {
	data, err := json.Marshal(PostCreatedEvent{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Content:   post.Content,
		Type:      "post",
		CreatedAt: post.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}

	msg := &nats.Msg{
		Subject: SubjectPostCreated,
		Data:    data,
		Header:  nats.Header{},
	}
	// Le TraceID de la requête gRPC voyage dans les headers NATS
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", msg.Subject, err)
	}

	p.log.DebugContext(ctx, "📢 Event published", "subject", msg.Subject, "post_id", post.ID)
	return nil
}
