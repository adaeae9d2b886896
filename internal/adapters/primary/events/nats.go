package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/ports"
)

const (
	SubjectPostDeleted    = "post.deleted"
	SubjectUserRegistered = "identity.user.registered"
	SubjectUserUpdated    = "identity.user.updated"

	// Un seul replica traite chaque message
	QueueGroup = "newsfeed-service"

	handleTimeout = 10 * time.Second
)

var tracer = otel.Tracer("newsfeed-service")

// Subscriber est implémenté par *nats.Conn.
type Subscriber interface {
	QueueSubscribe(subject, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
}

type EventHandler struct {
	sync ports.SyncService
	log  *slog.Logger
}

func NewEventHandler(sync ports.SyncService, log *slog.Logger) *EventHandler {
	return &EventHandler{sync: sync, log: log}
}

// Subscribe branche les handlers; les souscriptions sont fermées par nc.Drain() au shutdown.
func (h *EventHandler) Subscribe(nc Subscriber) error {
	routes := map[string]nats.MsgHandler{
		SubjectPostDeleted:    h.HandlePostDeleted,
		SubjectUserRegistered: h.HandleUserChanged,
		SubjectUserUpdated:    h.HandleUserChanged,
	}
	for subject, cb := range routes {
		if _, err := nc.QueueSubscribe(subject, QueueGroup, cb); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	return nil
}

// PostDeletedEvent : le post-service publie soit l'ID brut, soit ce JSON.
type PostDeletedEvent struct {
	ID       string `json:"id"`
	AuthorID string `json:"author_id"`
}

// UserChangedEvent couvre identity.user.registered et identity.user.updated.
type UserChangedEvent struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *EventHandler) HandlePostDeleted(msg *nats.Msg) {
	ctx, span, cancel := h.start(msg, "process_post_deleted")
	defer cancel()
	defer span.End()

	event, err := decodePostDeleted(msg.Data)
	if err != nil {
		span.RecordError(err)
		h.log.ErrorContext(ctx, "❌ Invalid event format", "subject", msg.Subject, "error", err)
		return
	}

	if err := h.sync.PostDeleted(ctx, event.ID, event.AuthorID); err != nil {
		span.RecordError(err)
		h.log.ErrorContext(ctx, "❌ Failed to apply post deletion", "post_id", event.ID, "error", err)
	}
}

func (h *EventHandler) HandleUserChanged(msg *nats.Msg) {
	ctx, span, cancel := h.start(msg, "process_user_changed")
	defer cancel()
	defer span.End()

	var event UserChangedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		span.RecordError(err)
		h.log.ErrorContext(ctx, "❌ Invalid event format", "subject", msg.Subject, "error", err)
		return
	}

	user := domain.User{
		ID:        event.UserID,
		Username:  event.Username,
		FullName:  event.FullName,
		UpdatedAt: event.UpdatedAt.UTC(),
	}
	if err := h.sync.UserChanged(ctx, user); err != nil {
		span.RecordError(err)
		h.log.ErrorContext(ctx, "❌ Failed to apply user change", "user_id", event.UserID, "error", err)
	}
}

// start extrait le contexte de trace posé par le publisher dans les headers NATS.
func (h *EventHandler) start(msg *nats.Msg, name string) (context.Context, trace.Span, context.CancelFunc) {
	ctx := context.Background()
	if msg.Header != nil {
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(msg.Header))
	}
	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindConsumer))

	h.log.DebugContext(ctx, "📨 Event received", "subject", msg.Subject)
	return ctx, span, cancel
}

func decodePostDeleted(data []byte) (PostDeletedEvent, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return PostDeletedEvent{}, domain.ErrInvalidArgument
	}
	if data[0] != '{' {
		return PostDeletedEvent{ID: string(data)}, nil
	}

	var event PostDeletedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return event, err
	}
	if event.ID == "" {
		return event, domain.ErrInvalidArgument
	}
	return event, nil
}
