package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/adapters/secondary/tasks"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/ports"
)

var tracer = otel.Tracer("newsfeed-worker")

// Handler exécute les tâches de fan-out côté worker.
type Handler struct {
	fanout ports.FanoutService
	log    *slog.Logger
}

func NewHandler(fanout ports.FanoutService, log *slog.Logger) *Handler {
	return &Handler{fanout: fanout, log: log}
}

func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(tasks.TypeFanout, h.HandleFanout)
	mux.HandleFunc(tasks.TypeFanoutBatch, h.HandleFanoutBatch)
}

func (h *Handler) HandleFanout(ctx context.Context, t *asynq.Task) error {
	p, err := tasks.ParseFanout(t)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	ctx, span := tracer.Start(tasks.ExtractTrace(ctx, p.Trace), "fanout_main", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	result, err := h.fanout.FanoutMain(ctx, p.PostID)
	if err != nil {
		return h.fail(ctx, span, t, p.PostID, err)
	}

	h.log.InfoContext(ctx, "✅ Fan-out scheduled", "post_id", p.PostID, "followers", result.Followers, "batches", result.Batches)
	return nil
}

func (h *Handler) HandleFanoutBatch(ctx context.Context, t *asynq.Task) error {
	p, err := tasks.ParseFanoutBatch(t)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	ctx, span := tracer.Start(tasks.ExtractTrace(ctx, p.Trace), "fanout_batch", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	n, err := h.fanout.FanoutBatch(ctx, p.PostID, p.FollowerIDs)
	if err != nil {
		return h.fail(ctx, span, t, p.PostID, err)
	}

	h.log.DebugContext(ctx, "Fan-out batch done", "post_id", p.PostID, "entries", n)
	return nil
}

// fail : un post disparu ne reviendra pas, inutile de réessayer.
func (h *Handler) fail(ctx context.Context, span trace.Span, t *asynq.Task, postID string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if domain.IsNotFound(err) {
		h.log.WarnContext(ctx, "Dropping fan-out of a missing post", "type", t.Type(), "post_id", postID)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

// HandleError est branché sur asynq.Config.ErrorHandler: seul l'échec définitif est une erreur.
func (h *Handler) HandleError(ctx context.Context, t *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	if retried >= maxRetry || errors.Is(err, asynq.SkipRetry) {
		h.log.ErrorContext(ctx, "❌ Fan-out task failed permanently",
			"type", t.Type(),
			"retried", retried,
			"error", err,
		)
		return
	}

	h.log.WarnContext(ctx, "Fan-out task failed, will retry", "type", t.Type(), "retried", retried, "max_retry", maxRetry, "error", err)
}
