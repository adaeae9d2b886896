// Package tasks est le côté client du substrat de tâches (asynq sur Redis).
// Les payloads sont partagés avec les handlers du worker.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	TypeFanout      = "feed:fanout"
	TypeFanoutBatch = "feed:fanout_batch"

	QueueDefault   = "default"
	QueueNewsfeeds = "newsfeeds"
)

var ErrInvalidPayload = errors.New("invalid task payload")

// FanoutPayload : tâche principale, un post.
type FanoutPayload struct {
	PostID string            `json:"post_id"`
	Trace  map[string]string `json:"trace,omitempty"`
}

// FanoutBatchPayload : au plus FANOUT_BATCH_SIZE abonnés.
type FanoutBatchPayload struct {
	PostID      string            `json:"post_id"`
	FollowerIDs []string          `json:"follower_ids"`
	Trace       map[string]string `json:"trace,omitempty"`
}

func NewFanoutTask(ctx context.Context, postID string) (*asynq.Task, error) {
	data, err := json.Marshal(FanoutPayload{PostID: postID, Trace: injectTrace(ctx)})
	if err != nil {
		return nil, fmt.Errorf("marshal fanout payload: %w", err)
	}
	return asynq.NewTask(TypeFanout, data), nil
}

func NewFanoutBatchTask(ctx context.Context, postID string, followerIDs []string) (*asynq.Task, error) {
	data, err := json.Marshal(FanoutBatchPayload{PostID: postID, FollowerIDs: followerIDs, Trace: injectTrace(ctx)})
	if err != nil {
		return nil, fmt.Errorf("marshal fanout batch payload: %w", err)
	}
	return asynq.NewTask(TypeFanoutBatch, data), nil
}

func ParseFanout(t *asynq.Task) (FanoutPayload, error) {
	var p FanoutPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.PostID == "" {
		return p, fmt.Errorf("%w: missing post_id", ErrInvalidPayload)
	}
	return p, nil
}

func ParseFanoutBatch(t *asynq.Task) (FanoutBatchPayload, error) {
	var p FanoutBatchPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.PostID == "" {
		return p, fmt.Errorf("%w: missing post_id", ErrInvalidPayload)
	}
	return p, nil
}

// ExtractTrace rattache le worker à la trace de la requête qui a planifié la tâche.
func ExtractTrace(ctx context.Context, carrier map[string]string) context.Context {
	if len(carrier) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(carrier))
}

func injectTrace(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if len(carrier) == 0 {
		return nil
	}
	return carrier
}
