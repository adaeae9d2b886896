package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer est implémenté par *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqScheduler : at-least-once, retry borné, time limit par tâche.
type AsynqScheduler struct {
	client    Enqueuer
	timeLimit time.Duration
	maxRetry  int
	log       *slog.Logger
}

func NewAsynqScheduler(client Enqueuer, timeLimit time.Duration, maxRetry int, log *slog.Logger) *AsynqScheduler {
	return &AsynqScheduler{
		client:    client,
		timeLimit: timeLimit,
		maxRetry:  maxRetry,
		log:       log,
	}
}

func (s *AsynqScheduler) EnqueueFanout(ctx context.Context, postID string) error {
	task, err := NewFanoutTask(ctx, postID)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, task, QueueDefault, "post_id", postID)
}

func (s *AsynqScheduler) EnqueueFanoutBatch(ctx context.Context, postID string, followerIDs []string) error {
	task, err := NewFanoutBatchTask(ctx, postID, followerIDs)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, task, QueueNewsfeeds, "post_id", postID, "followers", len(followerIDs))
}

func (s *AsynqScheduler) enqueue(ctx context.Context, task *asynq.Task, queue string, attrs ...any) error {
	info, err := s.client.EnqueueContext(ctx, task,
		asynq.Queue(queue),
		asynq.Timeout(s.timeLimit),
		asynq.MaxRetry(s.maxRetry),
	)
	if err != nil {
		return fmt.Errorf("tasks: enqueue %s: %w", task.Type(), err)
	}

	s.log.DebugContext(ctx, "Task enqueued", append(attrs, "type", task.Type(), "task_id", info.ID, "queue", info.Queue)...)
	return nil
}
