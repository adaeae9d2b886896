package tasks

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/adapters/secondary/tasks"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
)

type fakeFanout struct {
	mainErr  error
	batchErr error
	mains    []string
	batches  [][]string
}

func (f *fakeFanout) EnqueueFanout(context.Context, string) error { return nil }

func (f *fakeFanout) FanoutMain(_ context.Context, postID string) (domain.FanoutResult, error) {
	f.mains = append(f.mains, postID)
	return domain.FanoutResult{PostID: postID, Followers: 3, Batches: 2}, f.mainErr
}

func (f *fakeFanout) FanoutBatch(_ context.Context, _ string, followerIDs []string) (int, error) {
	f.batches = append(f.batches, followerIDs)
	return len(followerIDs), f.batchErr
}

func newMux(f *fakeFanout, logs *bytes.Buffer) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	NewHandler(f, slog.New(slog.NewTextHandler(logs, nil))).Register(mux)
	return mux
}

func TestRoutesTasksToFanoutService(t *testing.T) {
	f := &fakeFanout{}
	mux := newMux(f, &bytes.Buffer{})
	ctx := context.Background()

	main, err := tasks.NewFanoutTask(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(ctx, main))

	batch, err := tasks.NewFanoutBatchTask(ctx, "p1", []string{"f1", "f2"})
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(ctx, batch))

	assert.Equal(t, []string{"p1"}, f.mains)
	assert.Equal(t, [][]string{{"f1", "f2"}}, f.batches)
}

func TestMissingPostIsNotRetried(t *testing.T) {
	f := &fakeFanout{mainErr: domain.ErrPostNotFound}
	mux := newMux(f, &bytes.Buffer{})

	task, err := tasks.NewFanoutTask(context.Background(), "ghost")
	require.NoError(t, err)

	err = mux.ProcessTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestTransientFailureIsRetried(t *testing.T) {
	boom := errors.New("db timeout")
	f := &fakeFanout{batchErr: boom}
	mux := newMux(f, &bytes.Buffer{})

	task, err := tasks.NewFanoutBatchTask(context.Background(), "p1", []string{"f1"})
	require.NoError(t, err)

	err = mux.ProcessTask(context.Background(), task)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestMalformedPayloadIsNotRetried(t *testing.T) {
	f := &fakeFanout{}
	mux := newMux(f, &bytes.Buffer{})

	err := mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeFanoutBatch, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, f.batches)
}

func TestHandleErrorLogsPermanentFailure(t *testing.T) {
	var logs bytes.Buffer
	h := NewHandler(&fakeFanout{}, slog.New(slog.NewTextHandler(&logs, nil)))

	// Hors d'un worker, retry count et max retry valent 0: l'échec est définitif
	h.HandleError(context.Background(), asynq.NewTask(tasks.TypeFanout, nil), errors.New("boom"))
	assert.Contains(t, logs.String(), "failed permanently")
}
