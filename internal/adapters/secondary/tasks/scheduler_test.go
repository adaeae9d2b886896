package tasks

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type enqueued struct {
	task *asynq.Task
	opts map[asynq.OptionType]any
}

type fakeClient struct {
	calls []enqueued
	err   error
}

func (c *fakeClient) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	e := enqueued{task: task, opts: make(map[asynq.OptionType]any)}
	for _, o := range opts {
		e.opts[o.Type()] = o.Value()
	}
	c.calls = append(c.calls, e)
	return &asynq.TaskInfo{ID: "t1", Queue: e.opts[asynq.QueueOpt].(string)}, nil
}

func newScheduler(client Enqueuer) *AsynqScheduler {
	return NewAsynqScheduler(client, time.Hour, 5, slog.New(slog.DiscardHandler))
}

func TestEnqueueFanout(t *testing.T) {
	client := &fakeClient{}
	require.NoError(t, newScheduler(client).EnqueueFanout(context.Background(), "p1"))

	require.Len(t, client.calls, 1)
	call := client.calls[0]
	assert.Equal(t, TypeFanout, call.task.Type())
	assert.Equal(t, QueueDefault, call.opts[asynq.QueueOpt])
	assert.Equal(t, time.Hour, call.opts[asynq.TimeoutOpt])
	assert.Equal(t, 5, call.opts[asynq.MaxRetryOpt])

	p, err := ParseFanout(call.task)
	require.NoError(t, err)
	assert.Equal(t, "p1", p.PostID)
}

func TestEnqueueFanoutBatch(t *testing.T) {
	client := &fakeClient{}
	require.NoError(t, newScheduler(client).EnqueueFanoutBatch(context.Background(), "p1", []string{"f1", "f2"}))

	require.Len(t, client.calls, 1)
	call := client.calls[0]
	assert.Equal(t, TypeFanoutBatch, call.task.Type())
	assert.Equal(t, QueueNewsfeeds, call.opts[asynq.QueueOpt])

	p, err := ParseFanoutBatch(call.task)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2"}, p.FollowerIDs)
}

func TestEnqueueError(t *testing.T) {
	boom := errors.New("redis down")
	err := newScheduler(&fakeClient{err: boom}).EnqueueFanout(context.Background(), "p1")

	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, TypeFanout)
}

func TestParseRejectsInvalidPayloads(t *testing.T) {
	_, err := ParseFanout(asynq.NewTask(TypeFanout, []byte("{")))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = ParseFanout(asynq.NewTask(TypeFanout, []byte(`{}`)))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = ParseFanoutBatch(asynq.NewTask(TypeFanoutBatch, []byte(`{"follower_ids":["f1"]}`)))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestTraceTravelsInPayload(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	task, err := NewFanoutTask(ctx, "p1")
	require.NoError(t, err)
	p, err := ParseFanout(task)
	require.NoError(t, err)
	require.NotEmpty(t, p.Trace)

	restored := trace.SpanContextFromContext(ExtractTrace(context.Background(), p.Trace))
	assert.Equal(t, traceID, restored.TraceID())
	assert.True(t, restored.IsRemote())
}
