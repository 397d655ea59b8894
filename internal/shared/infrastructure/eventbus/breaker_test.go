package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	err      error
	messages []string
	closed   bool
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, routingKey+" "+string(payload))
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func TestBreakerPublisher_TripsAfterConsecutiveFailures(t *testing.T) {
	next := &recordingPublisher{err: errors.New("connection refused")}
	cfg := DefaultBreakerConfig("rabbitmq")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour
	p := NewBreakerPublisher(next, cfg, nil)
	ctx := context.Background()

	assert.ErrorContains(t, p.Publish(ctx, "board.updated", []byte("1")), "connection refused")
	assert.ErrorContains(t, p.Publish(ctx, "board.updated", []byte("2")), "connection refused")
	assert.Equal(t, gobreaker.StateOpen, p.State())

	err := p.Publish(ctx, "board.updated", []byte("3"))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Len(t, next.messages, 2)
}

func TestBreakerPublisher_PassesThrough(t *testing.T) {
	next := &recordingPublisher{}
	p := NewBreakerPublisher(next, DefaultBreakerConfig("queue"), nil)

	require.NoError(t, p.Publish(context.Background(), "board.updated", []byte("{}")))
	assert.Equal(t, []string{"board.updated {}"}, next.messages)
	assert.Equal(t, gobreaker.StateClosed, p.State())
	assert.Equal(t, "queue", p.Name())

	require.NoError(t, p.Close())
	assert.True(t, next.closed)
}

type fakeQueue struct {
	contents []string
	err      error
}

func (f *fakeQueue) EnqueueMessage(_ context.Context, content string, _ *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error) {
	if f.err != nil {
		return azqueue.EnqueueMessagesResponse{}, f.err
	}
	f.contents = append(f.contents, content)
	return azqueue.EnqueueMessagesResponse{}, nil
}

func TestAzureQueuePublisher_Publish(t *testing.T) {
	q := &fakeQueue{}
	p := newAzureQueuePublisher(q, nil)

	require.NoError(t, p.Publish(context.Background(), "board.updated", []byte(`{"aggregate_id":"home"}`)))
	assert.Equal(t, []string{`{"aggregate_id":"home"}`}, q.contents)

	q.err = errors.New("403")
	assert.ErrorContains(t, p.Publish(context.Background(), "board.updated", nil), "enqueue board.updated")
	assert.NoError(t, p.Close())
}
