package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// AzureQueuePublisher enqueues event envelopes on an Azure Storage queue.
// The routing key travels inside the envelope.
type AzureQueuePublisher struct {
	queue  queueClient
	logger *slog.Logger
}

// NewAzureQueuePublisher connects to queueName, creating it when missing.
func NewAzureQueuePublisher(ctx context.Context, connStr, queueName string, logger *slog.Logger) (*AzureQueuePublisher, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    2,
				TryTimeout:    10 * time.Second,
				RetryDelay:    time.Second,
				MaxRetryDelay: 5 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, &opts)
	if err != nil {
		return nil, fmt.Errorf("create queue client: %w", err)
	}
	if _, err := q.Create(ctx, nil); err != nil {
		var respErr *azcore.ResponseError
		if !(errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists") {
			return nil, fmt.Errorf("create queue %s: %w", queueName, err)
		}
	}
	return newAzureQueuePublisher(q, logger), nil
}

func newAzureQueuePublisher(q queueClient, logger *slog.Logger) *AzureQueuePublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AzureQueuePublisher{queue: q, logger: logger}
}

// Publish enqueues payload.
func (p *AzureQueuePublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	if _, err := p.queue.EnqueueMessage(ctx, string(payload), nil); err != nil {
		return fmt.Errorf("enqueue %s: %w", routingKey, err)
	}
	p.logger.Debug("message enqueued",
		"routing_key", routingKey,
		"size", len(payload),
	)
	return nil
}

// Close is a no-op; queue clients hold no connection.
func (p *AzureQueuePublisher) Close() error {
	return nil
}
