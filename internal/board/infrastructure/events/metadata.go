package events

import (
	"context"

	sharedDomain "github.com/felixgeelhaar/choreboard/internal/shared/domain"
	"github.com/felixgeelhaar/choreboard/pkg/observability"
)

func sharedMetadata(ctx context.Context, instanceID string) sharedDomain.EventMetadata {
	return sharedDomain.EventMetadata{
		CorrelationID: observability.CorrelationIDFromContext(ctx),
		Source:        instanceID,
	}
}
