package adapter

import (
	"context"

	"conference-checkin/internal/domain/model"
)

// EventPublisher fans committed check-ins out to other systems.
type EventPublisher interface {
	PublishCheckin(ctx context.Context, ev model.CheckinEvent) error
}
