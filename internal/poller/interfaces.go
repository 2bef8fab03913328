package poller

import (
	"context"

	"github.com/xenolab/xenolab-relay/pkg/publishers"
)

// EventPublisher publishes readings downstream and reports how many sinks
// accepted the event.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers which readings were already relayed.
type Deduper interface {
	SeenReading(id string) (bool, error)
	MarkReading(id string) error
}
