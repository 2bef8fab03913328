package sensors

import (
	"context"

	"github.com/xenolab/xenolab-relay/internal/domain"
	"github.com/xenolab/xenolab-relay/pkg/xenolab"
)

// Fetcher retrieves readings for a sensor.
// Concrete implementations live in habitat.go.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, s Sensor) ([]domain.Reading, error)
}

// FetcherRegistry resolves the fetcher implementation for a given sensor.
type FetcherRegistry interface {
	FetcherFor(s Sensor) (Fetcher, error)
}

// Habitat is the subset of xenolab.Service the fetchers call.
type Habitat interface {
	Wind(ctx context.Context, n int) ([]xenolab.WindReading, error)
	Sunlight(ctx context.Context, n int) ([]xenolab.SunlightReading, error)
	TempHumidity(ctx context.Context, n int) ([]xenolab.TempHumidityReading, error)
	CameraStatus(ctx context.Context, id int) (xenolab.CameraStatus, error)
}

var _ Habitat = (*xenolab.Service)(nil)
