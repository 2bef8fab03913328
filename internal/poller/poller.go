package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xenolab/xenolab-relay/internal/domain"
	"github.com/xenolab/xenolab-relay/internal/logger"
	"github.com/xenolab/xenolab-relay/pkg/publishers"
	"github.com/xenolab/xenolab-relay/pkg/sensors"
)

// Service coordinates polling across all configured sensors.
type Service struct {
	processor *SensorProcessor
	log       logger.Logger
}

// NewService wires a poller with the fetcher registry, the publisher fanout
// and an optional deduper.
func NewService(reg sensors.FetcherRegistry, pub EventPublisher, log logger.Logger, dedupe Deduper) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Service{
		processor: NewSensorProcessor(reg, pub, log, dedupe),
		log:       log,
	}
}

// Run executes one poll pass over the sensors. Per-sensor failures are
// joined into the returned error; the pass continues past them.
func (s *Service) Run(ctx context.Context, list []sensors.Sensor) error {
	if s == nil || s.processor == nil || s.processor.registry == nil {
		return fmt.Errorf("poller service is not initialized")
	}
	if len(list) == 0 {
		return fmt.Errorf("no sensors configured for polling")
	}

	if errs := s.runAll(ctx, list); len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (s *Service) runAll(ctx context.Context, list []sensors.Sensor) []error {
	errs := make([]error, 0, len(list))

	for i, sensor := range list {
		if ctx.Err() != nil {
			s.log.WarnObj("poll pass interrupted", "poll_meta", map[string]any{
				"remaining": len(list) - i,
				"reason":    ctx.Err().Error(),
			})
			break
		}
		if err := s.processor.Process(ctx, sensor, i); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("sensor poll failed", "sensor_error", map[string]any{
				"sensor_id": sensor.ID,
				"error":     err.Error(),
			})
		}
	}

	return errs
}

// SensorProcessor fetches, filters, publishes and marks readings for one sensor.
type SensorProcessor struct {
	registry sensors.FetcherRegistry
	pub      EventPublisher
	log      logger.Logger
	dedupe   Deduper
}

// NewSensorProcessor builds a processor. A nil publisher turns the processor
// into a dry run that only logs what it fetched.
func NewSensorProcessor(reg sensors.FetcherRegistry, pub EventPublisher, log logger.Logger, dedupe Deduper) *SensorProcessor {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &SensorProcessor{registry: reg, pub: pub, log: log, dedupe: dedupe}
}

// Process polls a single sensor. idx is the sensor's position in the pass;
// every sensor after the first waits for its request delay first.
func (p *SensorProcessor) Process(ctx context.Context, sensor sensors.Sensor, idx int) error {
	if idx > 0 {
		if err := sleep(ctx, sensor.RequestDelay()); err != nil {
			return err
		}
	}

	fetcher, err := p.registry.FetcherFor(sensor)
	if err != nil {
		return fmt.Errorf("resolve fetcher for sensor %s: %w", sensor.ID, err)
	}

	readings, err := fetcher.Fetch(ctx, sensor)
	if err != nil {
		return fmt.Errorf("fetch sensor %s: %w", sensor.ID, err)
	}

	fresh := p.filterNewReadings(sensor, readings)
	published, err := p.publish(ctx, sensor, fresh)

	p.log.InfoObj("sensor poll completed", "sensor_result", map[string]any{
		"sensor_id":          sensor.ID,
		"readings_fetched":   len(readings),
		"readings_new":       len(fresh),
		"readings_published": published,
	})
	return err
}

// filterNewReadings drops readings the deduper has already seen. A failed
// lookup keeps the reading so it is not lost.
func (p *SensorProcessor) filterNewReadings(sensor sensors.Sensor, readings []domain.Reading) []domain.Reading {
	if p.dedupe == nil || len(readings) == 0 {
		return readings
	}

	out := make([]domain.Reading, 0, len(readings))
	for _, r := range readings {
		seen, err := p.dedupe.SeenReading(r.ID)
		if err != nil {
			p.log.WarnObj("dedupe lookup failed", "dedupe_error", map[string]any{
				"sensor_id":  sensor.ID,
				"reading_id": r.ID,
				"error":      err.Error(),
			})
			out = append(out, r)
			continue
		}
		if !seen {
			out = append(out, r)
		}
	}
	return out
}

func (p *SensorProcessor) publish(ctx context.Context, sensor sensors.Sensor, readings []domain.Reading) (int, error) {
	if p.pub == nil {
		for _, r := range readings {
			p.log.DebugObj("reading collected", "reading", r)
		}
		return 0, nil
	}

	var errs []error
	published := 0
	for _, r := range readings {
		n, err := p.pub.Publish(ctx, publishers.NewEvent(sensor.ID, sensor.Name, r))
		if err != nil {
			errs = append(errs, fmt.Errorf("publish reading %s: %w", r.ID, err))
		}
		if n == 0 {
			continue
		}
		published++
		p.markSeen(sensor, r)
	}
	return published, errors.Join(errs...)
}

func (p *SensorProcessor) markSeen(sensor sensors.Sensor, r domain.Reading) {
	if p.dedupe == nil {
		return
	}
	if err := p.dedupe.MarkReading(r.ID); err != nil {
		p.log.WarnObj("dedupe mark failed", "dedupe_error", map[string]any{
			"sensor_id":  sensor.ID,
			"reading_id": r.ID,
			"error":      err.Error(),
		})
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
