package app

import (
	"context"
	"fmt"
	"time"

	"github.com/xenolab/xenolab-relay/internal/config"
	"github.com/xenolab/xenolab-relay/internal/logger"
	"github.com/xenolab/xenolab-relay/internal/poller"
	"github.com/xenolab/xenolab-relay/internal/storage"
	"github.com/xenolab/xenolab-relay/pkg/httpclient"
	"github.com/xenolab/xenolab-relay/pkg/publishers"
	"github.com/xenolab/xenolab-relay/pkg/sensors"
	"github.com/xenolab/xenolab-relay/pkg/xenolab"
)

// Relay is the habitat relay runtime. It polls the configured sensors on an
// interval, drops readings it has already relayed and hands the rest to the
// publisher fanout.
type Relay struct {
	cfg          *config.Config
	sensorReg    *sensors.Registry
	fanout       *publishers.Fanout
	pollService  *poller.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewRelay builds a relay runtime from config files.
func NewRelay(ctx context.Context, cfg *config.Config, log logger.Logger) (*Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sensorReg, err := sensors.LoadRegistry(cfg.SensorsFile)
	if err != nil {
		return nil, fmt.Errorf("load sensors registry: %w", err)
	}
	sensorList := sensorReg.All()
	sensorIDs := make([]string, 0, len(sensorList))
	for _, s := range sensorList {
		sensorIDs = append(sensorIDs, s.ID)
	}
	log.InfoObj("sensors registry loaded", "sensors_meta", map[string]any{
		"count": len(sensorIDs),
		"ids":   sensorIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	api := httpclient.New(cfg.APIBaseURL,
		httpclient.WithTimeout(cfg.APITimeout),
		httpclient.WithLogger(log),
	)
	habitat := xenolab.NewService(api)
	log.InfoObj("habitat api client ready", "api_meta", map[string]any{
		"base_url":        api.BaseURL(),
		"timeout_seconds": int(cfg.APITimeout.Seconds()),
	})

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	storeOpts := storage.Options{
		ReadingTTL:      cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		if cerr := fanout.Close(); cerr != nil {
			log.ErrorObj("publisher close failed", "error", cerr)
		}
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"reading_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	pollService := poller.NewService(sensors.DefaultFetcherRegistry(habitat), fanout, log, store)

	return &Relay{
		cfg:          cfg,
		sensorReg:    sensorReg,
		fanout:       fanout,
		pollService:  pollService,
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run starts the poll loop until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	if r == nil || r.pollService == nil {
		return fmt.Errorf("relay is not initialized")
	}
	defer r.Close()

	list := r.sensorReg.All()
	if len(list) == 0 {
		r.log.WarnObj("no sensors configured; relay idle", "sensors_file", r.cfg.SensorsFile)
		<-ctx.Done()
		return ctx.Err()
	}

	r.log.InfoObj("relay loop starting", "relay_state", map[string]any{
		"sensors_count":    len(list),
		"publishers_count": r.fanout.Size(),
		"poll_interval":    r.pollInterval.String(),
	})

	if err := r.RunOnce(ctx); err != nil {
		r.log.ErrorObj("initial poll failed", "error", err)
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("relay loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.log.ErrorObj("scheduled poll failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single poll pass across all sensors.
func (r *Relay) RunOnce(ctx context.Context) error {
	list := r.sensorReg.All()
	start := time.Now()
	r.log.InfoObj("poll started", "poll_meta", map[string]any{
		"sensors_count": len(list),
		"started_at":    start.UTC(),
	})
	if err := r.pollService.Run(ctx, list); err != nil {
		return err
	}
	r.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"sensors_count": len(list),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return nil
}

// Close releases the store and publishers. Run calls it on exit; callers
// that only use RunOnce call it themselves.
func (r *Relay) Close() {
	if r == nil {
		return
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.log.ErrorObj("storage close failed", "error", err)
		}
		r.store = nil
	}
	if r.fanout != nil {
		if err := r.fanout.Close(); err != nil {
			r.log.ErrorObj("publisher close failed", "error", err)
		}
		r.fanout = nil
	}
}
