package sensors

import (
	"fmt"
	"strings"
	"sync"
)

// fetcherRegistry implements FetcherRegistry.
type fetcherRegistry struct {
	fetchersByID   map[string]Fetcher
	fetchersByType map[string]Fetcher
	mu             sync.RWMutex
}

// NewFetcherRegistry builds a registry with type-based fetchers and optional
// sensor-specific fetchers keyed by their ID().
func NewFetcherRegistry(typeFetchers map[string]Fetcher, fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		fetchersByID:   make(map[string]Fetcher),
		fetchersByType: make(map[string]Fetcher),
	}
	for _, f := range fetchers {
		if f != nil {
			reg.register(reg.fetchersByID, f.ID(), f)
		}
	}
	for typ, f := range typeFetchers {
		reg.register(reg.fetchersByType, typ, f)
	}
	return reg
}

func (r *fetcherRegistry) register(into map[string]Fetcher, key string, f Fetcher) {
	key = strings.ToLower(strings.TrimSpace(key))
	if f == nil || key == "" {
		return
	}
	r.mu.Lock()
	into[key] = f
	r.mu.Unlock()
}

// FetcherFor selects the fetcher for the sensor by its id, then its type.
func (r *fetcherRegistry) FetcherFor(s Sensor) (Fetcher, error) {
	if r == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}
	if strings.TrimSpace(s.ID) == "" {
		return nil, fmt.Errorf("sensor id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.fetchersByID[strings.ToLower(strings.TrimSpace(s.ID))]; ok {
		return f, nil
	}
	if typeKey := strings.ToLower(strings.TrimSpace(s.Type)); typeKey != "" {
		if f, ok := r.fetchersByType[typeKey]; ok {
			return f, nil
		}
	}

	return nil, fmt.Errorf("no fetcher registered for sensor %q (type %q)", s.ID, s.Type)
}

// DefaultFetcherRegistry wires one habitat fetcher per supported sensor type.
func DefaultFetcherRegistry(h Habitat) FetcherRegistry {
	return NewFetcherRegistry(map[string]Fetcher{
		TypeWind:         NewWindFetcher(h),
		TypeSunlight:     NewSunlightFetcher(h),
		TypeTempHumidity: NewTempHumidityFetcher(h),
		TypeCameraStatus: NewCameraStatusFetcher(h),
	})
}
