package sensors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Package sensors holds the polled sensor definitions (YAML/JSON) and the
// fetchers that turn habitat responses into readings.

// Supported sensor types.
const (
	TypeWind         = "wind"
	TypeSunlight     = "sunlight"
	TypeTempHumidity = "temphumidity"
	TypeCameraStatus = "camera_status"
)

var knownTypes = map[string]bool{
	TypeWind:         true,
	TypeSunlight:     true,
	TypeTempHumidity: true,
	TypeCameraStatus: true,
}

const defaultRequestDelayMs = 250

// Sensor is one entry of the sensors file.
type Sensor struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Type           string `json:"type" yaml:"type"`
	NumRecords     int    `json:"num_records" yaml:"num_records"`
	CameraID       int    `json:"camera_id" yaml:"camera_id"`
	RequestDelayMs int    `json:"request_delay_ms" yaml:"request_delay_ms"`
}

type sensorsFile struct {
	Sensors []Sensor `json:"sensors" yaml:"sensors"`
}

// Registry is the validated set of sensors loaded from a file.
type Registry struct {
	mu      sync.RWMutex
	sensors []Sensor
	idx     map[string]Sensor
}

// LoadRegistry loads the sensor registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sensors file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sensors file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sensors file: %w", err)
	}

	parsed, err := parseSensors(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(parsed.Sensors)
}

// NewRegistry validates sensors and indexes them by id.
func NewRegistry(list []Sensor) (*Registry, error) {
	if len(list) == 0 {
		return nil, errors.New("sensors file contains no sensors entries")
	}

	reg := &Registry{
		sensors: make([]Sensor, len(list)),
		idx:     make(map[string]Sensor, len(list)),
	}
	for i := range list {
		s := sanitizeSensor(list[i])
		if err := validateSensor(s); err != nil {
			return nil, fmt.Errorf("sensors[%d]: %w", i, err)
		}
		if _, exists := reg.idx[s.ID]; exists {
			return nil, fmt.Errorf("duplicate sensor id %q", s.ID)
		}
		reg.sensors[i] = s
		reg.idx[s.ID] = s
	}
	return reg, nil
}

type unmarshalFn func([]byte, any) error

func parseSensors(data []byte, ext string) (sensorsFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		ext string
		fn  unmarshalFn
	}{
		{ext: ".yaml", fn: yaml.Unmarshal},
		{ext: ".yml", fn: yaml.Unmarshal},
		{ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var out sensorsFile
		if err := d.fn(data, &out); err == nil {
			return out, nil
		}
	}

	return sensorsFile{}, errors.New("sensors file format not recognized (expected YAML or JSON)")
}

func sanitizeSensor(s Sensor) Sensor {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.Type = strings.ToLower(strings.TrimSpace(s.Type))
	if s.Name == "" {
		s.Name = s.ID
	}
	if s.NumRecords < 0 {
		s.NumRecords = 0
	}
	return s
}

func validateSensor(s Sensor) error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if s.Type == "" {
		return fmt.Errorf("type is required for sensor %q", s.ID)
	}
	if !knownTypes[s.Type] {
		return fmt.Errorf("unsupported type %q for sensor %q", s.Type, s.ID)
	}
	return nil
}

// ByID returns the sensor with the given id.
func (r *Registry) ByID(id string) (Sensor, bool) {
	if r == nil {
		return Sensor{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.idx[strings.TrimSpace(id)]
	return s, ok
}

// All returns a copy of the configured sensors in file order.
func (r *Registry) All() []Sensor {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Sensor, len(r.sensors))
	copy(out, r.sensors)
	return out
}

// RequestDelay returns the pause taken before polling this sensor when it
// is not the first of a pass.
// Zero in the file means the default; a negative value disables the pause.
func (s Sensor) RequestDelay() time.Duration {
	switch {
	case s.RequestDelayMs < 0:
		return 0
	case s.RequestDelayMs == 0:
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(s.RequestDelayMs) * time.Millisecond
}
