package domain

import "time"

// Domain contains core models and interfaces.

// Reading is one normalized sensor sample collected from the habitat backend.
type Reading struct {
	ID        string         `json:"id"`
	SensorID  string         `json:"sensor_id"`
	Kind      string         `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	Values    map[string]any `json:"values"`
}
