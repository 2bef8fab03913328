package publishers

import (
	"time"

	"github.com/xenolab/xenolab-relay/internal/domain"
)

// Event represents the payload published downstream.
type Event struct {
	SensorID    string         `json:"sensor_id"`
	SensorName  string         `json:"sensor_name"`
	Reading     domain.Reading `json:"reading"`
	CollectedAt time.Time      `json:"collected_at"`
}

// NewEvent constructs an Event for the given sensor + reading.
func NewEvent(sensorID, sensorName string, reading domain.Reading) Event {
	return Event{
		SensorID:    sensorID,
		SensorName:  sensorName,
		Reading:     reading,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are attached as message metadata by queue-based publishers.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"sensor_id": e.SensorID,
		"kind":      e.Reading.Kind,
	}
}
