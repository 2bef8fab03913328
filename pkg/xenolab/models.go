package xenolab

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Sensor status values reported by the wind and sunlight endpoints.
const (
	StatusOff = 0
	StatusOn  = 1
)

// Camera control actions.
const (
	ActionStart = "start"
	ActionStop  = "stop"
)

// Timestamp accepts RFC 3339 timestamps as well as the zone-less ISO form the
// backend emits when timezone support is disabled (read as UTC).
type Timestamp struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t.Time = ts
		return nil
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			t.Time = ts
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

// WindReading is one row of GET /wind/.
type WindReading struct {
	Timestamp Timestamp `json:"timestamp"`
	Status    int       `json:"status"`
}

// SunlightReading is one row of GET /sunlight/.
type SunlightReading struct {
	Timestamp  Timestamp `json:"timestamp"`
	R          float64   `json:"r"`
	G          float64   `json:"g"`
	B          float64   `json:"b"`
	Brightness float64   `json:"brightness"`
	Status     int       `json:"status"`
}

// TempHumidityReading is one row of GET /temphumidity/.
// Temperature is in Celsius, Humidity in percent.
type TempHumidityReading struct {
	Timestamp   Timestamp `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
}

// StatusValue holds a status that the backend reports either as a number or
// as a string such as "not_found".
type StatusValue string

func (s *StatusValue) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = StatusValue(str)
		return nil
	}
	*s = StatusValue(strings.TrimSpace(string(b)))
	return nil
}

// CameraStatus is the body of GET /camera/status/<id>/.
type CameraStatus struct {
	CameraID   int         `json:"camera_id"`
	Status     StatusValue `json:"status"`
	Name       string      `json:"name,omitempty"`
	Resolution string      `json:"resolution,omitempty"`
	FrameRate  float64     `json:"frame_rate,omitempty"`
	LastActive string      `json:"last_active,omitempty"`
}

// CameraFrame is the body of GET /camera/frame/<id>/.
type CameraFrame struct {
	CameraID    int     `json:"camera_id"`
	Frame       string  `json:"frame"`
	Timestamp   float64 `json:"timestamp"`
	ContentType string  `json:"content_type"`
}

// JPEG decodes the base64 frame payload.
func (f CameraFrame) JPEG() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(f.Frame)
	if err != nil {
		return nil, fmt.Errorf("decode camera frame: %w", err)
	}
	return data, nil
}

// CapturedAt converts the epoch-seconds timestamp to a time.Time.
func (f CameraFrame) CapturedAt() time.Time {
	sec, frac := math.Modf(f.Timestamp)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// CameraControlResult is the body of a successful POST /camera/control/<id>/.
type CameraControlResult struct {
	Status string `json:"status"`
}
