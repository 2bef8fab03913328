// Package xenolab exposes the habitat backend endpoints as typed calls.
package xenolab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/xenolab/xenolab-relay/pkg/httpclient"
)

// API is the client surface the service needs.
type API = httpclient.JSONClient

var (
	// ErrCameraNotFound is returned when the backend has no camera with the requested id.
	ErrCameraNotFound = errors.New("camera not found")
	// ErrInvalidAction is returned for camera actions other than start and stop.
	ErrInvalidAction = errors.New("invalid camera action")
)

const (
	EndpointWind         = "/wind/"
	EndpointSunlight     = "/sunlight/"
	EndpointTempHumidity = "/temphumidity/"
	EndpointLifeform     = "/lifeform/"
	EndpointMap          = "/map/"
	endpointCamera       = "/camera/"
)

// Service issues typed requests against the habitat backend.
type Service struct {
	api API
}

// NewService wraps api.
func NewService(api API) *Service {
	return &Service{api: api}
}

// Wind returns the latest n wind readings, newest first. n <= 0 uses the server default.
func (s *Service) Wind(ctx context.Context, n int) ([]WindReading, error) {
	var out []WindReading
	if err := s.api.Do(ctx, EndpointWind, recordsQuery(n), &out); err != nil {
		return nil, fmt.Errorf("fetch wind readings: %w", err)
	}
	return out, nil
}

// Sunlight returns the latest n sunlight readings, newest first.
func (s *Service) Sunlight(ctx context.Context, n int) ([]SunlightReading, error) {
	var out []SunlightReading
	if err := s.api.Do(ctx, EndpointSunlight, recordsQuery(n), &out); err != nil {
		return nil, fmt.Errorf("fetch sunlight readings: %w", err)
	}
	return out, nil
}

// TempHumidity returns the latest n temperature/humidity readings, newest first.
func (s *Service) TempHumidity(ctx context.Context, n int) ([]TempHumidityReading, error) {
	var out []TempHumidityReading
	if err := s.api.Do(ctx, EndpointTempHumidity, recordsQuery(n), &out); err != nil {
		return nil, fmt.Errorf("fetch temphumidity readings: %w", err)
	}
	return out, nil
}

// Lifeform returns the lifeform document as untyped JSON.
func (s *Service) Lifeform(ctx context.Context) (any, error) {
	out, err := s.api.Get(ctx, EndpointLifeform, httpclient.RequestOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch lifeform: %w", err)
	}
	return out, nil
}

// CameraStatus returns the status of camera id (id <= 0 selects the default camera).
func (s *Service) CameraStatus(ctx context.Context, id int) (CameraStatus, error) {
	var out CameraStatus
	if err := s.api.Do(ctx, cameraEndpoint("status", id), httpclient.RequestOptions{}, &out); err != nil {
		if httpclient.IsStatus(err, http.StatusNotFound) {
			return CameraStatus{}, fmt.Errorf("camera %d: %w", id, ErrCameraNotFound)
		}
		return CameraStatus{}, fmt.Errorf("fetch camera status: %w", err)
	}
	return out, nil
}

// CameraFrame captures a single frame from camera id.
func (s *Service) CameraFrame(ctx context.Context, id int) (CameraFrame, error) {
	var out CameraFrame
	if err := s.api.Do(ctx, cameraEndpoint("frame", id), httpclient.RequestOptions{}, &out); err != nil {
		return CameraFrame{}, wrapDetail("fetch camera frame", err)
	}
	return out, nil
}

// CameraControl starts or stops camera id. The backend reads the action from form data.
func (s *Service) CameraControl(ctx context.Context, id int, action string) (CameraControlResult, error) {
	action = strings.ToLower(strings.TrimSpace(action))
	if action != ActionStart && action != ActionStop {
		return CameraControlResult{}, fmt.Errorf("%w %q (expected %s or %s)", ErrInvalidAction, action, ActionStart, ActionStop)
	}

	var out CameraControlResult
	err := s.api.Do(ctx, cameraEndpoint("control", id), httpclient.RequestOptions{
		Method: http.MethodPost,
		Form:   map[string]string{"action": action},
	}, &out)
	if err != nil {
		return CameraControlResult{}, wrapDetail("camera "+action, err)
	}
	return out, nil
}

// Map downloads the habitat map as PNG bytes.
func (s *Service) Map(ctx context.Context) ([]byte, error) {
	data, err := s.api.Fetch(ctx, EndpointMap, map[string]string{"Accept": "image/png"})
	if err != nil {
		return nil, fmt.Errorf("fetch map: %w", err)
	}
	return data, nil
}

func recordsQuery(n int) httpclient.RequestOptions {
	if n <= 0 {
		return httpclient.RequestOptions{}
	}
	return httpclient.RequestOptions{
		Query: map[string]string{"num_records": strconv.Itoa(n)},
	}
}

func cameraEndpoint(action string, id int) string {
	if id <= 0 {
		return endpointCamera + action + "/"
	}
	return endpointCamera + action + "/" + strconv.Itoa(id) + "/"
}

// wrapDetail wraps err with prefix, adding the backend's "error" field when
// the failed response carried one.
func wrapDetail(prefix string, err error) error {
	if re, ok := httpclient.AsRequestError(err); ok {
		if body, ok := re.Body.(map[string]any); ok {
			if detail, ok := body["error"].(string); ok && detail != "" {
				return fmt.Errorf("%s: %s: %w", prefix, detail, err)
			}
		}
	}
	return fmt.Errorf("%s: %w", prefix, err)
}
