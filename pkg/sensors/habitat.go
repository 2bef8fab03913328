package sensors

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/xenolab/xenolab-relay/internal/domain"
)

// habitatFetcher adapts one habitat endpoint to Fetcher.
type habitatFetcher struct {
	typ   string
	fetch func(ctx context.Context, s Sensor) ([]domain.Reading, error)
}

func (f *habitatFetcher) ID() string { return f.typ }

func (f *habitatFetcher) Fetch(ctx context.Context, s Sensor) ([]domain.Reading, error) {
	if !strings.EqualFold(s.Type, f.typ) {
		return nil, fmt.Errorf("%s fetcher received incompatible sensor type %q", f.typ, s.Type)
	}
	return f.fetch(ctx, s)
}

// NewWindFetcher polls GET /wind/.
func NewWindFetcher(h Habitat) Fetcher {
	return &habitatFetcher{typ: TypeWind, fetch: func(ctx context.Context, s Sensor) ([]domain.Reading, error) {
		rows, err := h.Wind(ctx, s.NumRecords)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Reading, 0, len(rows))
		for _, r := range rows {
			out = append(out, newReading(s, TypeWind, r.Timestamp.Time, map[string]any{
				"status": r.Status,
			}))
		}
		return out, nil
	}}
}

// NewSunlightFetcher polls GET /sunlight/.
func NewSunlightFetcher(h Habitat) Fetcher {
	return &habitatFetcher{typ: TypeSunlight, fetch: func(ctx context.Context, s Sensor) ([]domain.Reading, error) {
		rows, err := h.Sunlight(ctx, s.NumRecords)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Reading, 0, len(rows))
		for _, r := range rows {
			out = append(out, newReading(s, TypeSunlight, r.Timestamp.Time, map[string]any{
				"r":          r.R,
				"g":          r.G,
				"b":          r.B,
				"brightness": r.Brightness,
				"status":     r.Status,
			}))
		}
		return out, nil
	}}
}

// NewTempHumidityFetcher polls GET /temphumidity/.
func NewTempHumidityFetcher(h Habitat) Fetcher {
	return &habitatFetcher{typ: TypeTempHumidity, fetch: func(ctx context.Context, s Sensor) ([]domain.Reading, error) {
		rows, err := h.TempHumidity(ctx, s.NumRecords)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Reading, 0, len(rows))
		for _, r := range rows {
			out = append(out, newReading(s, TypeTempHumidity, r.Timestamp.Time, map[string]any{
				"temperature": r.Temperature,
				"humidity":    r.Humidity,
			}))
		}
		return out, nil
	}}
}

// NewCameraStatusFetcher snapshots GET /camera/status/<id>/. The reading ID
// covers the status fields, so an unchanged camera yields the same ID.
func NewCameraStatusFetcher(h Habitat) Fetcher {
	return &habitatFetcher{typ: TypeCameraStatus, fetch: func(ctx context.Context, s Sensor) ([]domain.Reading, error) {
		st, err := h.CameraStatus(ctx, s.CameraID)
		if err != nil {
			return nil, err
		}
		values := map[string]any{
			"camera_id":   st.CameraID,
			"status":      string(st.Status),
			"name":        st.Name,
			"resolution":  st.Resolution,
			"frame_rate":  st.FrameRate,
			"last_active": st.LastActive,
		}
		r := domain.Reading{
			ID:        readingID(s.ID, TypeCameraStatus, string(st.Status), st.LastActive, st.Resolution),
			SensorID:  s.ID,
			Kind:      TypeCameraStatus,
			Timestamp: time.Now().UTC(),
			Values:    values,
		}
		return []domain.Reading{r}, nil
	}}
}

func newReading(s Sensor, kind string, ts time.Time, values map[string]any) domain.Reading {
	ts = ts.UTC()
	return domain.Reading{
		ID:        readingID(s.ID, kind, ts.Format(time.RFC3339Nano)),
		SensorID:  s.ID,
		Kind:      kind,
		Timestamp: ts,
		Values:    values,
	}
}

func readingID(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
