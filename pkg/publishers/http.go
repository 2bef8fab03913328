package publishers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/xenolab/xenolab-relay/pkg/httpclient"
)

type httpPublisher struct {
	id     string
	method string
	typ    string
	client *httpclient.APIClient
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	method := cfg.HTTP.Method
	if method == "" {
		method = http.MethodPost
	}

	client := httpclient.New(cfg.HTTP.URL,
		httpclient.WithTimeout(time.Duration(cfg.HTTP.TimeoutSeconds)*time.Second),
		httpclient.WithHeaders(cfg.HTTP.Headers),
		httpclient.WithLogger(ensureLogger(log)),
	)

	return &httpPublisher{
		id:     cfg.ID,
		typ:    TypeHTTP,
		method: method,
		client: client,
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return h.typ }

// Publish delivers the event as a JSON body. Sinks may answer with any body;
// only the status is checked.
func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	err := h.client.Do(ctx, "", httpclient.RequestOptions{
		Method:  h.method,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    evt,
	}, nil)
	if err != nil {
		return fmt.Errorf("http publish: %w", err)
	}
	return nil
}
