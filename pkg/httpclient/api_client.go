package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the origin used when New receives an empty base URL.
const DefaultBaseURL = "http://127.0.0.1:8000"

// APIClient issues JSON requests against a fixed base URL.
// It holds no mutable state and is safe for concurrent use.
type APIClient struct {
	baseURL string
	client  *resty.Client
	raw     Client
	headers map[string]string
	log     Logger
}

var _ JSONClient = (*APIClient)(nil)

// New builds an APIClient for baseURL. Endpoints are appended to it verbatim.
func New(baseURL string, opts ...Option) *APIClient {
	o := clientOptions{log: noopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	rc := o.resty
	if rc == nil {
		rc = newRestyBaseClient(o.timeout)
	}

	return &APIClient{
		baseURL: baseURL,
		client:  rc,
		raw:     &RestyClient{client: rc},
		headers: o.headers,
		log:     o.log,
	}
}

// BaseURL returns the origin all requests are issued against.
func (c *APIClient) BaseURL() string { return c.baseURL }

// URL returns the full request URL for endpoint.
func (c *APIClient) URL(endpoint string) string { return c.baseURL + endpoint }

// Get issues a GET to endpoint and returns the decoded JSON body.
func (c *APIClient) Get(ctx context.Context, endpoint string, opts RequestOptions) (any, error) {
	opts.Method = http.MethodGet
	return c.Request(ctx, endpoint, opts)
}

// Post sends data as JSON to endpoint and returns the decoded JSON body.
// Content-Type defaults to application/json; a caller header replaces it.
func (c *APIClient) Post(ctx context.Context, endpoint string, data any, opts RequestOptions) (any, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		reqErr := &RequestError{
			Method:  http.MethodPost,
			URL:     c.URL(endpoint),
			Message: fmt.Sprintf("encode request body: %v", err),
			Err:     err,
		}
		c.logFailure(reqErr)
		return nil, reqErr
	}

	opts.Method = http.MethodPost
	opts.Headers = mergeHeaders(map[string]string{"Content-Type": "application/json"}, opts.Headers)
	opts.Body = payload
	opts.Form = nil
	return c.Request(ctx, endpoint, opts)
}

// Request performs the request described by opts and returns the decoded JSON body.
func (c *APIClient) Request(ctx context.Context, endpoint string, opts RequestOptions) (any, error) {
	var out any
	if err := c.Do(ctx, endpoint, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Do performs the request and decodes a successful JSON body into out.
// Every failure is logged and returned as a *RequestError.
func (c *APIClient) Do(ctx context.Context, endpoint string, opts RequestOptions, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	method := opts.method()
	url := c.URL(endpoint)

	if err := c.do(ctx, method, url, opts, out); err != nil {
		c.logFailure(err)
		return err
	}
	c.log.DebugObj("api request completed", "request_meta", map[string]any{
		"method": method,
		"url":    url,
	})
	return nil
}

// Fetch GETs endpoint and returns the raw body, for non-JSON resources such
// as images. Default headers apply; a non-2xx status is a *RequestError.
func (c *APIClient) Fetch(ctx context.Context, endpoint string, headers map[string]string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	url := c.URL(endpoint)

	resp, err := c.raw.Get(ctx, url, mergeHeaders(c.headers, headers))
	if err != nil {
		reqErr := &RequestError{
			Method:  http.MethodGet,
			URL:     url,
			Message: err.Error(),
			Err:     err,
		}
		c.logFailure(reqErr)
		return nil, reqErr
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		reqErr := newStatusError(http.MethodGet, url, code, "", resp.Body())
		c.logFailure(reqErr)
		return nil, reqErr
	}
	c.log.DebugObj("api request completed", "request_meta", map[string]any{
		"method": http.MethodGet,
		"url":    url,
		"bytes":  len(resp.Body()),
	})
	return resp.Body(), nil
}

func (c *APIClient) do(ctx context.Context, method, url string, opts RequestOptions, out any) *RequestError {
	req := c.client.R().SetContext(ctx)
	if headers := mergeHeaders(c.headers, opts.Headers); len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if len(opts.Query) > 0 {
		req.SetQueryParams(opts.Query)
	}
	switch {
	case len(opts.Form) > 0:
		req.SetFormData(opts.Form)
	case opts.Body != nil:
		req.SetBody(opts.Body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return &RequestError{
			Method:  method,
			URL:     url,
			Message: err.Error(),
			Err:     err,
		}
	}

	if !resp.IsSuccess() {
		return newStatusError(method, url, resp.StatusCode(), resp.Status(), resp.Body())
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &RequestError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode(),
			Status:     statusText(resp.StatusCode(), resp.Status()),
			Message:    fmt.Sprintf("decode response: %v", err),
			Err:        err,
		}
	}
	return nil
}

func (c *APIClient) logFailure(err *RequestError) {
	c.log.ErrorObj("api request failed", "request_error", map[string]any{
		"method":      err.Method,
		"url":         err.URL,
		"status_code": err.StatusCode,
		"error":       err.Error(),
	})
}
