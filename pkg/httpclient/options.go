package httpclient

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Option configures an APIClient at construction time.
type Option func(*clientOptions)

type clientOptions struct {
	timeout time.Duration
	headers map[string]string
	log     Logger
	resty   *resty.Client
}

// WithTimeout bounds every request issued by the client. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithHeaders sets headers sent with every request. Per-request headers win on conflict.
func WithHeaders(headers map[string]string) Option {
	return func(o *clientOptions) {
		o.headers = mergeHeaders(o.headers, headers)
	}
}

// WithLogger routes request failures to log.
func WithLogger(log Logger) Option {
	return func(o *clientOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithRestyClient uses a preconfigured resty client instead of building one.
// WithTimeout is ignored when this is set.
func WithRestyClient(c *resty.Client) Option {
	return func(o *clientOptions) { o.resty = c }
}

// RequestOptions carries the caller-supplied parts of a single request.
type RequestOptions struct {
	// Method defaults to GET when empty.
	Method  string
	Headers map[string]string
	Query   map[string]string
	// Body is passed to resty as-is; structs and maps are sent as JSON.
	// resty drops the body on GET requests.
	Body any
	// Form, when set, is sent url-encoded and takes precedence over Body.
	Form map[string]string
}

func (o RequestOptions) method() string {
	m := strings.ToUpper(strings.TrimSpace(o.Method))
	if m == "" {
		return http.MethodGet
	}
	return m
}

// mergeHeaders returns base overlaid with override, keys canonicalized so that
// "content-type" and "Content-Type" collapse into one entry.
func mergeHeaders(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		if key := strings.TrimSpace(k); key != "" {
			out[http.CanonicalHeaderKey(key)] = v
		}
	}
	for k, v := range override {
		if key := strings.TrimSpace(k); key != "" {
			out[http.CanonicalHeaderKey(key)] = v
		}
	}
	return out
}
