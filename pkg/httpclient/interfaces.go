package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts raw HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// JSONClient is the JSON request surface implemented by APIClient.
type JSONClient interface {
	Get(ctx context.Context, endpoint string, opts RequestOptions) (any, error)
	Post(ctx context.Context, endpoint string, data any, opts RequestOptions) (any, error)
	Request(ctx context.Context, endpoint string, opts RequestOptions) (any, error)
	Do(ctx context.Context, endpoint string, opts RequestOptions, out any) error
	Fetch(ctx context.Context, endpoint string, headers map[string]string) ([]byte, error)
}

// Logger defines the logging surface the client relies on.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) ErrorObj(string, string, interface{}) {}
