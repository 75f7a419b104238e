package githost

import (
	"context"
	"net/http"
	"time"
)

// Request describes one GET against the source host.
type Request struct {
	URL     string
	Headers http.Header
}

// Response is what a Fetcher returns for any HTTP status. Only transport
// failures are reported as errors.
type Response struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Fetcher performs a single HTTP GET.
type Fetcher interface {
	Fetch(ctx context.Context, request Request) (Response, error)
}
