package fragment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxFileBytes caps a single fetched data file.
const maxFileBytes = 16 << 20

// HTTPSource fetches files from a published documentation site. Server
// errors and throttling are retried with backoff.
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
	retryBase  time.Duration
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryBase: time.Second,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	u := s.baseURL + "/" + (&url.URL{Path: clean}).EscapedPath()
	return withRetry(ctx, s.retryBase, func() ([]byte, error) {
		return s.get(ctx, u, clean)
	})
}

func (s *HTTPSource) get(ctx context.Context, u, clean string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: fmt.Errorf("fetch %s: %w", clean, err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", clean, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("fetch %s: status %d: %s", clean, resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &RetryableError{StatusCode: resp.StatusCode, Err: err}
		}
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", clean, err)
	}
	if len(data) > maxFileBytes {
		return nil, fmt.Errorf("fetch %s: file exceeds %d bytes", clean, maxFileBytes)
	}
	return data, nil
}

// Close releases idle connections.
func (s *HTTPSource) Close() {
	s.httpClient.CloseIdleConnections()
}
