package texture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptySource is returned when a fetch is attempted for an object without an image.
var ErrEmptySource = errors.New("texture: empty source")

// Fetcher retrieves the raw bytes of an image.
type Fetcher interface {
	// Fetch returns the encoded image bytes for source.
	// Implementations must honour ctx cancellation.
	//
	// Parameters:
	//   - ctx: cancelled when the owning scene is disposed
	//   - source: a URL or a path relative to the fetcher's base directory
	//
	// Returns:
	//   - []byte: the encoded image
	//   - error: error if the image could not be retrieved
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// httpFetcher reads http(s) sources over the network and everything else from disk.
type httpFetcher struct {
	client   *http.Client
	baseDir  string
	maxBytes int64
}

var _ Fetcher = &httpFetcher{}

// NewHTTPFetcher creates a Fetcher backed by net/http with a local file fallback.
// No request timeout is applied; callers cancel through the context.
//
// Parameters:
//   - options: functional options for the fetcher
//
// Returns:
//   - Fetcher: the new fetcher
func NewHTTPFetcher(options ...FetcherBuilderOption) Fetcher {
	f := &httpFetcher{
		client:   http.DefaultClient,
		maxBytes: 32 << 20,
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

func (f *httpFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrEmptySource
	}

	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return f.fetchRemote(ctx, source)
	}
	return f.fetchLocal(ctx, strings.TrimPrefix(source, "file://"))
}

func (f *httpFetcher) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("texture: build request %s: %w", url, err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("texture: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("texture: get %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", url, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("texture: %s exceeds %d bytes", url, f.maxBytes)
	}
	return data, nil
}

func (f *httpFetcher) fetchLocal(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) && f.baseDir != "" {
		path = filepath.Join(f.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("texture: %s exceeds %d bytes", path, f.maxBytes)
	}
	return data, nil
}
