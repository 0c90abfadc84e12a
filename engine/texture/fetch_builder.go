package texture

import "net/http"

// FetcherBuilderOption is a functional option for configuring the HTTP fetcher.
type FetcherBuilderOption func(*httpFetcher)

// WithHTTPClient sets the client used for remote sources.
//
// Parameters:
//   - client: the HTTP client (nil keeps http.DefaultClient)
//
// Returns:
//   - FetcherBuilderOption: option function to apply
func WithHTTPClient(client *http.Client) FetcherBuilderOption {
	return func(f *httpFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithBaseDir sets the directory relative local sources are resolved against.
//
// Parameters:
//   - dir: the base directory, usually the content file's directory
//
// Returns:
//   - FetcherBuilderOption: option function to apply
func WithBaseDir(dir string) FetcherBuilderOption {
	return func(f *httpFetcher) {
		f.baseDir = dir
	}
}

// WithMaxBytes caps the size of a single encoded image.
//
// Parameters:
//   - n: the maximum payload size in bytes; values <= 0 are ignored
//
// Returns:
//   - FetcherBuilderOption: option function to apply
func WithMaxBytes(n int64) FetcherBuilderOption {
	return func(f *httpFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}
