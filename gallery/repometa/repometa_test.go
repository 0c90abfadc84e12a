package repometa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `{
  "full_name": "acme/skyline",
  "description": "Orbit tooling",
  "stargazers_count": 1234,
  "forks_count": 56,
  "open_issues_count": 7,
  "watchers_count": 1234,
  "subscribers_count": 42,
  "language": "Go",
  "updated_at": "2024-03-05T10:00:00Z",
  "license": {"spdx_id": "MIT", "name": "MIT License"},
  "default_branch": "trunk",
  "html_url": "https://github.com/acme/skyline"
}`

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"acme/skyline":                          "acme/skyline",
		"  acme/skyline/ ":                      "acme/skyline",
		"github.com/acme/skyline":               "acme/skyline",
		"https://github.com/acme/skyline":       "acme/skyline",
		"https://www.GitHub.com/acme/skyline/":  "acme/skyline",
		"https://github.com/acme/skyline.git":   "acme/skyline",
		"http://github.com/acme/skyline.GIT///": "acme/skyline",
	}
	for in, want := range tests {
		got, err := Normalize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "   ", "https://github.com/", "/"} {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, ErrEmptyRepo, in)
	}
}

func TestParse(t *testing.T) {
	m := Parse("acme/skyline", []byte(payload))
	assert.Equal(t, "acme/skyline", m.FullName)
	assert.Equal(t, int64(1234), m.Stars)
	assert.Equal(t, int64(56), m.Forks)
	assert.Equal(t, int64(7), m.OpenIssues)
	assert.Equal(t, int64(42), m.Watchers)
	assert.Equal(t, "MIT", m.License)
	assert.Equal(t, "trunk", m.DefaultBranch)
	assert.Equal(t, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), m.UpdatedAt)
}

func TestParseFallbacks(t *testing.T) {
	m := Parse("acme/bare", []byte(`{"watchers_count": 9, "license": {"spdx_id": "NOASSERTION", "name": "Custom"}}`))
	assert.Equal(t, "acme/bare", m.FullName)
	assert.Equal(t, int64(9), m.Watchers)
	assert.Equal(t, "Custom", m.License)
	assert.Equal(t, "main", m.DefaultBranch)
	assert.Equal(t, "https://github.com/acme/bare", m.URL)
	assert.True(t, m.UpdatedAt.IsZero())
}

func TestClientFetchCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/repos/acme/skyline", r.URL.Path)
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", srv.Client())
	m, err := c.Fetch(context.Background(), "https://github.com/acme/skyline.git")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), m.Stars)

	_, err = c.Fetch(context.Background(), "acme/skyline")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	cached, ok := c.Cached("acme/skyline")
	assert.True(t, ok)
	assert.Equal(t, m, cached)

	c.Forget("acme/skyline")
	_, ok = c.Cached("acme/skyline")
	assert.False(t, ok)
	_, err = c.Fetch(context.Background(), "acme/skyline")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientFetchDeduplicates(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Fetch(context.Background(), "acme/skyline")
			assert.NoError(t, err)
		}()
	}
	assert.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), hits.Load())
}

func TestClientFetchErrors(t *testing.T) {
	status := map[string]int{
		"/repos/acme/missing": http.StatusNotFound,
		"/repos/acme/limited": http.StatusForbidden,
		"/repos/acme/busy":    http.StatusTooManyRequests,
		"/repos/acme/broken":  http.StatusInternalServerError,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code, ok := status[r.URL.Path]; ok {
			w.WriteHeader(code)
			return
		}
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	ctx := context.Background()

	_, err := c.Fetch(ctx, "acme/missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Fetch(ctx, "acme/limited")
	assert.ErrorIs(t, err, ErrRateLimited)
	_, err = c.Fetch(ctx, "acme/busy")
	assert.ErrorIs(t, err, ErrRateLimited)
	_, err = c.Fetch(ctx, "acme/broken")
	assert.ErrorContains(t, err, "unexpected status 500")
	_, err = c.Fetch(ctx, "acme/garbage")
	assert.ErrorContains(t, err, "invalid JSON")
	_, err = c.Fetch(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyRepo)

	_, ok := c.Cached("acme/missing")
	assert.False(t, ok, "failures are not cached")
}

func TestClientFetchCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, srv.Client())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx, "acme/skyline")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "1K", FormatCount(1000))
	assert.Equal(t, "1.2K", FormatCount(1234))
	assert.Equal(t, "12.3K", FormatCount(12345))
	assert.Equal(t, "2.5M", FormatCount(2_500_000))
}

func TestFormatUpdated(t *testing.T) {
	assert.Equal(t, "Mar 5, 2024", FormatUpdated(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)))
	assert.Empty(t, FormatUpdated(time.Time{}))
}
