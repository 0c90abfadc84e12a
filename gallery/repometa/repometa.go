// Package repometa fetches repository metadata (stars, forks, licence, ...) for the project overlay.
package repometa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrEmptyRepo is returned when a reference does not name a repository.
	ErrEmptyRepo = errors.New("repometa: empty repository reference")
	// ErrNotFound is returned when the API reports the repository does not exist.
	ErrNotFound = errors.New("repometa: repository not found")
	// ErrRateLimited is returned when the API refuses the request for quota reasons.
	ErrRateLimited = errors.New("repometa: rate limited")
)

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

var hostPrefix = regexp.MustCompile(`(?i)^(https?://)?(www\.)?github\.com/`)

// Metadata is the subset of repository information the overlay shows.
type Metadata struct {
	FullName      string
	Description   string
	Stars         int64
	Forks         int64
	OpenIssues    int64
	Watchers      int64
	Language      string
	UpdatedAt     time.Time
	License       string
	DefaultBranch string
	URL           string
}

// Normalize turns "owner/name", "github.com/owner/name", a full URL or a .git clone URL into "owner/name".
//
// Parameters:
//   - ref: the reference from the content file
//
// Returns:
//   - string: the canonical slug
//   - error: ErrEmptyRepo if nothing remains after normalisation
func Normalize(ref string) (string, error) {
	slug := strings.TrimSpace(ref)
	slug = hostPrefix.ReplaceAllString(slug, "")
	slug = strings.TrimRight(slug, "/")
	if len(slug) > 4 && strings.EqualFold(slug[len(slug)-4:], ".git") {
		slug = slug[:len(slug)-4]
	}
	slug = strings.Trim(slug, "/")
	if slug == "" {
		return "", ErrEmptyRepo
	}
	return slug, nil
}

// Parse extracts Metadata from a repository API payload. Missing fields fall back to
// the slug, "main" and an https://github.com URL.
//
// Parameters:
//   - slug: the canonical repository slug
//   - payload: the JSON body
//
// Returns:
//   - Metadata: the extracted fields
func Parse(slug string, payload []byte) Metadata {
	r := gjson.ParseBytes(payload)
	m := Metadata{
		FullName:      r.Get("full_name").String(),
		Description:   r.Get("description").String(),
		Stars:         r.Get("stargazers_count").Int(),
		Forks:         r.Get("forks_count").Int(),
		OpenIssues:    r.Get("open_issues_count").Int(),
		Language:      r.Get("language").String(),
		DefaultBranch: r.Get("default_branch").String(),
		URL:           r.Get("html_url").String(),
	}
	if w := r.Get("subscribers_count"); w.Exists() {
		m.Watchers = w.Int()
	} else {
		m.Watchers = r.Get("watchers_count").Int()
	}
	if lic := r.Get("license.spdx_id").String(); lic != "" && lic != "NOASSERTION" {
		m.License = lic
	} else {
		m.License = r.Get("license.name").String()
	}
	if ts := r.Get("updated_at").String(); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			m.UpdatedAt = t
		}
	}

	if m.FullName == "" {
		m.FullName = slug
	}
	if m.DefaultBranch == "" {
		m.DefaultBranch = "main"
	}
	if m.URL == "" {
		m.URL = "https://github.com/" + slug
	}
	return m
}

// Client fetches and caches repository metadata. Concurrent fetches of the same repository share one request.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	cache map[string]Metadata
	group singleflight.Group
}

// NewClient creates a Client.
//
// Parameters:
//   - baseURL: the API root; DefaultBaseURL when empty
//   - httpClient: the HTTP client; a 10 second timeout client when nil
//
// Returns:
//   - *Client: the client
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		cache:   make(map[string]Metadata),
	}
}

// Cached returns metadata fetched earlier, without a request.
func (c *Client) Cached(ref string) (Metadata, bool) {
	slug, err := Normalize(ref)
	if err != nil {
		return Metadata{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.cache[slug]
	return m, ok
}

// Fetch returns the repository's metadata, from the cache when available.
// Failures are not cached; call again (after Forget for cached entries) to retry.
//
// Parameters:
//   - ctx: cancels the request
//   - ref: any reference Normalize accepts
//
// Returns:
//   - Metadata: the repository metadata
//   - error: ErrEmptyRepo, ErrNotFound, ErrRateLimited, the context error or a transport error
func (c *Client) Fetch(ctx context.Context, ref string) (Metadata, error) {
	slug, err := Normalize(ref)
	if err != nil {
		return Metadata{}, err
	}
	if m, ok := c.Cached(slug); ok {
		return m, nil
	}

	ch := c.group.DoChan(slug, func() (any, error) {
		// detached so one caller cancelling does not fail the others sharing the request
		return c.fetch(context.WithoutCancel(ctx), slug)
	})
	select {
	case <-ctx.Done():
		return Metadata{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Metadata{}, res.Err
		}
		return res.Val.(Metadata), nil
	}
}

func (c *Client) fetch(ctx context.Context, slug string) (Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/repos/"+slug, nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("repometa: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("repometa: %s: %w", slug, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, slug)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return Metadata{}, fmt.Errorf("%w: %s", ErrRateLimited, slug)
	case resp.StatusCode != http.StatusOK:
		return Metadata{}, fmt.Errorf("repometa: %s: unexpected status %d", slug, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Metadata{}, fmt.Errorf("repometa: %s: %w", slug, err)
	}
	if !gjson.ValidBytes(body) {
		return Metadata{}, fmt.Errorf("repometa: %s: invalid JSON payload", slug)
	}

	m := Parse(slug, body)
	c.mu.Lock()
	c.cache[slug] = m
	c.mu.Unlock()
	log.Printf("[RepoMeta] %s: %s stars, %s forks", m.FullName, FormatCount(m.Stars), FormatCount(m.Forks))
	return m, nil
}

// Forget drops a cached entry so the next Fetch hits the API again.
func (c *Client) Forget(ref string) {
	slug, err := Normalize(ref)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.cache, slug)
	c.mu.Unlock()
}

// FormatCount formats a counter: plain below 1000, compact SI above ("1.2k").
func FormatCount(n int64) string {
	if n < 1000 {
		return humanize.Comma(n)
	}
	value, prefix := humanize.ComputeSI(float64(n))
	s := humanize.FtoaWithDigits(value, 1)
	if prefix == "k" {
		prefix = "K"
	}
	return s + prefix
}

// FormatUpdated formats an update time as "Jan 2, 2006", or "" for the zero time.
func FormatUpdated(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}
