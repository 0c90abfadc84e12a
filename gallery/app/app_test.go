package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-gallery/engine/view"
	"github.com/Carmen-Shannon/oxy-gallery/gallery/config"
	"github.com/Carmen-Shannon/oxy-gallery/gallery/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const repoPayload = `{
  "full_name": "acme/skyline",
  "stargazers_count": 1234,
  "forks_count": 5,
  "open_issues_count": 2,
  "subscribers_count": 40,
  "language": "Go",
  "updated_at": "2024-03-05T10:00:00Z",
  "license": {"spdx_id": "MIT"},
  "default_branch": "trunk",
  "html_url": "https://github.com/acme/skyline"
}`

func testItems() []content.Item {
	return []content.Item{
		{
			Title:    "Parametric Skyline",
			Date:     "Mar 2024 | 6 wks",
			Category: "3D Design",
			Image:    "missing/skyline.png",
			Repo:     &content.Repo{Repo: "https://github.com/acme/skyline.git", Branch: "main"},
		},
		{Title: "Circuit Ballet", Category: "Electronics", Image: "missing/ballet.png"},
		{Title: "Signal Garden", Category: "3D Design Research"},
	}
}

func testConfig(repoAPI string) config.Config {
	return config.Config{
		ContentPath:  "content.toml",
		Controls:     "steer",
		Width:        800,
		Height:       600,
		TickRate:     60,
		RepoAPI:      repoAPI,
		FetchWorkers: 1,
		FetchTimeout: time.Second,
		MaxTexture:   256,
		InitialBatch: 0,
		LoadDistance: 18,
	}
}

// published returns the last detail the app handed to the state feed.
func published(a *App) *Detail {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.detail
}

func TestDescribe(t *testing.T) {
	items := testItems()

	d, ok := Describe(items, 0)
	require.True(t, ok)
	assert.Equal(t, "Parametric Skyline", d.Title)
	assert.Equal(t, "01 / 03", d.Ordinal)
	assert.Equal(t, "Project 1 of 3", d.Position)
	assert.Equal(t, content.VariantConcept, d.Variant)
	require.Len(t, d.Media, 1)
	assert.Equal(t, "missing/skyline.png", d.Media[0].Src)
	require.Len(t, d.Description, 1)
	assert.Contains(t, d.Description[0], "developed over 6 wks")

	require.Len(t, d.Related, 2)
	assert.Equal(t, 2, d.Related[0].Index, "same category first")
	assert.Equal(t, "03 / 03", d.Related[0].Ordinal)

	require.NotNil(t, d.Repo)
	assert.Equal(t, RepoLoading, d.Repo.Status)
	assert.Equal(t, "acme/skyline", d.Repo.Name)
	assert.Equal(t, "https://github.com/acme/skyline", d.Repo.URL)
	assert.Equal(t, repoFallbackDescription, d.Repo.Description)

	d, ok = Describe(items, 1)
	require.True(t, ok)
	assert.Nil(t, d.Repo)

	_, ok = Describe(items, 3)
	assert.False(t, ok)
	_, ok = Describe(items, view.NoFocus)
	assert.False(t, ok)
}

func TestDescribeInvalidRepo(t *testing.T) {
	items := []content.Item{{Title: "A", Repo: &content.Repo{Repo: "https://github.com/"}}}
	d, ok := Describe(items, 0)
	require.True(t, ok)
	assert.Equal(t, RepoError, d.Repo.Status)
	assert.NotEmpty(t, d.Repo.Error)
}

func TestBuildSceneAdvancesGeneration(t *testing.T) {
	a := New(context.Background(), testConfig(""), testItems())

	first, err := a.BuildScene()
	require.NoError(t, err)
	defer first.Dispose()
	second, err := a.BuildScene()
	require.NoError(t, err)
	defer second.Dispose()

	assert.Equal(t, uint64(1), first.Generation())
	assert.Equal(t, uint64(2), second.Generation())
	assert.Equal(t, 3, second.Count())
	assert.Equal(t, view.Gallery, second.View())
}

func TestViewChangePublishesRepoMetadata(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(repoPayload))
	}))
	defer srv.Close()

	a := New(context.Background(), testConfig(srv.URL), testItems())
	a.viewChanged(view.Project, 0)

	d := published(a)
	require.NotNil(t, d)
	assert.Equal(t, 0, d.Index)

	assert.Eventually(t, func() bool {
		d := published(a)
		return d != nil && d.Repo.Status == RepoLoaded
	}, 2*time.Second, 10*time.Millisecond)

	d = published(a)
	assert.Equal(t, "1.2K", d.Repo.Stars)
	assert.Equal(t, "40", d.Repo.Watchers)
	assert.Equal(t, "trunk", d.Repo.Branch)
	assert.Equal(t, "MIT", d.Repo.License)
	assert.Equal(t, "Mar 5, 2024", d.Repo.Updated)
	assert.Equal(t, repoFallbackDescription, d.Repo.Description)

	a.viewChanged(view.Gallery, view.NoFocus)
	assert.Nil(t, published(a))

	// reopening uses the cache
	a.viewChanged(view.Project, 0)
	assert.Equal(t, RepoLoaded, published(a).Repo.Status)
	assert.Equal(t, int32(1), hits.Load())
}

func TestStaleRepoLookupIsDropped(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(repoPayload))
	}))
	defer srv.Close()

	a := New(context.Background(), testConfig(srv.URL), testItems())
	a.viewChanged(view.Project, 0)
	assert.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	a.viewChanged(view.Project, 1)
	close(release)

	assert.Eventually(t, func() bool {
		_, ok := a.repos.Cached("acme/skyline")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	d := published(a)
	require.NotNil(t, d)
	assert.Equal(t, 1, d.Index)
	assert.Nil(t, d.Repo)
}

func TestRetryRepoAfterError(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(repoPayload))
	}))
	defer srv.Close()

	a := New(context.Background(), testConfig(srv.URL), testItems())
	a.RetryRepo()
	assert.Nil(t, published(a))

	a.viewChanged(view.Project, 0)
	assert.Eventually(t, func() bool { return published(a).Repo.Status == RepoError }, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, published(a).Repo.Error, "rate limited")

	fail.Store(false)
	a.RetryRepo()
	assert.Eventually(t, func() bool { return published(a).Repo.Status == RepoLoaded }, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, published(a).Repo.Error)
}

func TestReloadKeepsContentOnFailure(t *testing.T) {
	a := New(context.Background(), testConfig(""), testItems())

	a.Reload(nil)
	assert.Len(t, a.Items(), 3)

	a.viewChanged(view.Project, 1)
	require.NotNil(t, published(a))

	a.Reload(testItems()[:2])
	assert.Len(t, a.Items(), 2)
	assert.Nil(t, published(a), "a rebuilt scene starts in the gallery")

	a.mu.Lock()
	cancel := a.unfollow
	a.mu.Unlock()
	require.NotNil(t, cancel)
	cancel()
}
