package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
[[projects]]
title = "Parametric Skyline"
date = "Mar 2024 | 6 wks"
category = "3D Design"
image = "https://example.com/skyline.jpg"
description = ["First paragraph.", "", "Second paragraph."]
technologies = ["Rhino", " ", "Grasshopper"]
gallery = [
  "https://example.com/skyline.jpg",
  { src = "https://example.com/study.jpg", caption = "Daylight study" },
  "https://example.com/walkthrough.MP4",
]
links = [
  { label = "Journal", url = "https://example.com/journal" },
  { url = "https://example.com/live" },
  { label = "Broken" },
]
github = { repo = "https://github.com/acme/skyline.git" }

[[projects]]
title = "Circuit Ballet"
category = "Electronics"
stack = ["KiCad"]
`

const sampleYAML = `
projects:
  - title: Untitled
    description: |
      One.

      Two.
    gallery:
      - src: clip.webm
        kind: video
  - image: only-image.png
`

func TestParseTOML(t *testing.T) {
	items, err := Parse([]byte(sampleTOML), FormatTOML)
	require.NoError(t, err)
	require.Len(t, items, 2)

	sky := items[0]
	assert.Equal(t, "Parametric Skyline", sky.Title)
	assert.Equal(t, []string{"First paragraph.", "Second paragraph."}, sky.Description)
	assert.Equal(t, []string{"Rhino", "Grasshopper"}, sky.Technologies)

	require.Len(t, sky.Gallery, 3)
	assert.Equal(t, "image", sky.Gallery[0].Kind)
	assert.Equal(t, "Daylight study", sky.Gallery[1].Caption)
	assert.Equal(t, "Daylight study", sky.Gallery[1].Alt)
	assert.Equal(t, "video", sky.Gallery[2].Kind)

	require.Len(t, sky.Links, 2)
	assert.Equal(t, "Journal", sky.Links[0].Label)
	assert.Equal(t, "Resource 2", sky.Links[1].Label)

	require.NotNil(t, sky.Repo)
	assert.Equal(t, "main", sky.Repo.Branch)

	assert.Equal(t, []string{"KiCad"}, items[1].Technologies)
	assert.Nil(t, items[1].Repo)
}

func TestParseYAML(t *testing.T) {
	items, err := Parse([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, []string{"One.", "Two."}, items[0].Description)
	require.Len(t, items[0].Gallery, 1)
	assert.Equal(t, "video", items[0].Gallery[0].Kind)
	assert.Equal(t, "Untitled media", items[0].Gallery[0].Alt)

	assert.Empty(t, items[1].Title)
	assert.Equal(t, "only-image.png", items[1].Image)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("projects = []"), FormatTOML)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Parse([]byte("projects: [unclosed"), FormatYAML)
	assert.ErrorContains(t, err, "content: decode")

	_, err = FormatFor("content.json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	items, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSceneItems(t *testing.T) {
	items, err := Parse([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	si := SceneItems(items)
	require.Len(t, si, 2)
	assert.Equal(t, "Untitled", si[0].Title)
	assert.Empty(t, si[0].Image)
	assert.Equal(t, "only-image.png", si[1].Image)
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []Item, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func(items []Item) { changes <- items })
	}()

	// give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("[[projects]]\ntitle = \"Only\"\n"), 0o644))

	select {
	case items := <-changes:
		require.Len(t, items, 1)
		assert.Equal(t, "Only", items[0].Title)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	// a broken file keeps the previous content
	require.NoError(t, os.WriteFile(path, []byte("[[projects"), 0o644))
	select {
	case <-changes:
		t.Fatal("broken content should not be delivered")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	assert.NoError(t, <-done)
}
