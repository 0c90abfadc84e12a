// Package content loads the gallery's content list and derives what the project overlay shows for an item.
//
// Content files hold a top-level "projects" list in TOML or YAML. Every field is optional:
// an item without a title gets no label, and an item without an image stays on its placeholder.
package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-gallery/engine/scene"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither TOML nor YAML.
	ErrUnsupportedFormat = errors.New("content: unsupported file format")
	// ErrEmpty is returned when a content file holds no projects.
	ErrEmpty = errors.New("content: no projects")
)

// Format identifies a content file encoding.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatFor picks the encoding from a file extension.
//
// Parameters:
//   - path: the content file path
//
// Returns:
//   - Format: the encoding
//   - error: ErrUnsupportedFormat for unknown extensions
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Media is one entry of a project's hero and gallery media.
type Media struct {
	Src     string `json:"src"`
	Kind    string `json:"kind"` // "image" or "video"
	Caption string `json:"caption,omitempty"`
	Alt     string `json:"alt"`
}

// Link is an external resource shown in the project overlay.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Repo points at a source repository whose metadata the overlay shows.
type Repo struct {
	Repo        string
	URL         string
	Description string
	Branch      string
}

// Item is one gallery project.
type Item struct {
	Title        string
	Date         string
	Category     string
	Variant      string
	Image        string
	Gallery      []Media
	Description  []string
	Technologies []string
	Highlights   []string
	Links        []Link
	Repo         *Repo
}

// rawItem mirrors the file layout. Description and gallery entries accept either a plain
// string or a richer form, so they decode into any and are normalised afterwards.
type rawItem struct {
	Title        string   `toml:"title" yaml:"title"`
	Date         string   `toml:"date" yaml:"date"`
	Category     string   `toml:"category" yaml:"category"`
	Variant      string   `toml:"variant" yaml:"variant"`
	Image        string   `toml:"image" yaml:"image"`
	Gallery      []any    `toml:"gallery" yaml:"gallery"`
	Description  any      `toml:"description" yaml:"description"`
	Technologies []string `toml:"technologies" yaml:"technologies"`
	Stack        []string `toml:"stack" yaml:"stack"`
	Highlights   []string `toml:"highlights" yaml:"highlights"`
	Links        []struct {
		Label string `toml:"label" yaml:"label"`
		URL   string `toml:"url" yaml:"url"`
	} `toml:"links" yaml:"links"`
	GitHub *struct {
		Repo        string `toml:"repo" yaml:"repo"`
		URL         string `toml:"url" yaml:"url"`
		Description string `toml:"description" yaml:"description"`
		Branch      string `toml:"branch" yaml:"branch"`
	} `toml:"github" yaml:"github"`
}

type rawFile struct {
	Projects []rawItem `toml:"projects" yaml:"projects"`
}

// Load reads and parses a content file.
//
// Parameters:
//   - path: a .toml, .yaml or .yml file
//
// Returns:
//   - []Item: the projects in file order
//   - error: error if the file cannot be read or parsed, or holds no projects
func Load(path string) ([]Item, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: read: %w", err)
	}
	return Parse(data, format)
}

// Parse decodes content in the given format.
//
// Parameters:
//   - data: the file contents
//   - format: the encoding
//
// Returns:
//   - []Item: the projects in file order
//   - error: error if decoding fails or no projects are present
func Parse(data []byte, format Format) ([]Item, error) {
	var raw rawFile
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &raw)
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("content: decode: %w", err)
	}
	if len(raw.Projects) == 0 {
		return nil, ErrEmpty
	}

	items := make([]Item, len(raw.Projects))
	for i, r := range raw.Projects {
		items[i] = r.normalize()
	}
	return items, nil
}

func (r rawItem) normalize() Item {
	it := Item{
		Title:        strings.TrimSpace(r.Title),
		Date:         strings.TrimSpace(r.Date),
		Category:     strings.TrimSpace(r.Category),
		Variant:      strings.TrimSpace(r.Variant),
		Image:        strings.TrimSpace(r.Image),
		Description:  paragraphs(r.Description),
		Technologies: nonEmpty(r.Technologies),
		Highlights:   nonEmpty(r.Highlights),
	}
	if len(it.Technologies) == 0 {
		it.Technologies = nonEmpty(r.Stack)
	}
	for _, g := range r.Gallery {
		if m, ok := mediaEntry(g, it.Title); ok {
			it.Gallery = append(it.Gallery, m)
		}
	}
	for _, l := range r.Links {
		if l.URL == "" {
			continue
		}
		label := l.Label
		if label == "" {
			label = fmt.Sprintf("Resource %d", len(it.Links)+1)
		}
		it.Links = append(it.Links, Link{Label: label, URL: l.URL})
	}
	if r.GitHub != nil {
		it.Repo = &Repo{
			Repo:        strings.TrimSpace(r.GitHub.Repo),
			URL:         strings.TrimSpace(r.GitHub.URL),
			Description: r.GitHub.Description,
			Branch:      r.GitHub.Branch,
		}
		if it.Repo.Branch == "" {
			it.Repo.Branch = "main"
		}
	}
	return it
}

// paragraphs accepts a single string (split on blank lines) or a list of strings.
func paragraphs(v any) []string {
	switch d := v.(type) {
	case string:
		var out []string
		for _, p := range strings.Split(d, "\n\n") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []any:
		var out []string
		for _, e := range d {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	default:
		return nil
	}
}

// mediaEntry accepts a bare source string or a table with src, kind/type, caption/title and alt.
func mediaEntry(v any, title string) (Media, bool) {
	switch e := v.(type) {
	case string:
		if e == "" {
			return Media{}, false
		}
		return Media{Src: e, Kind: kindOf(e), Alt: title + " media"}, true
	case map[string]any:
		src, _ := e["src"].(string)
		if src == "" {
			return Media{}, false
		}
		m := Media{
			Src:     src,
			Kind:    firstString(e, "kind", "type"),
			Caption: firstString(e, "caption", "title"),
			Alt:     firstString(e, "alt", "caption"),
		}
		if m.Kind == "" {
			m.Kind = kindOf(src)
		}
		if m.Alt == "" {
			m.Alt = title + " media"
		}
		return m, true
	default:
		return Media{}, false
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SceneItems reduces items to what the simulation needs.
//
// Parameters:
//   - items: the loaded projects
//
// Returns:
//   - []scene.Item: one entry per project, in order
func SceneItems(items []Item) []scene.Item {
	out := make([]scene.Item, len(items))
	for i, it := range items {
		out[i] = scene.Item{Title: it.Title, Image: it.Image}
	}
	return out
}
