package app

import (
	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/Carmen-Shannon/oxy-gallery/gallery/content"
	"github.com/Carmen-Shannon/oxy-gallery/gallery/repometa"
)

// relatedCount is the number of related projects listed under a detail.
const relatedCount = 4

const repoFallbackDescription = "Live repository telemetry for this build."

// Repository lookup states reported to the overlay.
const (
	RepoLoading = "loading"
	RepoLoaded  = "loaded"
	RepoError   = "error"
)

// Detail is the overlay payload for the focused project.
type Detail struct {
	Index        int              `json:"index"`
	Title        string           `json:"title"`
	Category     string           `json:"category,omitempty"`
	Date         string           `json:"date,omitempty"`
	Ordinal      string           `json:"ordinal"`
	Position     string           `json:"position"`
	Variant      string           `json:"variant"`
	Description  []string         `json:"description"`
	Details      []content.Detail `json:"details,omitempty"`
	Media        []content.Media  `json:"media"`
	Technologies []string         `json:"technologies,omitempty"`
	Highlights   []string         `json:"highlights,omitempty"`
	Links        []content.Link   `json:"links,omitempty"`
	Related      []RelatedProject `json:"related,omitempty"`
	Repo         *RepoDetail      `json:"repo,omitempty"`
}

// RelatedProject is a link from one detail to another project.
type RelatedProject struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Ordinal  string `json:"ordinal"`
}

// RepoDetail is the repository widget. Counts are preformatted ("1.2K").
type RepoDetail struct {
	Status      string `json:"status"`
	Ref         string `json:"-"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Branch      string `json:"branch"`
	Stars       string `json:"stars,omitempty"`
	Forks       string `json:"forks,omitempty"`
	Watchers    string `json:"watchers,omitempty"`
	OpenIssues  string `json:"openIssues,omitempty"`
	Language    string `json:"language,omitempty"`
	License     string `json:"license,omitempty"`
	Updated     string `json:"updated,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Describe builds the detail for items[index] without repository metadata. A project with a
// repository gets a RepoDetail in the loading state built from the content file alone.
//
// Parameters:
//   - items: every project, in gallery order
//   - index: the focused project
//
// Returns:
//   - Detail: the overlay payload
//   - bool: false when index is out of range
func Describe(items []content.Item, index int) (Detail, bool) {
	if index < 0 || index >= len(items) {
		return Detail{}, false
	}
	it := items[index]
	d := Detail{
		Index:        index,
		Title:        it.Title,
		Category:     it.Category,
		Date:         it.Date,
		Ordinal:      content.Ordinal(index, len(items)),
		Position:     content.PositionLabel(index, len(items)),
		Variant:      content.Variant(it),
		Description:  content.DescriptionOrFallback(it),
		Details:      content.Details(it),
		Media:        content.MediaList(it),
		Technologies: it.Technologies,
		Highlights:   it.Highlights,
		Links:        it.Links,
	}
	for _, i := range content.Related(items, index, relatedCount) {
		d.Related = append(d.Related, RelatedProject{
			Index:    i,
			Title:    items[i].Title,
			Category: items[i].Category,
			Ordinal:  content.Ordinal(i, len(items)),
		})
	}
	if it.Repo != nil {
		d.Repo = pendingRepo(it.Repo)
	}
	return d, true
}

func pendingRepo(r *content.Repo) *RepoDetail {
	slug, err := repometa.Normalize(common.Coalesce(r.Repo, r.URL))
	if err != nil {
		return &RepoDetail{Status: RepoError, URL: r.URL, Description: r.Description, Branch: r.Branch, Error: err.Error()}
	}
	return &RepoDetail{
		Status:      RepoLoading,
		Ref:         slug,
		Name:        slug,
		URL:         common.Coalesce(r.URL, "https://github.com/"+slug),
		Description: common.Coalesce(r.Description, repoFallbackDescription),
		Branch:      common.Coalesce(r.Branch, "main"),
	}
}

// withMetadata returns a copy of pending filled from fetched metadata. The content file's own
// description, URL and branch stand in for anything the API left empty.
func withMetadata(pending RepoDetail, m repometa.Metadata) *RepoDetail {
	out := pending
	out.Status = RepoLoaded
	out.Name = common.Coalesce(m.FullName, pending.Name)
	out.URL = common.Coalesce(m.URL, pending.URL)
	out.Description = common.Coalesce(m.Description, pending.Description)
	out.Branch = common.Coalesce(m.DefaultBranch, pending.Branch)
	out.Stars = repometa.FormatCount(m.Stars)
	out.Forks = repometa.FormatCount(m.Forks)
	out.Watchers = repometa.FormatCount(m.Watchers)
	out.OpenIssues = repometa.FormatCount(m.OpenIssues)
	out.Language = m.Language
	out.License = m.License
	out.Updated = repometa.FormatUpdated(m.UpdatedAt)
	return &out
}

func withError(pending RepoDetail, err error) *RepoDetail {
	out := pending
	out.Status = RepoError
	out.Error = err.Error()
	return &out
}
