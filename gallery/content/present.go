package content

import (
	"fmt"
	"regexp"
	"strings"
)

// Overlay variants.
const (
	VariantVisual    = "visual"
	VariantTechnical = "technical"
	VariantConcept   = "concept"
)

var (
	technicalCategory = regexp.MustCompile(`software|electronics|automation|quant|control|security|robot|deep|ai|finance|systems|iot|engineering|plasma|material|satellite|code|dev`)
	conceptCategory   = regexp.MustCompile(`charity|story|experimental|heritage|concept|narrative|sustain|immersive|research|strategy|design`)
	videoSource       = regexp.MustCompile(`\.(mp4|webm|ogg|mov|m4v)$`)
)

// Variant returns the overlay style for an item. An explicit variant wins; otherwise the
// category decides, with technical keywords checked before concept keywords.
func Variant(it Item) string {
	if it.Variant != "" {
		return it.Variant
	}
	category := strings.ToLower(it.Category)
	switch {
	case category == "":
		return VariantVisual
	case technicalCategory.MatchString(category):
		return VariantTechnical
	case conceptCategory.MatchString(category):
		return VariantConcept
	default:
		return VariantVisual
	}
}

func kindOf(src string) string {
	lower := strings.ToLower(src)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	if videoSource.MatchString(lower) {
		return "video"
	}
	return "image"
}

// MediaList returns the hero image followed by the gallery entries, de-duplicated by source.
func MediaList(it Item) []Media {
	var out []Media
	seen := make(map[string]bool)
	if it.Image != "" {
		out = append(out, Media{Src: it.Image, Kind: kindOf(it.Image), Alt: it.Title + " media"})
		seen[it.Image] = true
	}
	for _, m := range it.Gallery {
		if m.Src == "" || seen[m.Src] {
			continue
		}
		seen[m.Src] = true
		out = append(out, m)
	}
	return out
}

// Related lists up to max other items, those sharing the active item's category first.
//
// Parameters:
//   - items: every project
//   - active: the index of the open project
//   - max: the number of entries to return
//
// Returns:
//   - []int: indices into items
func Related(items []Item, active, max int) []int {
	if active < 0 || active >= len(items) || max <= 0 {
		return nil
	}
	base := strings.ToLower(items[active].Category)
	var primary, secondary []int
	for i, it := range items {
		if i == active {
			continue
		}
		if base != "" && strings.Contains(strings.ToLower(it.Category), base) {
			primary = append(primary, i)
		} else {
			secondary = append(secondary, i)
		}
	}
	out := append(primary, secondary...)
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// Ordinal formats a position as "01 / 12".
func Ordinal(index, count int) string {
	return fmt.Sprintf("%02d / %02d", index+1, count)
}

// PositionLabel formats a position as "Project 1 of 12".
func PositionLabel(index, count int) string {
	return fmt.Sprintf("Project %d of %d", index+1, count)
}

// DescriptionOrFallback returns the item's paragraphs, or a single neutral sentence built from
// its category and the duration part of its date ("Mar 2024 | 6 wks").
func DescriptionOrFallback(it Item) []string {
	if len(it.Description) > 0 {
		return it.Description
	}
	category := strings.ToLower(it.Category)
	if category == "" {
		category = "interdisciplinary studio"
	}
	cadence := ""
	if parts := strings.SplitN(it.Date, "|", 2); len(parts) == 2 {
		if d := strings.TrimSpace(parts[1]); d != "" {
			cadence = " developed over " + strings.ToLower(d)
		}
	}
	return []string{fmt.Sprintf("A %s study%s, composed as a quiet investigation into form, light, and intent.", category, cadence)}
}

// Detail is a labelled fact shown beside the description.
type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Details returns the discipline and timeline rows for an item.
func Details(it Item) []Detail {
	var out []Detail
	if it.Category != "" {
		out = append(out, Detail{Label: "Discipline", Value: it.Category})
	}
	if it.Date != "" {
		out = append(out, Detail{Label: "Timeline", Value: it.Date})
	}
	return out
}
