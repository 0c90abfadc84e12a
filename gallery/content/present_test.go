package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariant(t *testing.T) {
	tests := []struct {
		item Item
		want string
	}{
		{Item{Category: "Software"}, VariantTechnical},
		{Item{Category: "Systems Engineering"}, VariantTechnical},
		{Item{Category: "Heritage Narrative"}, VariantConcept},
		{Item{Category: "Research"}, VariantConcept},
		{Item{Category: "Photography"}, VariantVisual},
		{Item{}, VariantVisual},
		{Item{Category: "Software", Variant: "concept"}, VariantConcept},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Variant(tt.item), tt.item.Category)
	}
}

func TestMediaList(t *testing.T) {
	it := Item{
		Title: "T",
		Image: "hero.jpg",
		Gallery: []Media{
			{Src: "hero.jpg", Kind: "image"},
			{Src: "clip.mov?dl=1", Kind: "video"},
			{Src: "clip.mov?dl=1", Kind: "video"},
			{Src: ""},
		},
	}
	media := MediaList(it)
	assert.Len(t, media, 2)
	assert.Equal(t, "hero.jpg", media[0].Src)
	assert.Equal(t, "T media", media[0].Alt)
	assert.Equal(t, "video", media[1].Kind)

	assert.Empty(t, MediaList(Item{}))
	assert.Equal(t, "video", kindOf("https://cdn.example.com/a.M4V?x=1"))
	assert.Equal(t, "image", kindOf("https://cdn.example.com/a.webp"))
}

func TestRelated(t *testing.T) {
	items := []Item{
		{Category: "Design"},
		{Category: "Software"},
		{Category: "3D Design"},
		{Category: "Photography"},
		{Category: "design systems"},
		{Category: "Music"},
	}

	assert.Equal(t, []int{2, 4, 1, 3}, Related(items, 0, 4))
	assert.Equal(t, []int{0, 2}, Related(items, 1, 2))
	assert.Nil(t, Related(items, -1, 4))
	assert.Nil(t, Related(items, 0, 0))

	uncategorised := []Item{{}, {Category: "Design"}, {}}
	assert.Equal(t, []int{0, 1}, Related(uncategorised, 2, 4))
}

func TestOrdinal(t *testing.T) {
	assert.Equal(t, "01 / 12", Ordinal(0, 12))
	assert.Equal(t, "12 / 12", Ordinal(11, 12))
	assert.Equal(t, "100 / 120", Ordinal(99, 120))
	assert.Equal(t, "Project 3 of 7", PositionLabel(2, 7))
}

func TestDescriptionOrFallback(t *testing.T) {
	assert.Equal(t, []string{"Own."}, DescriptionOrFallback(Item{Description: []string{"Own."}}))
	assert.Equal(t,
		[]string{"A 3d design study developed over 6 wks, composed as a quiet investigation into form, light, and intent."},
		DescriptionOrFallback(Item{Category: "3D Design", Date: "Mar 2024 | 6 WKS"}))
	assert.Equal(t,
		[]string{"A interdisciplinary studio study, composed as a quiet investigation into form, light, and intent."},
		DescriptionOrFallback(Item{Date: "2024"}))
}

func TestDetails(t *testing.T) {
	assert.Equal(t, []Detail{{"Discipline", "Design"}, {"Timeline", "2024"}}, Details(Item{Category: "Design", Date: "2024"}))
	assert.Empty(t, Details(Item{}))
}
