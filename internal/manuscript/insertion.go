// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manuscript

import (
	"strings"

	"github.com/pdiddy/camera-ready/pkg/types"
)

// figureKeywords are body-text words suggesting the paragraph discusses a
// figure or table, making it a candidate position for image insertion.
var figureKeywords = []string{
	"figure", "fig.", "image", "diagram", "chart", "table",
	"shows", "illustrates", "demonstrates", "presents",
}

// FindImageInsertionPoints flags paragraphs that reference figures or
// tables. The first matching keyword per paragraph wins; a paragraph can
// contribute at most one point. Results are advisory: the renderer still
// places figures after the body sections, and these points are surfaced
// to callers deciding whether manual placement is worth it.
func FindImageInsertionPoints(paragraphs []string) []types.InsertionPoint {
	var points []types.InsertionPoint

	for i, p := range paragraphs {
		lower := strings.ToLower(p)
		for _, kw := range figureKeywords {
			if strings.Contains(lower, kw) {
				points = append(points, types.InsertionPoint{
					Index:   i,
					Keyword: kw,
					Excerpt: excerpt(p, 100),
				})
				break
			}
		}
	}

	return points
}

// excerpt returns the first max runes of s, with an ellipsis when truncated.
func excerpt(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
