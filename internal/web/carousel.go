package web

import (
	"strconv"

	"github.com/ecologia-integral/ecosite/internal/domain"
)

// carousel is the home page gallery strip. Navigation wraps around.
type carousel struct {
	Items []*domain.GalleryItem
	Index int
}

func newCarousel(items []*domain.GalleryItem, raw string) carousel {
	i, _ := strconv.Atoi(raw)
	return carousel{Items: items, Index: wrapIndex(i, len(items))}
}

func (c carousel) Current() *domain.GalleryItem {
	if len(c.Items) == 0 {
		return nil
	}
	return c.Items[c.Index]
}

func (c carousel) Prev() int { return wrapIndex(c.Index-1, len(c.Items)) }
func (c carousel) Next() int { return wrapIndex(c.Index+1, len(c.Items)) }
func (c carousel) Position() int { return c.Index + 1 }
func (c carousel) Len() int { return len(c.Items) }

// viewer is the full gallery's single-item view. Navigation stops at the ends.
type viewer struct {
	Items []*domain.GalleryItem
	Open  bool
	Index int
}

// newViewer opens the item at raw, clamped to the gallery. An empty or
// non-numeric raw leaves the viewer closed.
func newViewer(items []*domain.GalleryItem, raw string) viewer {
	v := viewer{Items: items}
	i, err := strconv.Atoi(raw)
	if err != nil || len(items) == 0 {
		return v
	}
	v.Open = true
	v.Index = clampIndex(i, len(items))
	return v
}

func (v viewer) Current() *domain.GalleryItem {
	if !v.Open {
		return nil
	}
	return v.Items[v.Index]
}

func (v viewer) HasPrev() bool { return v.Open && v.Index > 0 }
func (v viewer) HasNext() bool { return v.Open && v.Index < len(v.Items)-1 }
func (v viewer) Prev() int { return clampIndex(v.Index-1, len(v.Items)) }
func (v viewer) Next() int { return clampIndex(v.Index+1, len(v.Items)) }
func (v viewer) Position() int { return v.Index + 1 }
func (v viewer) Len() int { return len(v.Items) }

func wrapIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

func clampIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	return max(0, min(i, n-1))
}
