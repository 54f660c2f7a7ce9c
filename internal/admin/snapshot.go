package admin

import "github.com/ecologia-integral/ecosite/internal/domain"

// Reviews returns copies of every loaded review, newest first.
func (c *Controller) Reviews() []domain.Review {
	return c.reviewsWhere(func(*domain.Review) bool { return true })
}

func (c *Controller) Pending() []domain.Review {
	return c.reviewsInState(domain.StatePending)
}

func (c *Controller) Approved() []domain.Review {
	return c.reviewsInState(domain.StateApproved)
}

func (c *Controller) Rejected() []domain.Review {
	return c.reviewsInState(domain.StateRejected)
}

func (c *Controller) reviewsInState(state domain.ModerationState) []domain.Review {
	return c.reviewsWhere(func(r *domain.Review) bool { return r.State() == state })
}

func (c *Controller) reviewsWhere(keep func(*domain.Review) bool) []domain.Review {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Review, 0, len(c.rows))
	for _, r := range c.rows {
		if keep(r) {
			out = append(out, *r)
		}
	}
	return out
}

// Review returns a copy of one loaded review.
func (c *Controller) Review(id int64) (domain.Review, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r := c.findReviewLocked(id); r != nil {
		return *r, true
	}
	return domain.Review{}, false
}

// Gallery returns copies of the loaded gallery items in display order.
func (c *Controller) Gallery() []domain.GalleryItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.GalleryItem, len(c.items))
	for i, it := range c.items {
		out[i] = *it
	}
	return out
}

// Item returns a copy of one loaded gallery item.
func (c *Controller) Item(id int64) (domain.GalleryItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if it := c.findItemLocked(id); it != nil {
		return *it, true
	}
	return domain.GalleryItem{}, false
}

// Busy reports whether key has an operation in flight.
func (c *Controller) Busy(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[key]
	return ok
}

// Active reports whether the controller's session is still valid.
func (c *Controller) Active() bool {
	return c.checkSession() == nil
}
