// Package admin holds the moderation and gallery workflow for one signed-in
// administrator. A Controller keeps the session's view of reviews and gallery
// items, tracks which rows have a backend call in flight, and applies local
// changes only once the backend confirms them. Reordering is the exception:
// it is applied immediately and rolled back from the backend on failure.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ecologia-integral/ecosite/internal/auth"
	"github.com/ecologia-integral/ecosite/internal/domain"
	"github.com/ecologia-integral/ecosite/internal/service"
)

var (
	ErrBusy            = errors.New("another operation on this item is in progress")
	ErrUnauthenticated = errors.New("admin session is not active")
	ErrNotFound        = errors.New("item not found")
)

// ReorderKey is the in-flight key held while a gallery reorder persists.
const ReorderKey = "gallery:reorder"

// UploadKey is the in-flight key held while a gallery upload runs.
const UploadKey = "gallery:upload"

func ReviewKey(id int64) string  { return fmt.Sprintf("review:%d", id) }
func GalleryKey(id int64) string { return fmt.Sprintf("gallery:%d", id) }

// ReorderError reports a failed reorder. The local sequence has already been
// replaced by the backend's when RefetchErr is nil.
type ReorderError struct {
	Err        error
	RefetchErr error
}

func (e *ReorderError) Error() string {
	if e.RefetchErr != nil {
		return fmt.Sprintf("reorder failed: %v (refetch also failed: %v)", e.Err, e.RefetchErr)
	}
	return fmt.Sprintf("reorder failed: %v", e.Err)
}

func (e *ReorderError) Unwrap() error { return e.Err }

type reviewWorkflow interface {
	ListAll(ctx context.Context) ([]*domain.Review, error)
	SetState(ctx context.Context, id int64, state domain.ModerationState) error
	EditComment(ctx context.Context, id int64, text string) (string, error)
	Delete(ctx context.Context, id int64) error
}

type galleryWorkflow interface {
	List(ctx context.Context) ([]*domain.GalleryItem, error)
	Upload(ctx context.Context, u service.Upload) (*domain.GalleryItem, error)
	UpdateCaption(ctx context.Context, id int64, text string) (*string, error)
	Delete(ctx context.Context, item *domain.GalleryItem) error
	PersistOrder(ctx context.Context, items []*domain.GalleryItem) error
}

type Controller struct {
	session *auth.Session
	reviews reviewWorkflow
	gallery galleryWorkflow
	logger  *slog.Logger

	// mu guards the fields below and is never held across a backend call.
	mu       sync.Mutex
	rows     []*domain.Review
	items    []*domain.GalleryItem
	inflight map[string]struct{}
}

func NewController(session *auth.Session, reviews reviewWorkflow, gallery galleryWorkflow, logger *slog.Logger) *Controller {
	return &Controller{
		session:  session,
		reviews:  reviews,
		gallery:  gallery,
		logger:   logger.With("session_id", session.ID),
		inflight: make(map[string]struct{}),
	}
}

func (c *Controller) checkSession() error {
	if c.session == nil || !c.session.Active() {
		return ErrUnauthenticated
	}
	return nil
}

// begin checks the session and claims key. The returned func releases it.
func (c *Controller) begin(key string) (func(), error) {
	if err := c.checkSession(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[key]; busy {
		return nil, ErrBusy
	}
	c.inflight[key] = struct{}{}
	return func() {
		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
	}, nil
}

// Load replaces both local collections with the backend's.
func (c *Controller) Load(ctx context.Context) error {
	if err := c.checkSession(); err != nil {
		return err
	}
	rows, err := c.reviews.ListAll(ctx)
	if err != nil {
		c.logger.Error("failed to load reviews", "error", err)
		return err
	}
	items, err := c.gallery.List(ctx)
	if err != nil {
		c.logger.Error("failed to load gallery", "error", err)
		return err
	}

	c.mu.Lock()
	c.rows = rows
	c.items = items
	c.mu.Unlock()
	return nil
}

func (c *Controller) Approve(ctx context.Context, id int64) error {
	return c.setState(ctx, id, domain.StateApproved)
}

func (c *Controller) Reject(ctx context.Context, id int64) error {
	return c.setState(ctx, id, domain.StateRejected)
}

// Unset returns a review to pending.
func (c *Controller) Unset(ctx context.Context, id int64) error {
	return c.setState(ctx, id, domain.StatePending)
}

func (c *Controller) setState(ctx context.Context, id int64, state domain.ModerationState) error {
	release, err := c.begin(ReviewKey(id))
	if err != nil {
		return err
	}
	defer release()

	if err := c.reviews.SetState(ctx, id, state); err != nil {
		c.logger.Error("failed to moderate review", "review_id", id, "state", state, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if r := c.findReviewLocked(id); r != nil {
		r.SetState(state)
	}
	return nil
}

// EditComment rewrites a review's comment. Blank text is ignored.
func (c *Controller) EditComment(ctx context.Context, id int64, text string) error {
	if strings.TrimSpace(text) == "" {
		return c.checkSession()
	}
	release, err := c.begin(ReviewKey(id))
	if err != nil {
		return err
	}
	defer release()

	comment, err := c.reviews.EditComment(ctx, id, text)
	if errors.Is(err, service.ErrEmptyComment) {
		return nil
	}
	if err != nil {
		c.logger.Error("failed to edit review", "review_id", id, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if r := c.findReviewLocked(id); r != nil {
		r.Comment = comment
	}
	return nil
}

func (c *Controller) DeleteReview(ctx context.Context, id int64) error {
	release, err := c.begin(ReviewKey(id))
	if err != nil {
		return err
	}
	defer release()

	if err := c.reviews.Delete(ctx, id); err != nil {
		c.logger.Error("failed to delete review", "review_id", id, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.rows {
		if r.ID == id {
			c.rows = append(c.rows[:i:i], c.rows[i+1:]...)
			break
		}
	}
	return nil
}

// Upload stores a new gallery item and appends it locally.
func (c *Controller) Upload(ctx context.Context, u service.Upload) (*domain.GalleryItem, error) {
	release, err := c.begin(UploadKey)
	if err != nil {
		return nil, err
	}
	defer release()

	item, err := c.gallery.Upload(ctx, u)
	if err != nil {
		if !errors.Is(err, service.ErrValidation) {
			c.logger.Error("failed to upload gallery item", "file_name", u.FileName, "error", err)
		}
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
	cp := *item
	return &cp, nil
}

func (c *Controller) UpdateCaption(ctx context.Context, id int64, text string) error {
	release, err := c.begin(GalleryKey(id))
	if err != nil {
		return err
	}
	defer release()

	caption, err := c.gallery.UpdateCaption(ctx, id, text)
	if err != nil {
		c.logger.Error("failed to update caption", "item_id", id, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if it := c.findItemLocked(id); it != nil {
		it.Caption = caption
	}
	return nil
}

func (c *Controller) DeleteItem(ctx context.Context, id int64) error {
	release, err := c.begin(GalleryKey(id))
	if err != nil {
		return err
	}
	defer release()

	c.mu.Lock()
	it := c.findItemLocked(id)
	var target domain.GalleryItem
	if it != nil {
		target = *it
	}
	c.mu.Unlock()
	if it == nil {
		return ErrNotFound
	}

	if err := c.gallery.Delete(ctx, &target); err != nil {
		c.logger.Error("failed to delete gallery item", "item_id", id, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, g := range c.items {
		if g.ID == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			break
		}
	}
	return nil
}

// Reorder moves the source item to the target item's position. The new
// sequence is applied locally before it is persisted; if persisting fails the
// local sequence is reloaded from the backend and a *ReorderError returned.
func (c *Controller) Reorder(ctx context.Context, sourceID, targetID int64) error {
	if err := c.checkSession(); err != nil {
		return err
	}
	if sourceID == targetID {
		return nil
	}
	release, err := c.begin(ReorderKey)
	if err != nil {
		return err
	}
	defer release()

	c.mu.Lock()
	prev := c.items
	moved, ok := service.Move(prev, sourceID, targetID)
	if !ok {
		c.mu.Unlock()
		return ErrNotFound
	}
	c.items = moved
	pending := make([]*domain.GalleryItem, len(moved))
	for i, it := range moved {
		cp := *it
		pending[i] = &cp
	}
	c.mu.Unlock()

	if err := c.gallery.PersistOrder(ctx, pending); err != nil {
		c.logger.Error("failed to persist gallery order", "source_id", sourceID, "target_id", targetID, "error", err)

		fresh, ferr := c.gallery.List(ctx)
		c.mu.Lock()
		if ferr == nil {
			c.items = fresh
		} else {
			c.logger.Error("failed to reload gallery after reorder failure", "error", ferr)
			c.items = prev
		}
		c.mu.Unlock()
		return &ReorderError{Err: err, RefetchErr: ferr}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, it := range moved {
		it.DisplayOrder = i
	}
	return nil
}

func (c *Controller) findReviewLocked(id int64) *domain.Review {
	for _, r := range c.rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (c *Controller) findItemLocked(id int64) *domain.GalleryItem {
	for _, it := range c.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}
