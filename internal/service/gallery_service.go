package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ecologia-integral/ecosite/internal/blobstore"
	"github.com/ecologia-integral/ecosite/internal/captioner"
	"github.com/ecologia-integral/ecosite/internal/domain"
	"github.com/ecologia-integral/ecosite/internal/store"
)

// galleryRepository is the subset of store.GalleryStore that GalleryService requires.
type galleryRepository interface {
	Create(ctx context.Context, in store.GalleryInput) (*domain.GalleryItem, error)
	List(ctx context.Context) ([]*domain.GalleryItem, error)
	MaxDisplayOrder(ctx context.Context) (int, error)
	UpdateCaption(ctx context.Context, id int64, caption *string) error
	UpdateDisplayOrder(ctx context.Context, id int64, order int) error
	Delete(ctx context.Context, id int64) error
}

// Upload is one file received from the admin upload form.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
	Caption     string
}

const captionTimeout = 20 * time.Second

type GalleryService struct {
	items     galleryRepository
	blobs     blobstore.BlobStore
	captioner captioner.Captioner
	logger    *slog.Logger
	now       func() time.Time
}

// NewGalleryService wires the gallery workflow. capt may be nil to disable
// caption suggestions.
func NewGalleryService(
	items galleryRepository,
	blobs blobstore.BlobStore,
	capt captioner.Captioner,
	logger *slog.Logger,
) *GalleryService {
	return &GalleryService{
		items:     items,
		blobs:     blobs,
		captioner: capt,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns the gallery in display order.
func (s *GalleryService) List(ctx context.Context) ([]*domain.GalleryItem, error) {
	return s.items.List(ctx)
}

// Upload validates the file, stores the blob and appends a gallery row after
// the current last item. If the row cannot be written the blob is removed.
func (s *GalleryService) Upload(ctx context.Context, u Upload) (*domain.GalleryItem, error) {
	contentType, kind, err := ValidateUpload(u)
	if err != nil {
		return nil, err
	}

	key := blobstore.NewKey(u.FileName, s.now())
	s.logger.Info("gallery upload started", "key", key, "content_type", contentType, "bytes", u.Size)

	if err := s.blobs.Put(ctx, key, contentType, u.Body, u.Size); err != nil {
		return nil, fmt.Errorf("failed to store gallery file: %w", err)
	}
	url := s.blobs.PublicURL(key)

	caption := strings.TrimSpace(u.Caption)
	if caption == "" && kind == domain.MediaImage && s.captioner != nil {
		caption = s.suggestCaption(ctx, u.Body, contentType, key)
	}

	maxOrder, err := s.items.MaxDisplayOrder(ctx)
	if err != nil {
		s.discardBlob(key)
		return nil, fmt.Errorf("failed to read gallery order: %w", err)
	}

	item, err := s.items.Create(ctx, store.GalleryInput{
		FileName:     u.FileName,
		FileURL:      url,
		FileType:     kind,
		Caption:      optional(caption),
		DisplayOrder: maxOrder + 1,
	})
	if err != nil {
		s.discardBlob(key)
		return nil, fmt.Errorf("failed to create gallery item: %w", err)
	}
	s.logger.Info("gallery item created", "item_id", item.ID, "display_order", item.DisplayOrder)
	return item, nil
}

func (s *GalleryService) suggestCaption(ctx context.Context, body io.ReadSeeker, contentType, key string) string {
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		s.logger.Warn("failed to rewind upload for captioning", "key", key, "error", err)
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, captionTimeout)
	defer cancel()

	caption, err := s.captioner.Suggest(ctx, body, contentType)
	if err != nil {
		s.logger.Warn("caption suggestion failed", "key", key, "error", err)
		return ""
	}
	s.logger.Debug("caption suggested", "key", key, "caption", caption)
	return caption
}

// discardBlob removes a blob whose row was never written.
func (s *GalleryService) discardBlob(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Error("failed to delete orphaned gallery file", "key", key, "error", err)
	}
}

// UpdateCaption stores the trimmed caption, clearing it when empty, and
// returns the stored value.
func (s *GalleryService) UpdateCaption(ctx context.Context, id int64, text string) (*string, error) {
	caption := optional(strings.TrimSpace(text))
	if err := s.items.UpdateCaption(ctx, id, caption); err != nil {
		return nil, fmt.Errorf("failed to update caption of gallery item %d: %w", id, err)
	}
	s.logger.Info("gallery caption updated", "item_id", id)
	return caption, nil
}

// Delete removes the item's blob on a best-effort basis and then its row.
// Only a failure to delete the row is returned.
func (s *GalleryService) Delete(ctx context.Context, item *domain.GalleryItem) error {
	key, err := blobstore.KeyFromURL(item.FileURL)
	if err != nil {
		s.logger.Warn("cannot derive blob key", "item_id", item.ID, "url", item.FileURL, "error", err)
	} else if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		s.logger.Warn("failed to delete gallery file", "item_id", item.ID, "key", key, "error", err)
	}

	if err := s.items.Delete(ctx, item.ID); err != nil {
		return fmt.Errorf("failed to delete gallery item %d: %w", item.ID, err)
	}
	s.logger.Info("gallery item deleted", "item_id", item.ID)
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
