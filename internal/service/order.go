package service

import (
	"context"
	"fmt"

	"github.com/ecologia-integral/ecosite/internal/domain"
)

// Move returns a copy of items with the source item removed and reinserted at
// the target item's position. Items between the two shift by one. It reports
// false, and returns items unchanged, when the ids are equal or not present.
func Move(items []*domain.GalleryItem, sourceID, targetID int64) ([]*domain.GalleryItem, bool) {
	if sourceID == targetID {
		return items, false
	}
	from, to := -1, -1
	for i, it := range items {
		switch it.ID {
		case sourceID:
			from = i
		case targetID:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return items, false
	}

	moved := make([]*domain.GalleryItem, 0, len(items))
	moved = append(moved, items[:from]...)
	moved = append(moved, items[from+1:]...)
	moved = append(moved[:to], append([]*domain.GalleryItem{items[from]}, moved[to:]...)...)
	return moved, true
}

// PersistOrder writes each item's index as its display order, one row at a
// time, stopping at the first failure. Rows before the failure keep their
// new order.
func (s *GalleryService) PersistOrder(ctx context.Context, items []*domain.GalleryItem) error {
	for i, it := range items {
		if err := s.items.UpdateDisplayOrder(ctx, it.ID, i); err != nil {
			return fmt.Errorf("failed to persist order of gallery item %d: %w", it.ID, err)
		}
	}
	s.logger.Info("gallery order persisted", "items", len(items))
	return nil
}
