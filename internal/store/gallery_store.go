package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecologia-integral/ecosite/internal/domain"
)

type GalleryInput struct {
	FileName     string
	FileURL      string
	FileType     domain.MediaKind
	Caption      *string
	DisplayOrder int
}

type GalleryStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewGalleryStore(db *sql.DB) *GalleryStore {
	return &GalleryStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const galleryColumns = `id, file_name, file_url, file_type, caption, created_at, display_order`

func (s *GalleryStore) Create(ctx context.Context, in GalleryInput) (*domain.GalleryItem, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO gallery (file_name, file_url, file_type, caption, created_at, display_order)
		VALUES (?, ?, ?, ?, ?, ?)
	`, in.FileName, in.FileURL, string(in.FileType), in.Caption, s.now(), in.DisplayOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to create gallery item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *GalleryStore) GetByID(ctx context.Context, id int64) (*domain.GalleryItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+galleryColumns+` FROM gallery WHERE id = ?`, id)
	item, err := scanGalleryItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gallery item: %w", err)
	}
	return item, nil
}

// List returns every item in display order. Equal orders fall back to id.
func (s *GalleryStore) List(ctx context.Context) ([]*domain.GalleryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+galleryColumns+` FROM gallery ORDER BY display_order ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var items []*domain.GalleryItem
	for rows.Next() {
		item, err := scanGalleryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gallery item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gallery items: %w", err)
	}

	return items, nil
}

// MaxDisplayOrder returns the highest display order in use, or -1 when the
// gallery is empty.
func (s *GalleryStore) MaxDisplayOrder(ctx context.Context) (int, error) {
	var maxOrder sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(display_order) FROM gallery`).Scan(&maxOrder); err != nil {
		return 0, fmt.Errorf("failed to get max display order: %w", err)
	}
	if !maxOrder.Valid {
		return -1, nil
	}
	return int(maxOrder.Int64), nil
}

// UpdateCaption sets the caption; nil clears it.
func (s *GalleryStore) UpdateCaption(ctx context.Context, id int64, caption *string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE gallery SET caption = ? WHERE id = ?
	`, caption, id)
	if err != nil {
		return fmt.Errorf("failed to update caption: %w", err)
	}
	return expectOneRow(result, "gallery item")
}

func (s *GalleryStore) UpdateDisplayOrder(ctx context.Context, id int64, order int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE gallery SET display_order = ? WHERE id = ?
	`, order, id)
	if err != nil {
		return fmt.Errorf("failed to update display order: %w", err)
	}
	return expectOneRow(result, "gallery item")
}

func (s *GalleryStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM gallery WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete gallery item: %w", err)
	}
	return expectOneRow(result, "gallery item")
}

func scanGalleryItem(sc scanner) (*domain.GalleryItem, error) {
	item := &domain.GalleryItem{}
	var fileType string
	var caption sql.NullString
	err := sc.Scan(&item.ID, &item.FileName, &item.FileURL, &fileType, &caption, &item.CreatedAt, &item.DisplayOrder)
	if err != nil {
		return nil, err
	}
	item.FileType = domain.MediaKind(fileType)
	if caption.Valid {
		c := caption.String
		item.Caption = &c
	}
	return item, nil
}
