package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecologia-integral/ecosite/internal/domain"
)

func newGalleryStore(t *testing.T) *GalleryStore {
	s := NewGalleryStore(openTestDB(t))
	s.now = steppingClock()
	return s
}

func TestGalleryStoreCreate(t *testing.T) {
	store := newGalleryStore(t)
	ctx := context.Background()

	caption := "Trilha da floresta"
	item, err := store.Create(ctx, GalleryInput{
		FileName:     "trilha.jpg",
		FileURL:      "/media/1700000000000-abc.jpg",
		FileType:     domain.MediaImage,
		Caption:      &caption,
		DisplayOrder: 0,
	})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, "trilha.jpg", item.FileName)
	assert.Equal(t, domain.MediaImage, item.FileType)
	require.NotNil(t, item.Caption)
	assert.Equal(t, caption, *item.Caption)
}

func TestGalleryStoreCreateWithoutCaption(t *testing.T) {
	store := newGalleryStore(t)

	item, err := store.Create(context.Background(), GalleryInput{
		FileName: "video.mp4",
		FileURL:  "/media/v.mp4",
		FileType: domain.MediaVideo,
	})
	require.NoError(t, err)
	assert.Nil(t, item.Caption)
	assert.True(t, item.IsVideo())
}

func TestGalleryStoreListByDisplayOrder(t *testing.T) {
	store := newGalleryStore(t)
	ctx := context.Background()

	c, err := store.Create(ctx, GalleryInput{FileName: "c.jpg", FileURL: "/media/c.jpg", FileType: domain.MediaImage, DisplayOrder: 2})
	require.NoError(t, err)
	a, err := store.Create(ctx, GalleryInput{FileName: "a.jpg", FileURL: "/media/a.jpg", FileType: domain.MediaImage, DisplayOrder: 0})
	require.NoError(t, err)
	b, err := store.Create(ctx, GalleryInput{FileName: "b.jpg", FileURL: "/media/b.jpg", FileType: domain.MediaImage, DisplayOrder: 1})
	require.NoError(t, err)

	items, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, []int64{items[0].ID, items[1].ID, items[2].ID})
}

func TestGalleryStoreMaxDisplayOrder(t *testing.T) {
	store := newGalleryStore(t)
	ctx := context.Background()

	maxOrder, err := store.MaxDisplayOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, maxOrder)

	_, err = store.Create(ctx, GalleryInput{FileName: "a.jpg", FileURL: "/media/a.jpg", FileType: domain.MediaImage, DisplayOrder: 4})
	require.NoError(t, err)

	maxOrder, err = store.MaxDisplayOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, maxOrder)
}

func TestGalleryStoreUpdateCaption(t *testing.T) {
	store := newGalleryStore(t)
	ctx := context.Background()

	item, err := store.Create(ctx, GalleryInput{FileName: "a.jpg", FileURL: "/media/a.jpg", FileType: domain.MediaImage})
	require.NoError(t, err)

	caption := "Nova legenda"
	require.NoError(t, store.UpdateCaption(ctx, item.ID, &caption))
	got, err := store.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nova legenda", got.CaptionText())

	require.NoError(t, store.UpdateCaption(ctx, item.ID, nil))
	got, err = store.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Caption)
}

func TestGalleryStoreUpdateDisplayOrder(t *testing.T) {
	store := newGalleryStore(t)
	ctx := context.Background()

	item, err := store.Create(ctx, GalleryInput{FileName: "a.jpg", FileURL: "/media/a.jpg", FileType: domain.MediaImage})
	require.NoError(t, err)

	require.NoError(t, store.UpdateDisplayOrder(ctx, item.ID, 7))
	got, err := store.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.DisplayOrder)

	assert.ErrorIs(t, store.UpdateDisplayOrder(ctx, 9999, 1), ErrNotFound)
}

func TestGalleryStoreDelete(t *testing.T) {
	store := newGalleryStore(t)
	ctx := context.Background()

	item, err := store.Create(ctx, GalleryInput{FileName: "a.jpg", FileURL: "/media/a.jpg", FileType: domain.MediaImage})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, item.ID))
	got, err := store.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, store.Delete(ctx, item.ID), ErrNotFound)
}
