package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ecologia-integral/ecosite/internal/blobstore"
	"github.com/ecologia-integral/ecosite/internal/domain"
	"github.com/ecologia-integral/ecosite/internal/store"
)

var errBackend = errors.New("backend unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) ReviewSubmitted(ctx context.Context, r *domain.Review) error {
	return m.Called(ctx, r).Error(0)
}

// fakeReviews records every call so tests can assert on backend traffic.
type fakeReviews struct {
	mu        sync.Mutex
	rows      map[int64]*domain.Review
	nextID    int64
	calls     []string
	createErr error
	updateErr error
}

func newFakeReviews() *fakeReviews {
	return &fakeReviews{rows: make(map[int64]*domain.Review)}
}

func (f *fakeReviews) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeReviews) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeReviews) Create(_ context.Context, in store.ReviewInput) (*domain.Review, error) {
	f.record("create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r := &domain.Review{
		ID:        f.nextID,
		Name:      in.Name,
		Age:       in.Age,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: time.Unix(f.nextID, 0).UTC(),
	}
	f.rows[r.ID] = r
	cp := *r
	return &cp, nil
}

func (f *fakeReviews) List(_ context.Context, filter store.ReviewFilter) ([]*domain.Review, error) {
	f.record("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Review
	for _, r := range f.rows {
		if filter.Approved != nil && r.Approved != *filter.Approved {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeReviews) SetModeration(_ context.Context, id int64, state domain.ModerationState) error {
	f.record("set_moderation")
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	r.SetState(state)
	return nil
}

func (f *fakeReviews) UpdateComment(_ context.Context, id int64, comment string) error {
	f.record("update_comment")
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Comment = comment
	return nil
}

func (f *fakeReviews) Delete(_ context.Context, id int64) error {
	f.record("delete")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

// orderUpdate is one recorded UpdateDisplayOrder call.
type orderUpdate struct {
	ID    int64
	Order int
}

type fakeGallery struct {
	mu           sync.Mutex
	rows         map[int64]*domain.GalleryItem
	nextID       int64
	calls        []string
	orderUpdates []orderUpdate
	createErr    error
	failOrderOn  int64
}

func newFakeGallery() *fakeGallery {
	return &fakeGallery{rows: make(map[int64]*domain.GalleryItem)}
}

func (f *fakeGallery) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeGallery) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeGallery) seed(names ...string) []*domain.GalleryItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.GalleryItem
	for i, name := range names {
		f.nextID++
		it := &domain.GalleryItem{
			ID:           f.nextID,
			FileName:     name,
			FileURL:      "http://media.test/media/" + name,
			FileType:     domain.MediaImage,
			DisplayOrder: i,
		}
		f.rows[it.ID] = it
		cp := *it
		out = append(out, &cp)
	}
	return out
}

func (f *fakeGallery) Create(_ context.Context, in store.GalleryInput) (*domain.GalleryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	it := &domain.GalleryItem{
		ID:           f.nextID,
		FileName:     in.FileName,
		FileURL:      in.FileURL,
		FileType:     in.FileType,
		Caption:      in.Caption,
		DisplayOrder: in.DisplayOrder,
	}
	f.rows[it.ID] = it
	cp := *it
	return &cp, nil
}

func (f *fakeGallery) List(_ context.Context) ([]*domain.GalleryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list")
	out := make([]*domain.GalleryItem, 0, len(f.rows))
	for _, it := range f.rows {
		cp := *it
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeGallery) MaxDisplayOrder(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("max_order")
	maxOrder := -1
	for _, it := range f.rows {
		if it.DisplayOrder > maxOrder {
			maxOrder = it.DisplayOrder
		}
	}
	return maxOrder, nil
}

func (f *fakeGallery) UpdateCaption(_ context.Context, id int64, caption *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update_caption")
	it, ok := f.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	it.Caption = caption
	return nil
}

func (f *fakeGallery) UpdateDisplayOrder(_ context.Context, id int64, order int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update_order")
	if f.failOrderOn == id {
		return errBackend
	}
	it, ok := f.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	it.DisplayOrder = order
	f.orderUpdates = append(f.orderUpdates, orderUpdate{ID: id, Order: order})
	return nil
}

func (f *fakeGallery) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete")
	if _, ok := f.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

// memBlobs is an in-memory blobstore.BlobStore.
type memBlobs struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	calls     []string
	putErr    error
	deleteErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: make(map[string][]byte)}
}

func (m *memBlobs) Put(_ context.Context, key, _ string, r io.Reader, _ int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "put")
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.blobs[key] = data
	return nil
}

func (m *memBlobs) PublicURL(key string) string {
	return "http://media.test/media/" + key
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "delete")
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.blobs[key]; !ok {
		return blobstore.ErrNotFound
	}
	delete(m.blobs, key)
	return nil
}

func (m *memBlobs) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *memBlobs) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// stubCaptioner returns a fixed suggestion.
type stubCaptioner struct {
	caption string
	err     error
	calls   int
}

func (s *stubCaptioner) Suggest(_ context.Context, r io.Reader, _ string) (string, error) {
	s.calls++
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return s.caption, s.err
}

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
	mp4Header  = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom")
	m4vHeader  = []byte("\x00\x00\x00\x18ftypM4V \x00\x00\x00\x01M4V isom")
	movHeader  = []byte("\x00\x00\x00\x14ftypqt  \x00\x00\x02\x00qt  ")
	// apngHeader is a PNG whose first chunk after IHDR is acTL.
	apngHeader = []byte("\x89PNG\r\n\x1a\n" +
		"\x00\x00\x00\x0dIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89" +
		"\x00\x00\x00\x08acTL\x00\x00\x00\x02\x00\x00\x00\x00\xf3\x8d\x93\x70")
)

func newUpload(name, contentType string, body []byte) Upload {
	return Upload{
		FileName:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
	}
}
