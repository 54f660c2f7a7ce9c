package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecologia-integral/ecosite/internal/db"
	"github.com/ecologia-integral/ecosite/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// steppingClock returns a clock that advances one second on every call so
// created_at ordering in tests is deterministic.
func steppingClock() func() time.Time {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func newReviewStore(t *testing.T) *ReviewStore {
	s := NewReviewStore(openTestDB(t))
	s.now = steppingClock()
	return s
}

func TestReviewStoreCreate(t *testing.T) {
	store := newReviewStore(t)
	ctx := context.Background()

	review, err := store.Create(ctx, ReviewInput{Name: "Ana", Age: 12, Rating: 5, Comment: "Adorei o lago!"})
	require.NoError(t, err)
	assert.NotZero(t, review.ID)
	assert.Equal(t, "Ana", review.Name)
	assert.Equal(t, 12, review.Age)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, "Adorei o lago!", review.Comment)
	assert.False(t, review.Approved)
	assert.False(t, review.Rejected)
	assert.False(t, review.CreatedAt.IsZero())
}

func TestReviewStoreGetByID_NotFound(t *testing.T) {
	store := newReviewStore(t)

	review, err := store.GetByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, review)
}

func TestReviewStoreListApprovedNewestFirst(t *testing.T) {
	store := newReviewStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, ReviewInput{Name: "Bia", Age: 10, Rating: 4, Comment: "Legal"})
	require.NoError(t, err)
	pending, err := store.Create(ctx, ReviewInput{Name: "Caio", Age: 11, Rating: 3, Comment: "Ok"})
	require.NoError(t, err)
	rejected, err := store.Create(ctx, ReviewInput{Name: "Duda", Age: 13, Rating: 1, Comment: "Spam"})
	require.NoError(t, err)
	second, err := store.Create(ctx, ReviewInput{Name: "Enzo", Age: 14, Rating: 5, Comment: "Demais"})
	require.NoError(t, err)

	require.NoError(t, store.SetModeration(ctx, first.ID, domain.StateApproved))
	require.NoError(t, store.SetModeration(ctx, second.ID, domain.StateApproved))
	require.NoError(t, store.SetModeration(ctx, rejected.ID, domain.StateRejected))

	approved := true
	reviews, err := store.List(ctx, ReviewFilter{Approved: &approved})
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, second.ID, reviews[0].ID)
	assert.Equal(t, first.ID, reviews[1].ID)

	all, err := store.List(ctx, ReviewFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, pending.ID, all[2].ID)

	oldest, err := store.List(ctx, ReviewFilter{OldestFirst: true})
	require.NoError(t, err)
	assert.Equal(t, first.ID, oldest[0].ID)
}

func TestReviewStoreSetModerationOverwrites(t *testing.T) {
	store := newReviewStore(t)
	ctx := context.Background()

	review, err := store.Create(ctx, ReviewInput{Name: "Ana", Age: 12, Rating: 5, Comment: "Bom"})
	require.NoError(t, err)

	require.NoError(t, store.SetModeration(ctx, review.ID, domain.StateApproved))
	require.NoError(t, store.SetModeration(ctx, review.ID, domain.StateRejected))

	got, err := store.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.False(t, got.Approved)
	assert.True(t, got.Rejected)

	require.NoError(t, store.SetModeration(ctx, review.ID, domain.StateApproved))
	got, err = store.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.True(t, got.Approved)
	assert.False(t, got.Rejected)

	require.NoError(t, store.SetModeration(ctx, review.ID, domain.StatePending))
	got, err = store.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePending, got.State())
}

func TestReviewStoreUpdateComment(t *testing.T) {
	store := newReviewStore(t)
	ctx := context.Background()

	review, err := store.Create(ctx, ReviewInput{Name: "Ana", Age: 12, Rating: 5, Comment: "Bom"})
	require.NoError(t, err)

	require.NoError(t, store.UpdateComment(ctx, review.ID, "Muito bom"))

	got, err := store.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, "Muito bom", got.Comment)
}

func TestReviewStoreDelete(t *testing.T) {
	store := newReviewStore(t)
	ctx := context.Background()

	review, err := store.Create(ctx, ReviewInput{Name: "Ana", Age: 12, Rating: 5, Comment: "Bom"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, review.ID))

	got, err := store.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReviewStoreMissingRow(t *testing.T) {
	store := newReviewStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Delete(ctx, 42), ErrNotFound)
	assert.ErrorIs(t, store.UpdateComment(ctx, 42, "x"), ErrNotFound)
	assert.ErrorIs(t, store.SetModeration(ctx, 42, domain.StateApproved), ErrNotFound)
}
