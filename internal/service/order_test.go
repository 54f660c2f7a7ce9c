package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecologia-integral/ecosite/internal/domain"
)

func names(items []*domain.GalleryItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.FileName
	}
	return out
}

func TestMove(t *testing.T) {
	items := []*domain.GalleryItem{
		{ID: 1, FileName: "A"},
		{ID: 2, FileName: "B"},
		{ID: 3, FileName: "C"},
		{ID: 4, FileName: "D"},
	}

	tests := []struct {
		name   string
		source int64
		target int64
		want   []string
	}{
		{"last to first", 3, 1, []string{"C", "A", "B", "D"}},
		{"first to last", 1, 4, []string{"B", "C", "D", "A"}},
		{"forward by one", 1, 2, []string{"B", "A", "C", "D"}},
		{"backward by one", 3, 2, []string{"A", "C", "B", "D"}},
		{"middle forward", 2, 4, []string{"A", "C", "D", "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Move(items, tt.source, tt.target)
			require.True(t, ok)
			assert.Equal(t, tt.want, names(got))
			assert.Equal(t, []string{"A", "B", "C", "D"}, names(items), "input must not change")
		})
	}
}

func TestMove_NoOp(t *testing.T) {
	items := []*domain.GalleryItem{{ID: 1, FileName: "A"}, {ID: 2, FileName: "B"}}

	_, ok := Move(items, 1, 1)
	assert.False(t, ok)

	_, ok = Move(items, 1, 99)
	assert.False(t, ok)

	_, ok = Move(items, 99, 1)
	assert.False(t, ok)
}

func TestMove_Idempotent(t *testing.T) {
	items := []*domain.GalleryItem{{ID: 1, FileName: "A"}, {ID: 2, FileName: "B"}, {ID: 3, FileName: "C"}}

	once, ok := Move(items, 3, 1)
	require.True(t, ok)
	// C now occupies the target slot; moving it onto itself is a no-op.
	_, ok = Move(once, 3, 3)
	assert.False(t, ok)
}

func TestPersistOrder_ThreeItemScenario(t *testing.T) {
	svc, items, _ := newTestGalleryService(t)
	seeded := items.seed("A", "B", "C")

	moved, ok := Move(seeded, seeded[2].ID, seeded[0].ID)
	require.True(t, ok)
	assert.Equal(t, []string{"C", "A", "B"}, names(moved))

	require.NoError(t, svc.PersistOrder(context.Background(), moved))

	assert.Equal(t, []orderUpdate{
		{ID: seeded[2].ID, Order: 0},
		{ID: seeded[0].ID, Order: 1},
		{ID: seeded[1].ID, Order: 2},
	}, items.orderUpdates)

	listed, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, names(listed))
	for i, it := range listed {
		assert.Equal(t, i, it.DisplayOrder)
	}
}

func TestPersistOrder_StopsAtFirstFailure(t *testing.T) {
	svc, items, _ := newTestGalleryService(t)
	seeded := items.seed("A", "B", "C")
	items.failOrderOn = seeded[1].ID

	err := svc.PersistOrder(context.Background(), []*domain.GalleryItem{seeded[2], seeded[1], seeded[0]})
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, 2, countCalls(items.Calls(), "update_order"))
	assert.Equal(t, []orderUpdate{{ID: seeded[2].ID, Order: 0}}, items.orderUpdates)
}
