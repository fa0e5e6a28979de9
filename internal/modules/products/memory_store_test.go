package products

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/structura/internal/modules/payoff"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	d := newDraft(t, payoff.Phoenix)
	require.NoError(t, store.Save(ctx, d))

	got, err := store.Get(ctx, d.ID)
	require.NoError(t, err)
	assertSameDraft(t, d, got)

	// Stored drafts are copies
	got.Name = "Changed"
	again, err := store.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Phoenix on SX5E", again.Name)

	newer := newDraft(t, payoff.Generic)
	newer.ID = "draft-2"
	newer.UpdatedAt = d.UpdatedAt.Add(time.Minute)
	require.NoError(t, store.Save(ctx, newer))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "draft-2", list[0].ID)
	assert.Equal(t, payoff.Generic, list[0].Variant)
	assert.Equal(t, len(d.Schedule.Periods), list[1].Periods)
	assert.True(t, list[1].GenerationLocked)

	require.NoError(t, store.Delete(ctx, d.ID))
	_, err = store.Get(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, d.ID), ErrNotFound)
}
