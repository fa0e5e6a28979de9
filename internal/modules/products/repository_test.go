package products

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/structura/internal/database"
	"github.com/aristath/structura/internal/modules/calendar"
	"github.com/aristath/structura/internal/modules/graph"
	"github.com/aristath/structura/internal/modules/payoff"
	"github.com/aristath/structura/internal/modules/schedule"
	testutil "github.com/aristath/structura/internal/testing"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	schema, err := database.Schema("products")
	require.NoError(t, err)
	require.NoError(t, database.ApplySchema(db, schema))
	return db
}

func newDraft(t *testing.T, variant payoff.Variant) *Draft {
	t.Helper()
	params, err := payoff.Decode(variant, payoff.Values{payoff.KeyMemoryCoupon: true, payoff.KeyStrike: 95.0})
	require.NoError(t, err)

	created := time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)
	d := &Draft{
		ID:          "draft-1",
		Name:        "Phoenix on SX5E",
		Dates:       testutil.NewProductDatesFixture(),
		Config:      schedule.DefaultConfig(),
		Underlyings: []string{"SX5E", "SPX"},
		Regions:     calendar.RegionSet{calendar.RegionUS, calendar.RegionEU},
		Variant:     variant,
		Params:      params,
		Schedule:    schedule.NewSchedule(),
		CreatedAt:   created,
		UpdatedAt:   created.Add(time.Hour),
	}
	schedule.Load(&d.Schedule, testutil.NewExtractedScheduleFixture())
	if variant == payoff.Generic {
		d.Graph = graph.Default()
	}
	return d
}

func assertSameDraft(t *testing.T, expected, actual *Draft) {
	t.Helper()
	assert.Equal(t, expected.ID, actual.ID)
	assert.Equal(t, expected.Name, actual.Name)
	assert.Equal(t, expected.Dates, actual.Dates)
	assert.Equal(t, expected.Config, actual.Config)
	assert.Equal(t, expected.Underlyings, actual.Underlyings)
	assert.Equal(t, expected.Regions, actual.Regions)
	assert.Equal(t, expected.Variant, actual.Variant)
	assert.Equal(t, expected.Params, actual.Params)
	assert.Equal(t, expected.Schedule, actual.Schedule)
	assert.Equal(t, expected.Graph, actual.Graph)
	assert.True(t, expected.CreatedAt.Equal(actual.CreatedAt))
	assert.True(t, expected.UpdatedAt.Equal(actual.UpdatedAt))
}

func TestRepository_SaveGetRoundTrip(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	ctx := context.Background()

	for _, variant := range []payoff.Variant{payoff.Phoenix, payoff.Generic} {
		t.Run(string(variant), func(t *testing.T) {
			d := newDraft(t, variant)
			require.NoError(t, repo.Save(ctx, d))

			loaded, err := repo.Get(ctx, d.ID)
			require.NoError(t, err)
			assertSameDraft(t, d, loaded)
		})
	}
}

func TestRepository_SaveUpdatesExisting(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	ctx := context.Background()

	d := newDraft(t, payoff.Phoenix)
	require.NoError(t, repo.Save(ctx, d))

	d.Name = "Renamed"
	d.Schedule = schedule.NewSchedule()
	d.UpdatedAt = d.UpdatedAt.Add(time.Minute)
	require.NoError(t, repo.Save(ctx, d))

	summaries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Renamed", summaries[0].Name)
	assert.Equal(t, schedule.StateEmpty, summaries[0].State)
	assert.Equal(t, 0, summaries[0].Periods)
	assert.False(t, summaries[0].GenerationLocked)
}

func TestRepository_List(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	ctx := context.Background()

	empty, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	older := newDraft(t, payoff.Phoenix)
	newer := newDraft(t, payoff.Participation)
	newer.ID = "draft-2"
	newer.UpdatedAt = older.UpdatedAt.Add(24 * time.Hour)
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	summaries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "draft-2", summaries[0].ID)
	assert.Equal(t, payoff.Participation, summaries[0].Variant)
	assert.Equal(t, schedule.StateEdited, summaries[1].State)
	assert.True(t, summaries[1].GenerationLocked)
	assert.Equal(t, 3, summaries[1].Periods)
	assert.True(t, older.UpdatedAt.Equal(summaries[1].UpdatedAt))
}

func TestRepository_NotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), ErrNotFound)

	d := newDraft(t, payoff.Phoenix)
	require.NoError(t, repo.Save(ctx, d))
	require.NoError(t, repo.Delete(ctx, d.ID))
	_, err = repo.Get(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_ModerncDatabase(t *testing.T) {
	db := testutil.NewTestDB(t, "products")
	repo := NewRepository(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	d := newDraft(t, payoff.Himalaya)
	require.NoError(t, repo.Save(ctx, d))

	loaded, err := repo.Get(ctx, d.ID)
	require.NoError(t, err)
	assertSameDraft(t, d, loaded)
}
