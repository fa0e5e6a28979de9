package products

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/structura/internal/modules/calendar"
	"github.com/aristath/structura/internal/modules/graph"
	"github.com/aristath/structura/internal/modules/payoff"
	"github.com/aristath/structura/internal/modules/schedule"
)

// Repository stores drafts in the products table of products.db.
// The aggregate is a msgpack payload; listing columns are kept beside it.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new products repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "products").Logger(),
	}
}

// record is the persisted form of a Draft. Params travel as their bag.
type record struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Dates       schedule.ProductDates `json:"dates"`
	Config      schedule.Config       `json:"config"`
	Underlyings []string              `json:"underlyings"`
	Regions     []string              `json:"regions"`
	Variant     string                `json:"payoffVariant"`
	Params      payoff.Values         `json:"structureParams"`
	Schedule    schedule.Schedule     `json:"schedule"`
	Graph       graph.Graph           `json:"componentGraph"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

func encodeDraft(d *Draft) ([]byte, error) {
	regions := make([]string, len(d.Regions))
	for i, r := range d.Regions {
		regions[i] = string(r)
	}
	rec := record{
		ID:          d.ID,
		Name:        d.Name,
		Dates:       d.Dates,
		Config:      d.Config,
		Underlyings: d.Underlyings,
		Regions:     regions,
		Variant:     string(d.Variant),
		Params:      d.Params.Values(),
		Schedule:    d.Schedule,
		Graph:       d.Graph,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(&rec); err != nil {
		return nil, fmt.Errorf("failed to encode draft %s: %w", d.ID, err)
	}
	return buf.Bytes(), nil
}

func decodeDraft(payload []byte) (*Draft, error) {
	var rec record
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}

	variant, err := payoff.ParseVariant(rec.Variant)
	if err != nil {
		return nil, err
	}
	params, err := payoff.Decode(variant, rec.Params)
	if err != nil {
		return nil, err
	}

	regions := make(calendar.RegionSet, 0, len(rec.Regions))
	for _, r := range rec.Regions {
		regions = append(regions, calendar.Region(r))
	}
	if rec.Schedule.Periods == nil {
		rec.Schedule.Periods = []schedule.ObservationPeriod{}
	}
	if rec.Underlyings == nil {
		rec.Underlyings = []string{}
	}

	return &Draft{
		ID:          rec.ID,
		Name:        rec.Name,
		Dates:       rec.Dates,
		Config:      rec.Config,
		Underlyings: rec.Underlyings,
		Regions:     regions,
		Variant:     variant,
		Params:      params,
		Schedule:    rec.Schedule,
		Graph:       rec.Graph,
		CreatedAt:   rec.CreatedAt.UTC(),
		UpdatedAt:   rec.UpdatedAt.UTC(),
	}, nil
}

// Save inserts or replaces a draft.
func (r *Repository) Save(ctx context.Context, d *Draft) error {
	payload, err := encodeDraft(d)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, variant, schedule_state, generation_locked, periods, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			variant = excluded.variant,
			schedule_state = excluded.schedule_state,
			generation_locked = excluded.generation_locked,
			periods = excluded.periods,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, d.ID, d.Name, string(d.Variant), string(d.Schedule.State), boolToInt(d.Schedule.GenerationLocked),
		len(d.Schedule.Periods), payload, d.CreatedAt.UnixMilli(), d.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save product %s: %w", d.ID, err)
	}
	return nil
}

// Get loads a draft by id.
func (r *Repository) Get(ctx context.Context, id string) (*Draft, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, "SELECT payload FROM products WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return decodeDraft(payload)
}

// List returns every draft, most recently updated first.
func (r *Repository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, variant, schedule_state, generation_locked, periods, created_at, updated_at
		FROM products
		ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var (
			s                    Summary
			variant, state       string
			locked               int
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&s.ID, &s.Name, &variant, &state, &locked, &s.Periods, &createdAt, &updatedAt); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan product row")
			continue
		}
		s.Variant = payoff.Variant(variant)
		s.State = schedule.State(state)
		s.GenerationLocked = locked != 0
		s.CreatedAt = time.UnixMilli(createdAt).UTC()
		s.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return summaries, nil
}

// Delete removes a draft.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
