package products

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/structura/internal/events"
	"github.com/aristath/structura/internal/modules/calendar"
	"github.com/aristath/structura/internal/modules/graph"
	"github.com/aristath/structura/internal/modules/payoff"
	"github.com/aristath/structura/internal/modules/schedule"
)

const module = "products"

// Store persists drafts.
type Store interface {
	Save(ctx context.Context, d *Draft) error
	Get(ctx context.Context, id string) (*Draft, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}

// EventEmitter publishes domain events.
type EventEmitter interface {
	Emit(module string, data events.EventData)
}

// Options are the service defaults for new drafts.
type Options struct {
	Regions        calendar.RegionSet
	ValueDelayDays int
}

// Service runs editor operations against stored drafts. Every mutation loads
// the draft, applies the change through the schedule engine, saves and emits.
// Mutations are serialized; each draft is assumed to have a single editor.
type Service struct {
	store   Store
	emitter EventEmitter
	opts    Options
	now     func() time.Time
	mu      sync.Mutex
	pending []events.EventData // emitted once the mutation is saved
	log     zerolog.Logger
}

// NewService creates a new products service.
func NewService(store Store, emitter EventEmitter, opts Options, log zerolog.Logger) *Service {
	if opts.ValueDelayDays <= 0 {
		opts.ValueDelayDays = schedule.DefaultDelayDays
	}
	return &Service{
		store:   store,
		emitter: emitter,
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		log:     log.With().Str("service", "products").Logger(),
	}
}

// Create builds a draft from the request, generates its schedule and stores it.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Draft, error) {
	variant := payoff.Phoenix
	if req.Variant != "" {
		v, err := payoff.ParseVariant(req.Variant)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		variant = v
	}
	params, err := payoff.Decode(variant, req.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	regions, err := s.regions(req.Regions)
	if err != nil {
		return nil, err
	}

	cfg := schedule.DefaultConfig()
	if req.Config != nil {
		cfg = req.Config.Normalize()
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Untitled product"
	}

	now := s.now()
	d := &Draft{
		ID:          uuid.NewString(),
		Name:        name,
		Config:      cfg,
		Underlyings: cleanUnderlyings(req.Underlyings),
		Regions:     regions,
		Variant:     variant,
		Params:      params,
		Schedule:    schedule.NewSchedule(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	d.Dates = s.normalizeDates(req.Dates, regions)
	if variant == payoff.Generic {
		d.Graph = graph.Default()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.emitTransition(d, s.builder(d).Refresh(&d.Schedule, d.Inputs()), "create", 0)
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}

	s.log.Info().Str("product_id", d.ID).Str("variant", string(variant)).Int("periods", len(d.Schedule.Periods)).Msg("Product created")
	return d, nil
}

// Get returns a draft.
func (s *Service) Get(ctx context.Context, id string) (*Draft, error) {
	return s.store.Get(ctx, id)
}

// List returns draft summaries.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.store.List(ctx)
}

// Delete removes a draft.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("product_id", id).Msg("Product deleted")
	s.emitter.Emit(module, &events.ProductData{Type: events.ProductDeleted, ProductID: id})
	return nil
}

// Rename changes the display name.
func (s *Service) Rename(ctx context.Context, id, name string) (*Draft, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return s.mutate(ctx, id, func(d *Draft, _ *schedule.Builder) error {
		d.Name = name
		return nil
	})
}

// UpdateDates replaces the product dates. A missing or out-of-range value date
// is derived from the trade date. Locked schedules are left untouched.
func (s *Service) UpdateDates(ctx context.Context, id string, dates schedule.ProductDates) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft, b *schedule.Builder) error {
		d.Dates = s.normalizeDates(dates, d.Regions)
		s.emitTransition(d, b.Refresh(&d.Schedule, d.Inputs()), "dates", 0)
		return nil
	})
}

// UpdateConfig replaces the schedule configuration. A real change lifts the
// generation lock and regenerates.
func (s *Service) UpdateConfig(ctx context.Context, id string, cfg schedule.Config) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft, b *schedule.Builder) error {
		previous := d.Config
		d.Config = cfg.Normalize()
		s.emitTransition(d, b.ApplyConfig(&d.Schedule, previous, d.Inputs()), "config", 0)
		return nil
	})
}

// SetUnderlyings replaces the basket.
func (s *Service) SetUnderlyings(ctx context.Context, id string, underlyings []string) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft, b *schedule.Builder) error {
		d.Underlyings = cleanUnderlyings(underlyings)
		s.emitTransition(d, b.Refresh(&d.Schedule, d.Inputs()), "underlyings", 0)
		return nil
	})
}

// SetRegions replaces the holiday regions used for date adjustment.
func (s *Service) SetRegions(ctx context.Context, id, regions string) (*Draft, error) {
	set, err := s.regions(regions)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(d *Draft, _ *schedule.Builder) error {
		d.Regions = set
		s.emitTransition(d, s.builder(d).Refresh(&d.Schedule, d.Inputs()), "regions", 0)
		return nil
	})
}

// SwitchVariant changes the payoff family. Parameters the new family does not
// recognize are dropped; the schedule follows the new layout unless locked.
func (s *Service) SwitchVariant(ctx context.Context, id, variant string) (*Draft, error) {
	to, err := payoff.ParseVariant(variant)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.mutate(ctx, id, func(d *Draft, b *schedule.Builder) error {
		from := d.Variant
		if from == to {
			return nil
		}
		params, err := payoff.Switch(d.Params, to)
		if err != nil {
			return err
		}

		dropped := droppedKeys(d.Params, to)
		d.Variant, d.Params = to, params
		if to == payoff.Generic && d.Graph.Empty() {
			d.Graph = graph.Default()
		}

		s.log.Info().Str("product_id", d.ID).Str("from", string(from)).Str("to", string(to)).Strs("dropped", dropped).Msg("Payoff variant switched")
		s.pending = append(s.pending, &events.VariantSwitchedData{ProductID: d.ID, From: string(from), To: string(to), DroppedKeys: dropped})
		s.emitTransition(d, b.Refresh(&d.Schedule, d.Inputs()), "variant", 0)
		return nil
	})
}

// UpdateParams merges parameter changes. Unrecognized keys are ignored and
// out-of-range values clamped.
func (s *Service) UpdateParams(ctx context.Context, id string, changes payoff.Values) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft, _ *schedule.Builder) error {
		params, err := payoff.Update(d.Params, changes)
		if err != nil {
			return err
		}
		d.Params = params
		return nil
	})
}

// LoadSchedule installs an externally extracted schedule and locks generation.
func (s *Service) LoadSchedule(ctx context.Context, id string, periods []schedule.ObservationPeriod) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft, _ *schedule.Builder) error {
		s.emitTransition(d, schedule.Load(&d.Schedule, periods), "load", 0)
		return nil
	})
}

// EditPeriod applies a manual override to one row.
func (s *Service) EditPeriod(ctx context.Context, id string, periodIndex int, edit schedule.PeriodEdit) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft, b *schedule.Builder) error {
		if err := b.EditPeriod(&d.Schedule, periodIndex, edit, d.Inputs()); err != nil {
			return err
		}
		if !edit.Empty() {
			s.emitTransition(d, schedule.TransitionEdited, "edit", periodIndex)
		}
		return nil
	})
}

// DeletePeriod removes one row.
func (s *Service) DeletePeriod(ctx context.Context, id string, periodIndex int) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft, _ *schedule.Builder) error {
		if err := schedule.DeletePeriod(&d.Schedule, periodIndex); err != nil {
			return err
		}
		s.emitTransition(d, schedule.TransitionEdited, "delete", periodIndex)
		return nil
	})
}

// AppendPeriod adds a row one frequency interval after the last.
func (s *Service) AppendPeriod(ctx context.Context, id string) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft, b *schedule.Builder) error {
		p, err := b.AppendPeriod(&d.Schedule, d.Inputs())
		if err != nil {
			return err
		}
		s.emitTransition(d, schedule.TransitionEdited, "append", p.PeriodIndex)
		return nil
	})
}

// InsertPeriod adds a row on an explicit date.
func (s *Service) InsertPeriod(ctx context.Context, id string, date calendar.Date) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft, b *schedule.Builder) error {
		p, err := b.InsertPeriod(&d.Schedule, date, d.Inputs())
		if err != nil {
			return err
		}
		s.emitTransition(d, schedule.TransitionEdited, "insert", p.PeriodIndex)
		return nil
	})
}

// AddNode adds a component graph node.
func (s *Service) AddNode(ctx context.Context, id string, req NodeRequest) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft, _ *schedule.Builder) error {
		if d.Variant != payoff.Generic {
			return ErrNotGeneric
		}
		node, err := graph.NewNode(req.Type, req.Column, req.Value)
		if err != nil {
			return err
		}
		if req.ParentID != "" {
			branch := req.Branch
			if branch == "" {
				branch = "then"
			}
			_, err = d.Graph.AddToBranch(req.ParentID, branch, node)
			return err
		}
		_, err = d.Graph.Add(node, req.Position)
		return err
	})
}

// RemoveNode removes a non-default component graph node.
func (s *Service) RemoveNode(ctx context.Context, id, nodeID string) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft, _ *schedule.Builder) error {
		if d.Variant != payoff.Generic {
			return ErrNotGeneric
		}
		return d.Graph.Remove(nodeID)
	})
}

// MoveNode reorders a node within its column.
func (s *Service) MoveNode(ctx context.Context, id, nodeID string, position int) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft, _ *schedule.Builder) error {
		if d.Variant != payoff.Generic {
			return ErrNotGeneric
		}
		return d.Graph.Move(nodeID, position)
	})
}

// Bundle returns the outbound bundle of a draft.
func (s *Service) Bundle(ctx context.Context, id string) (Bundle, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return Bundle{}, err
	}
	return BundleOf(d), nil
}

// Review checks a draft for inconsistencies. It never fails on draft content.
func (s *Service) Review(ctx context.Context, id string) (payoff.Report, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return payoff.Report{}, err
	}
	return Review(d), nil
}

// Review adds date and lock findings to the payoff review.
func Review(d *Draft) payoff.Report {
	report := payoff.Review(d.Params, d.Schedule.Periods, len(d.Underlyings))
	if !d.Dates.Ordered() {
		report.Issues = append(report.Issues, payoff.Issue{
			Code:     IssueDatesOutOfOrder,
			Severity: payoff.SeverityWarning,
			Message:  "trade, value and final observation dates must be in that order",
		})
	}
	if d.Schedule.GenerationLocked {
		report.Issues = append(report.Issues, payoff.Issue{
			Code:     IssueLockedSchedule,
			Severity: payoff.SeverityInfo,
			Message:  "the schedule was edited or loaded; it is only regenerated when the schedule configuration changes",
		})
	}
	return report
}

func (s *Service) mutate(ctx context.Context, id string, fn func(d *Draft, b *schedule.Builder) error) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(d, s.builder(d)); err != nil {
		s.pending = nil
		return nil, err
	}

	d.UpdatedAt = s.now()
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// save persists d and then emits the events queued while changing it.
// Must be called with mu held.
func (s *Service) save(ctx context.Context, d *Draft) error {
	pending := s.pending
	s.pending = nil

	if err := s.store.Save(ctx, d); err != nil {
		s.log.Error().Err(err).Str("product_id", d.ID).Msg("Failed to save product")
		s.emitter.Emit(module, &events.ErrorEventData{Error: err.Error(), Context: map[string]string{"product_id": d.ID}})
		return err
	}
	for _, data := range pending {
		s.emitter.Emit(module, data)
	}
	s.emitter.Emit(module, &events.ProductData{Type: events.ProductSaved, ProductID: d.ID, Name: d.Name, Variant: string(d.Variant)})
	return nil
}

func (s *Service) builder(d *Draft) *schedule.Builder {
	return schedule.NewBuilder(calendar.New(d.Regions))
}

func (s *Service) regions(raw string) (calendar.RegionSet, error) {
	if strings.TrimSpace(raw) == "" {
		return append(calendar.RegionSet{}, s.opts.Regions...), nil
	}
	set, err := calendar.ParseRegions(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return set, nil
}

// normalizeDates keeps the value date within [trade, final]. A missing or
// out-of-range value date becomes the trade date plus the default settlement
// delay, rolled onto a business day and capped at the final observation date.
// A final date before the trade date is left for Review to report.
func (s *Service) normalizeDates(dates schedule.ProductDates, regions calendar.RegionSet) schedule.ProductDates {
	trade, final := dates.TradeDate, dates.FinalObservationDate
	if trade.IsZero() {
		return dates
	}
	bounded := !final.IsZero() && !final.Before(trade)

	value := dates.ValueDate
	if value.IsZero() || value.Before(trade) || (bounded && value.After(final)) {
		value = calendar.NextBusinessDay(trade.AddDays(s.opts.ValueDelayDays), regions)
	}
	if bounded && value.After(final) {
		value = final
	}
	dates.ValueDate = value
	return dates
}

func (s *Service) emitTransition(d *Draft, t schedule.Transition, trigger string, periodIndex int) {
	var eventType events.EventType
	switch t {
	case schedule.TransitionGenerated:
		eventType = events.ScheduleGenerated
	case schedule.TransitionRegenerated:
		eventType = events.ScheduleRegenerated
	case schedule.TransitionSuppressed:
		eventType = events.RegenerationSuppressed
	case schedule.TransitionCleared:
		eventType = events.ScheduleCleared
	case schedule.TransitionEdited:
		eventType = events.ScheduleEdited
	case schedule.TransitionLoaded:
		eventType = events.ScheduleLoaded
	default:
		return
	}

	s.log.Info().
		Str("product_id", d.ID).
		Str("transition", string(t)).
		Str("trigger", trigger).
		Int("periods", len(d.Schedule.Periods)).
		Bool("locked", d.Schedule.GenerationLocked).
		Msg("Schedule transition")

	s.pending = append(s.pending, &events.ScheduleData{
		Type:        eventType,
		ProductID:   d.ID,
		Periods:     len(d.Schedule.Periods),
		State:       string(d.Schedule.State),
		Locked:      d.Schedule.GenerationLocked,
		Trigger:     trigger,
		PeriodIndex: periodIndex,
	})
}

func droppedKeys(p payoff.Params, to payoff.Variant) []string {
	var dropped []string
	for key := range p.Values() {
		if !to.Recognizes(key) {
			dropped = append(dropped, key)
		}
	}
	sort.Strings(dropped)
	return dropped
}

func cleanUnderlyings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, u := range in {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
