// Package products holds draft structured products: the editable aggregate of
// dates, schedule configuration, payoff parameters, observation schedule and
// component graph, with persistence and the operations an editor performs on it.
package products

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/aristath/structura/internal/modules/calendar"
	"github.com/aristath/structura/internal/modules/graph"
	"github.com/aristath/structura/internal/modules/payoff"
	"github.com/aristath/structura/internal/modules/schedule"
)

var (
	// ErrNotFound is returned when no draft has the given id
	ErrNotFound = errors.New("product not found")
	// ErrNotGeneric is returned for graph operations on a non-generic payoff
	ErrNotGeneric = errors.New("component graph is only available for the generic payoff")
	// ErrInvalidInput wraps request validation failures
	ErrInvalidInput = errors.New("invalid input")
)

// Draft is a product being structured.
type Draft struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Dates       schedule.ProductDates `json:"dates"`
	Config      schedule.Config       `json:"config"`
	Underlyings []string              `json:"underlyings"`
	Regions     calendar.RegionSet    `json:"regions"`
	Variant     payoff.Variant        `json:"payoffVariant"`
	Params      payoff.Params         `json:"-"`
	Schedule    schedule.Schedule     `json:"schedule"`
	Graph       graph.Graph           `json:"componentGraph"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// MarshalJSON adds the parameter bag, which has no fixed shape.
func (d Draft) MarshalJSON() ([]byte, error) {
	type alias Draft
	var params payoff.Values
	if d.Params != nil {
		params = d.Params.Values()
	}
	return json.Marshal(struct {
		alias
		StructureParams payoff.Values `json:"structureParams"`
	}{alias: alias(d), StructureParams: params})
}

// Inputs is what the schedule builder reads from the draft.
func (d *Draft) Inputs() schedule.Inputs {
	return schedule.Inputs{
		Dates:       d.Dates,
		Config:      d.Config,
		Features:    d.Variant.Features(),
		Underlyings: len(d.Underlyings),
	}
}

// Bundle is the finalized output handed to the rule engine and presentation layers.
type Bundle struct {
	ObservationPeriods []schedule.ObservationPeriod `json:"observationPeriods"`
	StructureParams    payoff.Values                `json:"structureParams"`
	PayoffVariant      payoff.Variant               `json:"payoffVariant"`
	ComponentGraph     *graph.Graph                 `json:"componentGraph,omitempty"`
	ProductDates       schedule.ProductDates        `json:"productDates"`
	Underlyings        []string                     `json:"underlyings"`
}

// BundleOf assembles the outbound bundle of a draft.
func BundleOf(d *Draft) Bundle {
	b := Bundle{
		ObservationPeriods: d.Schedule.Clone().Periods,
		StructureParams:    d.Params.Values(),
		PayoffVariant:      d.Variant,
		ProductDates:       d.Dates,
		Underlyings:        append([]string{}, d.Underlyings...),
	}
	if d.Variant == payoff.Generic {
		g := d.Graph.Clone()
		b.ComponentGraph = &g
	}
	return b
}

// Summary is a list row; it is read without decoding the draft payload.
type Summary struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Variant          payoff.Variant `json:"payoffVariant"`
	State            schedule.State `json:"state"`
	GenerationLocked bool           `json:"generationLocked"`
	Periods          int            `json:"periods"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// CreateRequest describes a new draft. Zero values take defaults.
type CreateRequest struct {
	Name        string                `json:"name"`
	Variant     string                `json:"payoffVariant"`
	Dates       schedule.ProductDates `json:"dates"`
	Config      *schedule.Config      `json:"config,omitempty"`
	Underlyings []string              `json:"underlyings"`
	Regions     string                `json:"regions"`
	Params      payoff.Values         `json:"structureParams"`
}

// NodeRequest adds a component graph node, top-level or into a condition branch.
type NodeRequest struct {
	Type     graph.NodeType `json:"type"`
	Column   graph.Column   `json:"column"`
	Value    graph.Value    `json:"value"`
	Position int            `json:"position"`
	ParentID string         `json:"parentId,omitempty"`
	Branch   string         `json:"branch,omitempty"`
}

// Issue codes raised by the draft itself rather than the payoff.
const (
	IssueDatesOutOfOrder = "dates_out_of_order"
	IssueLockedSchedule  = "schedule_locked"
)
