// Package payoff is the closed catalog of payoff families a draft product can
// take. Each family has its own parameter struct; the loosely typed Values bag
// only exists at the edges (operator input, storage).
package payoff

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aristath/structura/internal/modules/schedule"
)

// ErrUnknownVariant is returned when a variant name is not in the catalog
var ErrUnknownVariant = errors.New("unknown payoff variant")

// Variant identifies a payoff family.
type Variant string

const (
	Phoenix                Variant = "phoenix"
	Orion                  Variant = "orion"
	Himalaya               Variant = "himalaya"
	Shark                  Variant = "shark"
	ReverseConvertible     Variant = "reverse_convertible"
	ReverseConvertibleBond Variant = "reverse_convertible_bond"
	Participation          Variant = "participation"
	Generic                Variant = "generic"
)

var variants = []Variant{
	Phoenix, Orion, Himalaya, Shark, ReverseConvertible, ReverseConvertibleBond, Participation, Generic,
}

// Variants lists the catalog in display order.
func Variants() []Variant {
	out := make([]Variant, len(variants))
	copy(out, variants)
	return out
}

// ParseVariant resolves a variant name. Dashes and spaces are treated as underscores.
func ParseVariant(s string) (Variant, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.NewReplacer("-", "_", " ", "_").Replace(name)
	switch name {
	case "phoenix_autocallable":
		name = string(Phoenix)
	case "orion_memory":
		name = string(Orion)
	case "shark_note":
		name = string(Shark)
	case "participation_note":
		name = string(Participation)
	case "generic_composable", "custom":
		name = string(Generic)
	}
	for _, v := range variants {
		if string(v) == name {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Known reports whether v is in the catalog.
func (v Variant) Known() bool {
	_, ok := catalog[v]
	return ok
}

// Title is the display name.
func (v Variant) Title() string {
	if e, ok := catalog[v]; ok {
		return e.title
	}
	return string(v)
}

// Features tells the schedule builder how to lay out and decorate periods.
func (v Variant) Features() schedule.Features {
	if e, ok := catalog[v]; ok {
		return e.features
	}
	return schedule.Features{Layout: schedule.LayoutPeriodic}
}

// UsesSchedule is false for families that only observe at trade and final date.
func (v Variant) UsesSchedule() bool {
	return v.Features().Layout != schedule.LayoutNone
}

// Keys lists the parameters the variant recognizes.
func (v Variant) Keys() []KeySpec {
	e, ok := catalog[v]
	if !ok {
		return nil
	}
	out := make([]KeySpec, len(e.keys))
	for i, key := range e.keys {
		out[i] = specs[key]
	}
	return out
}

// Recognizes reports whether key is a parameter of v.
func (v Variant) Recognizes(key string) bool {
	for _, k := range catalog[v].keys {
		if k == key {
			return true
		}
	}
	return false
}

// Descriptor is the catalog entry served to editors.
type Descriptor struct {
	Variant      Variant         `json:"variant"`
	Title        string          `json:"title"`
	UsesSchedule bool            `json:"usesSchedule"`
	Layout       schedule.Layout `json:"layout"`
	Rebates      bool            `json:"rebates"`
	Keys         []KeySpec       `json:"keys"`
}

// Catalog describes every variant.
func Catalog() []Descriptor {
	out := make([]Descriptor, 0, len(variants))
	for _, v := range variants {
		f := v.Features()
		out = append(out, Descriptor{
			Variant:      v,
			Title:        v.Title(),
			UsesSchedule: v.UsesSchedule(),
			Layout:       f.Layout,
			Rebates:      f.Rebates,
			Keys:         v.Keys(),
		})
	}
	return out
}
