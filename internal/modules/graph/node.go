// Package graph models a generic payoff as typed building blocks arranged in
// ordered columns. Nodes are validated when they are built, so a graph never
// holds a coupon without a rate or an action it cannot name.
package graph

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidNode is returned when a node's type, column and value do not fit together
	ErrInvalidNode = errors.New("invalid graph node")
	// ErrNodeNotFound is returned when no node has the given id
	ErrNodeNotFound = errors.New("graph node not found")
	// ErrDefaultNode is returned when removing a node the graph cannot work without
	ErrDefaultNode = errors.New("default graph nodes cannot be removed")
	// ErrNotCondition is returned when attaching a branch to a node that is not a condition
	ErrNotCondition = errors.New("only condition nodes have branches")
)

// NodeType is the kind of building block.
type NodeType string

const (
	Timing     NodeType = "TIMING"
	Underlying NodeType = "UNDERLYING"
	Basket     NodeType = "BASKET"
	Comparison NodeType = "COMPARISON"
	Barrier    NodeType = "BARRIER"
	Strike     NodeType = "STRIKE"
	Condition  NodeType = "CONDITION"
	Coupon     NodeType = "COUPON"
	Leverage   NodeType = "LEVERAGE"
	Memory     NodeType = "MEMORY"
	Action     NodeType = "ACTION"
)

// Column is a stage of evaluation. Columns are read left to right.
type Column string

const (
	ColumnTiming       Column = "timing"
	ColumnCondition    Column = "condition"
	ColumnAction       Column = "action"
	ColumnContinuation Column = "continuation"
)

// Columns in evaluation order.
var Columns = []Column{ColumnTiming, ColumnCondition, ColumnAction, ColumnContinuation}

type valueKind int

const (
	valueNone valueKind = iota
	valueNumber
	valueText
)

type nodeRule struct {
	columns  []Column
	kind     valueKind
	min, max float64
	options  []string // empty means any non-empty text
}

var rules = map[NodeType]nodeRule{
	Timing:     {columns: []Column{ColumnTiming}, kind: valueText, options: []string{"every_observation", "final_observation", "trade_date"}},
	Underlying: {columns: []Column{ColumnCondition}, kind: valueText},
	Basket:     {columns: []Column{ColumnCondition}, kind: valueText, options: []string{"worst_of", "best_of", "average"}},
	Comparison: {columns: []Column{ColumnCondition}, kind: valueText, options: []string{">=", ">", "<=", "<", "=="}},
	Barrier:    {columns: []Column{ColumnCondition}, kind: valueNumber, min: 0, max: 300},
	Strike:     {columns: []Column{ColumnCondition, ColumnAction}, kind: valueNumber, min: 0, max: 300},
	Condition:  {columns: []Column{ColumnCondition}, kind: valueNone},
	Coupon:     {columns: []Column{ColumnAction}, kind: valueNumber, min: 0, max: 100},
	Leverage:   {columns: []Column{ColumnAction}, kind: valueNumber, min: 0, max: 10},
	Memory:     {columns: []Column{ColumnAction}, kind: valueNone},
	Action: {columns: []Column{ColumnAction, ColumnContinuation}, kind: valueText,
		options: []string{"autocall", "pay_coupon", "redeem", "knock_in", "knock_out", "continue", "terminate"}},
}

// Value is the payload of a node: a number or a text, depending on its type.
type Value struct {
	Number *float64 `json:"number,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Num is a numeric value.
func Num(v float64) Value { return Value{Number: &v} }

// Text is a text value.
func Text(s string) Value { return Value{Text: s} }

// Branch is a labelled list of nodes evaluated when a condition resolves to Label.
type Branch struct {
	Label string `json:"label"`
	Nodes []Node `json:"nodes"`
}

// Node is one building block of the graph.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Column   Column   `json:"column"`
	Order    int      `json:"order"`
	Value    Value    `json:"value"`
	Default  bool     `json:"default"`
	Branches []Branch `json:"branches,omitempty"`
}

// NewNode builds and validates a node with a fresh id.
func NewNode(typ NodeType, column Column, value Value) (Node, error) {
	n := Node{ID: uuid.NewString(), Type: typ, Column: column, Value: value}
	if err := n.validate(); err != nil {
		return Node{}, err
	}
	if n.Value.Text != "" {
		n.Value.Text = strings.TrimSpace(n.Value.Text)
	}
	return n, nil
}

// Types lists every node type.
func Types() []NodeType {
	return []NodeType{Timing, Underlying, Basket, Comparison, Barrier, Strike, Condition, Coupon, Leverage, Memory, Action}
}

func (n Node) validate() error {
	rule, ok := rules[n.Type]
	if !ok {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidNode, n.Type)
	}
	if !containsColumn(rule.columns, n.Column) {
		return fmt.Errorf("%w: %s cannot be placed in the %q column", ErrInvalidNode, n.Type, n.Column)
	}

	switch rule.kind {
	case valueNone:
		if n.Value.Number != nil || n.Value.Text != "" {
			return fmt.Errorf("%w: %s takes no value", ErrInvalidNode, n.Type)
		}
	case valueNumber:
		if n.Value.Number == nil || n.Value.Text != "" {
			return fmt.Errorf("%w: %s needs a numeric value", ErrInvalidNode, n.Type)
		}
		v := *n.Value.Number
		if math.IsNaN(v) || v < rule.min || v > rule.max {
			return fmt.Errorf("%w: %s value %v outside [%v, %v]", ErrInvalidNode, n.Type, v, rule.min, rule.max)
		}
	case valueText:
		text := strings.TrimSpace(n.Value.Text)
		if n.Value.Number != nil || text == "" {
			return fmt.Errorf("%w: %s needs a text value", ErrInvalidNode, n.Type)
		}
		if len(rule.options) > 0 && !containsString(rule.options, text) {
			return fmt.Errorf("%w: %s value %q not one of %v", ErrInvalidNode, n.Type, text, rule.options)
		}
	}

	if len(n.Branches) > 0 && n.Type != Condition {
		return fmt.Errorf("%w: %s", ErrNotCondition, n.Type)
	}
	for _, b := range n.Branches {
		for _, child := range b.Nodes {
			if err := child.validate(); err != nil {
				return fmt.Errorf("branch %q: %w", b.Label, err)
			}
		}
	}
	return nil
}

func containsColumn(columns []Column, c Column) bool {
	for _, col := range columns {
		if col == c {
			return true
		}
	}
	return false
}

func containsString(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
