package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestNewNode(t *testing.T) {
	tests := []struct {
		name    string
		typ     NodeType
		column  Column
		value   Value
		wantErr bool
	}{
		{"barrier", Barrier, ColumnCondition, Num(70), false},
		{"coupon", Coupon, ColumnAction, Num(5.5), false},
		{"memory without value", Memory, ColumnAction, Value{}, false},
		{"action in continuation", Action, ColumnContinuation, Text("terminate"), false},
		{"underlying ticker", Underlying, ColumnCondition, Text("SX5E"), false},
		{"barrier without number", Barrier, ColumnCondition, Text("70"), true},
		{"barrier out of range", Barrier, ColumnCondition, Num(500), true},
		{"coupon in the condition column", Coupon, ColumnCondition, Num(5), true},
		{"memory with a value", Memory, ColumnAction, Num(1), true},
		{"unknown action", Action, ColumnAction, Text("explode"), true},
		{"empty underlying", Underlying, ColumnCondition, Text("  "), true},
		{"unknown type", NodeType("SWAP"), ColumnAction, Num(1), true},
		{"comparison operator", Comparison, ColumnCondition, Text("<="), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewNode(tt.typ, tt.column, tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidNode)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, n.ID)
			assert.Equal(t, tt.typ, n.Type)
			assert.False(t, n.Default)
		})
	}
}

func TestDefault(t *testing.T) {
	g := Default()
	require.NoError(t, g.Validate())
	assert.Len(t, g.Nodes, 6)
	assert.Len(t, g.Column(ColumnCondition), 3)

	for _, n := range g.Nodes {
		assert.True(t, n.Default)
		assert.ErrorIs(t, g.Remove(n.ID), ErrDefaultNode)
	}
}

func TestAddRemoveMove(t *testing.T) {
	g := Default()
	condition := g.Column(ColumnCondition)

	strike, err := NewNode(Strike, ColumnCondition, Num(95))
	require.NoError(t, err)
	added, err := g.Add(strike, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, added.Order)

	assert.Equal(t, []string{condition[0].ID, strike.ID, condition[1].ID, condition[2].ID}, ids(g.Column(ColumnCondition)))
	require.NoError(t, g.Validate())

	require.NoError(t, g.Move(strike.ID, 3))
	assert.Equal(t, []string{condition[0].ID, condition[1].ID, condition[2].ID, strike.ID}, ids(g.Column(ColumnCondition)))
	require.NoError(t, g.Validate())

	require.NoError(t, g.Move(condition[2].ID, -4))
	assert.Equal(t, []string{condition[2].ID, condition[0].ID, condition[1].ID, strike.ID}, ids(g.Column(ColumnCondition)))

	require.NoError(t, g.Remove(strike.ID))
	assert.Len(t, g.Column(ColumnCondition), 3)
	require.NoError(t, g.Validate())

	assert.ErrorIs(t, g.Remove("missing"), ErrNodeNotFound)
	assert.ErrorIs(t, g.Move("missing", 0), ErrNodeNotFound)
}

func TestAdd_AppendsOnOutOfRangePosition(t *testing.T) {
	g := Default()
	coupon, err := NewNode(Coupon, ColumnAction, Num(6))
	require.NoError(t, err)

	added, err := g.Add(coupon, 99)
	require.NoError(t, err)
	assert.Equal(t, 1, added.Order)

	_, err = g.Add(Node{ID: "bad", Type: Coupon, Column: ColumnTiming, Value: Num(1)}, 0)
	assert.ErrorIs(t, err, ErrInvalidNode)
}

func TestBranches(t *testing.T) {
	g := Default()
	cond, err := NewNode(Condition, ColumnCondition, Value{})
	require.NoError(t, err)
	_, err = g.Add(cond, -1)
	require.NoError(t, err)

	coupon, err := NewNode(Coupon, ColumnAction, Num(4))
	require.NoError(t, err)
	memory, err := NewNode(Memory, ColumnAction, Value{})
	require.NoError(t, err)

	_, err = g.AddToBranch(cond.ID, "then", coupon)
	require.NoError(t, err)
	second, err := g.AddToBranch(cond.ID, "then", memory)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Order)

	found, ok := g.Find(memory.ID)
	require.True(t, ok)
	assert.Equal(t, Memory, found.Type)
	require.NoError(t, g.Validate())

	require.NoError(t, g.Remove(coupon.ID))
	parent, _ := g.Find(cond.ID)
	require.Len(t, parent.Branches, 1)
	require.Len(t, parent.Branches[0].Nodes, 1)
	assert.Equal(t, 0, parent.Branches[0].Nodes[0].Order)

	basket := g.Column(ColumnCondition)[0]
	_, err = g.AddToBranch(basket.ID, "then", coupon)
	assert.ErrorIs(t, err, ErrNotCondition)
	_, err = g.AddToBranch("missing", "then", coupon)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestClone(t *testing.T) {
	g := Default()
	c := g.Clone()
	*c.Nodes[3].Value.Number = 80

	assert.Equal(t, 100.0, *g.Nodes[3].Value.Number)
}

func TestValidate_DetectsBrokenOrder(t *testing.T) {
	g := Default()
	g.Nodes[1].Order = 5
	assert.ErrorIs(t, g.Validate(), ErrInvalidNode)
}
