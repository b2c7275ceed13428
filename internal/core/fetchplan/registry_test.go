package fetchplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	r.Register("warehouse", "basic", New("basic"))
	r.Register("warehouse", "default", New("default", "market_areas"))
	r.Register("warehouse", "full", New("full", "market_areas", "delivery_methods"))
	r.Register("stock", "default", New("stock-default"))
	require.NoError(t, r.SetDefault("warehouse", "default"))
	return r
}

func TestResolve(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name      string
		selectors []Selector
		want      string
	}{
		{name: "no selectors falls back to default", want: "default"},
		{name: "recognized selector", selectors: []Selector{"full"}, want: "full"},
		{name: "first recognized wins", selectors: []Selector{"basic", "full"}, want: "basic"},
		{name: "unknown is skipped", selectors: []Selector{"bogus", "full"}, want: "full"},
		{name: "only unknown gives default", selectors: []Selector{"bogus"}, want: "default"},
		{name: "selector of another entity is unknown", selectors: []Selector{"stock-only"}, want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := r.Resolve("warehouse", tt.selectors...)
			assert.Equal(t, tt.want, plan.Name())
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	r := newTestRegistry(t)

	first := r.Resolve("warehouse", "full")
	second := r.Resolve("warehouse", "full")

	assert.Equal(t, first, second)
}

func TestResolve_NoDefault(t *testing.T) {
	r := newTestRegistry(t)

	assert.True(t, r.Resolve("stock").IsZero())
	assert.Equal(t, "stock-default", r.Resolve("stock", "default").Name())
}

func TestSetDefault_Unregistered(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.SetDefault("warehouse", "missing"))
}

func TestPlan_Immutable(t *testing.T) {
	plan := New("p", "a", "b", "a")

	paths := plan.Paths()
	paths[0] = "mutated"

	assert.Equal(t, []Path{"a", "b"}, plan.Paths())
	assert.True(t, plan.Has("b"))
	assert.False(t, plan.Has("mutated"))
}
