package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantsweep/quantsweep/internal/sim"
)

type stubDefinition struct{ name string }

func (s stubDefinition) Name() string        { return s.name }
func (s stubDefinition) Description() string { return "stub" }
func (s stubDefinition) Params() []ParamSpec { return nil }
func (s stubDefinition) Build(map[string]float64) (sim.Params, error) {
	return sim.Params{FastPeriod: 1, SlowPeriod: 2}, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(stubDefinition{name: "alpha"})

	d, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", d.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_AllSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(stubDefinition{name: "zeta"})
	r.Register(stubDefinition{name: "alpha"})
	r.Register(stubDefinition{name: "mid"})

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name())
	assert.Equal(t, "mid", all[1].Name())
	assert.Equal(t, "zeta", all[2].Name())
}

func TestRegistry_ReplaceSameName(t *testing.T) {
	r := NewRegistry()
	r.Register(stubDefinition{name: "dup"})
	r.Register(stubDefinition{name: "dup"})
	assert.Len(t, r.All(), 1)
}
