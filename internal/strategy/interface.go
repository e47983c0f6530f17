package strategy

import "github.com/quantsweep/quantsweep/internal/sim"

// ParamKind is the numeric type of a strategy parameter.
type ParamKind string

const (
	KindInt   ParamKind = "int"
	KindFloat ParamKind = "float"
)

// ParamSpec declares one tunable parameter of a strategy: its name,
// type, bounds and the value used when a sweep leaves it unset.
type ParamSpec struct {
	Name    string    `json:"name"`
	Kind    ParamKind `json:"kind"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Default float64   `json:"default"`
}

// Definition is a parameterizable strategy known to the registry. Build
// maps one concrete value assignment onto the engine's parameter block,
// rejecting values the simulation cannot run.
type Definition interface {
	Name() string
	Description() string
	Params() []ParamSpec
	Build(values map[string]float64) (sim.Params, error)
}
