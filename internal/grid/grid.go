// Package grid expands parameter ranges into the concrete combination set
// fed to the simulation engine.
package grid

import "math"

// Range describes one parameter axis of a sweep. Integer ranges step over
// the inclusive interval [Start, End]; float ranges step by repeated
// addition with values rounded to eight decimal places.
type Range struct {
	Name    string  `json:"name"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Step    float64 `json:"step"`
	Integer bool    `json:"integer"`
}

const (
	// floatScale rounds expanded float values to 8 decimal places so that
	// repeated step addition does not accumulate drift.
	floatScale = 1e8
	epsilon    = 1e-9
)

func round8(v float64) float64 {
	return math.Round(v*floatScale) / floatScale
}

// Values expands a single range into its ordered value list.
// Start == End yields the single value regardless of step. A non-positive
// step falls back to 1 for integer ranges and to a tenth of the span for
// float ranges instead of failing.
func (r Range) Values() []float64 {
	if r.Start == r.End {
		if r.Integer {
			return []float64{math.Trunc(r.Start)}
		}
		return []float64{round8(r.Start)}
	}
	if r.End < r.Start {
		return nil
	}

	if r.Integer {
		step := int(r.Step)
		if step <= 0 {
			step = 1
		}
		var out []float64
		for v := int(r.Start); v <= int(r.End); v += step {
			out = append(out, float64(v))
		}
		return out
	}

	step := r.Step
	if step <= 0 {
		step = (r.End - r.Start) / 10
	}
	var out []float64
	for v := r.Start; v <= r.End+epsilon; v += step {
		out = append(out, round8(v))
	}
	return out
}

// Expand produces the cartesian product of all ranges in lexicographic
// product order: the first range varies slowest. The order is stable and
// reproducible. An empty range list yields one empty combination.
func Expand(ranges []Range) []map[string]float64 {
	combos := []map[string]float64{{}}

	for _, r := range ranges {
		values := r.Values()
		next := make([]map[string]float64, 0, len(combos)*len(values))
		for _, base := range combos {
			for _, v := range values {
				combo := make(map[string]float64, len(base)+1)
				for k, bv := range base {
					combo[k] = bv
				}
				combo[r.Name] = v
				next = append(next, combo)
			}
		}
		combos = next
	}

	return combos
}
