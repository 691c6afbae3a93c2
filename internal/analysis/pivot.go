package analysis

import (
	"sort"

	"github.com/samber/lo"
)

// Table is an input x model pivot of one metric. Missing cells are absent
// from Values.
type Table struct {
	Metric string
	Rows   []string
	Cols   []string
	Values map[string]map[string]float64
}

// Value returns the cell for (row, col) and whether it is present.
func (t Table) Value(row, col string) (float64, bool) {
	v, ok := t.Values[row][col]
	return v, ok
}

// Empty reports whether the table has no cells.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Any reports whether some cell satisfies pred.
func (t Table) Any(pred func(float64) bool) bool {
	for _, cols := range t.Values {
		for _, v := range cols {
			if pred(v) {
				return true
			}
		}
	}
	return false
}

type cellKey struct{ row, col string }

// Pivot averages metric over duplicate (input, model) pairs. Error
// observations and observations without the metric are dropped. Rows are
// sorted by input and columns by model.
func Pivot(obs []Observation, metric string) Table {
	sums := map[cellKey]float64{}
	counts := map[cellKey]int{}
	for _, o := range obs {
		if o.Failed() {
			continue
		}
		v, ok := o.Metrics[metric]
		if !ok {
			continue
		}
		k := cellKey{o.Input, o.Model}
		sums[k] += v
		counts[k]++
	}

	t := Table{Metric: metric, Values: map[string]map[string]float64{}}
	keys := lo.Keys(counts)
	t.Rows = lo.Uniq(lo.Map(keys, func(k cellKey, _ int) string { return k.row }))
	t.Cols = lo.Uniq(lo.Map(keys, func(k cellKey, _ int) string { return k.col }))
	sort.Strings(t.Rows)
	sort.Strings(t.Cols)
	for _, k := range keys {
		if t.Values[k.row] == nil {
			t.Values[k.row] = map[string]float64{}
		}
		t.Values[k.row][k.col] = sums[k] / float64(counts[k])
	}
	return t
}

// Inputs returns the sorted distinct inputs of obs.
func Inputs(obs []Observation) []string {
	inputs := lo.Uniq(lo.Map(obs, func(o Observation, _ int) string { return o.Input }))
	sort.Strings(inputs)
	return inputs
}

// Models returns the sorted distinct models of obs.
func Models(obs []Observation) []string {
	models := lo.Uniq(lo.Map(obs, func(o Observation, _ int) string { return o.Model }))
	sort.Strings(models)
	return models
}

// CommonInputs returns the sorted inputs present in every non-empty source.
func CommonInputs(sources ...[]Observation) []string {
	var common []string
	started := false
	for _, src := range sources {
		if len(src) == 0 {
			continue
		}
		inputs := Inputs(src)
		if !started {
			common = inputs
			started = true
			continue
		}
		common = lo.Intersect(common, inputs)
	}
	sort.Strings(common)
	return common
}

// Combine merges the non-empty sources, keeping only inputs shared by all of them.
func Combine(sources ...[]Observation) []Observation {
	keep := lo.SliceToMap(CommonInputs(sources...), func(in string) (string, struct{}) { return in, struct{}{} })
	var out []Observation
	for _, src := range sources {
		out = append(out, lo.Filter(src, func(o Observation, _ int) bool {
			_, ok := keep[o.Input]
			return ok
		})...)
	}
	return out
}
