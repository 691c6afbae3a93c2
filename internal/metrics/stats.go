// internal/metrics/stats.go
package metrics

import (
	"math"
	"sort"
)

// RunningStat holds the necessary values for online calculation of mean, variance, and stddev.
type RunningStat struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"-"` // Sum of squares of differences from the current mean
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Add updates the statistic using Welford's online algorithm.
func (rs *RunningStat) Add(value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}

// Variance returns the sample variance, or 0 with fewer than two values.
func (rs RunningStat) Variance() float64 {
	if rs.Count < 2 {
		return 0
	}
	return rs.M2 / float64(rs.Count-1)
}

// StdDev returns the sample standard deviation.
func (rs RunningStat) StdDev() float64 {
	return math.Sqrt(rs.Variance())
}

// ModelSummary aggregates every record of one model.
type ModelSummary struct {
	Model   string                  `json:"model"`
	Records int                     `json:"records"`
	Errors  int                     `json:"errors"`
	Stats   map[string]*RunningStat `json:"stats"`
}

// Stat returns the named statistic, or a zero value when nothing was recorded.
func (s ModelSummary) Stat(name string) RunningStat {
	if rs, ok := s.Stats[name]; ok {
		return *rs
	}
	return RunningStat{}
}

// Aggregator accumulates per-model running statistics.
type Aggregator struct {
	models map[string]*ModelSummary
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{models: make(map[string]*ModelSummary)}
}

// Record adds one record. Failed records only count towards Errors, and
// negative values mark unavailable measurements and are skipped.
func (a *Aggregator) Record(model string, values map[string]float64, failed bool) {
	summary, ok := a.models[model]
	if !ok {
		summary = &ModelSummary{Model: model, Stats: make(map[string]*RunningStat)}
		a.models[model] = summary
	}
	summary.Records++
	if failed {
		summary.Errors++
		return
	}
	for name, value := range values {
		if value < 0 || math.IsNaN(value) {
			continue
		}
		rs, ok := summary.Stats[name]
		if !ok {
			rs = &RunningStat{}
			summary.Stats[name] = rs
		}
		rs.Add(value)
	}
}

// Summaries returns one summary per model, sorted by model name.
func (a *Aggregator) Summaries() []ModelSummary {
	out := make([]ModelSummary, 0, len(a.models))
	for _, s := range a.models {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}
