// Package analysis turns benchmark records into pivot tables, a markdown
// report and bar charts.
package analysis

import (
	"github.com/mwiater/lvcbench/internal/results"
)

// Metric names shared by observations, pivots and charts.
const (
	MetricLatencyMS       = "latency_ms"
	MetricTokensPerSecond = "tokens_per_second"
	MetricTTFTMS          = "time_to_first_token_ms"
	MetricDurationSeconds = "duration_seconds"
	MetricRealTimeFactor  = "real_time_factor"
	MetricAudioSeconds    = "audio_seconds"
	MetricOutputTokens    = "output_tokens"
	MetricQualityScore    = "quality_score"
)

// Observation is a record of either pipeline normalized for analysis. Metrics
// only holds measurements that were actually available.
type Observation struct {
	Input    string
	Category string
	Model    string
	Metrics  map[string]float64
	Output   string
	Err      string
}

// Failed reports whether the observation came from an error record.
func (o Observation) Failed() bool { return o.Err != "" }

func putMetric(m map[string]float64, name string, value float64) {
	if value >= 0 {
		m[name] = value
	}
}

// FromLLM normalizes LLM records.
func FromLLM(records []results.LLMRecord) []Observation {
	obs := make([]Observation, 0, len(records))
	for _, r := range records {
		o := Observation{
			Input:    r.PromptID,
			Category: r.Category,
			Model:    r.Model,
			Metrics:  map[string]float64{},
			Output:   r.Response,
			Err:      r.ErrorText(),
		}
		if r.Failed() && o.Err == "" {
			o.Err = "Unknown"
		}
		if !r.Failed() {
			putMetric(o.Metrics, MetricLatencyMS, r.LatencyMS)
			if r.TokensPerSecond > 0 {
				o.Metrics[MetricTokensPerSecond] = r.TokensPerSecond
			}
			if r.TimeToFirstTokenMS > 0 {
				o.Metrics[MetricTTFTMS] = r.TimeToFirstTokenMS
			}
			if r.OutputTokens > 0 {
				o.Metrics[MetricOutputTokens] = float64(r.OutputTokens)
			}
			putMetric(o.Metrics, MetricQualityScore, r.QualityScore)
		}
		obs = append(obs, o)
	}
	return obs
}

// FromTranscription normalizes transcription records.
func FromTranscription(records []results.TranscriptionRecord) []Observation {
	obs := make([]Observation, 0, len(records))
	for _, r := range records {
		o := Observation{
			Input:   r.File,
			Model:   r.Model,
			Metrics: map[string]float64{},
			Output:  r.Transcription,
			Err:     r.ErrorText(),
		}
		if r.Failed() && o.Err == "" {
			o.Err = "Unknown"
		}
		if !r.Failed() {
			putMetric(o.Metrics, MetricDurationSeconds, r.DurationSeconds)
			if r.AudioSeconds > 0 {
				o.Metrics[MetricAudioSeconds] = r.AudioSeconds
			}
			if r.RealTimeFactor > 0 {
				o.Metrics[MetricRealTimeFactor] = r.RealTimeFactor
			}
		}
		obs = append(obs, o)
	}
	return obs
}
