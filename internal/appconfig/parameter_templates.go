package appconfig

import (
	"fmt"
	"strings"
)

// ProfileName identifies a sampling preset an LLM backend can opt into with
// "parameterTemplate".
type ProfileName string

const (
	ProfileNone          ProfileName = "none"
	ProfileDeterministic ProfileName = "deterministic"
	ProfileShortAnswer   ProfileName = "short_answer"
	ProfileLongForm      ProfileName = "long_form"
)

var profileAliases = map[string]ProfileName{
	"":             ProfileNone,
	"default":      ProfileNone,
	"accuracy":     ProfileDeterministic,
	"repeatable":   ProfileDeterministic,
	"fact":         ProfileShortAnswer,
	"fact-check":   ProfileShortAnswer,
	"quick":        ProfileShortAnswer,
	"creative":     ProfileLongForm,
	"writer":       ProfileLongForm,
	"long-form":    ProfileLongForm,
	"short-answer": ProfileShortAnswer,
}

// ParamsForProfile returns the preset for name and whether name is known.
// The none profile is known and empty, leaving backend defaults in place.
func ParamsForProfile(name string) (Parameters, bool) {
	switch resolveProfile(name) {
	case ProfileNone:
		return Parameters{}, true
	case ProfileDeterministic:
		// Same seed and low temperature on every backend so output length,
		// and with it latency, is comparable across runs.
		return Parameters{
			Temperature:   ptrFloat(0.1),
			TopP:          ptrFloat(0.95),
			MinP:          ptrFloat(0.1),
			RepeatPenalty: ptrFloat(1.0),
			Seed:          ptrInt64(42),
			MaxTokens:     ptrInt(512),
		}, true
	case ProfileShortAnswer:
		return Parameters{
			Temperature:   ptrFloat(0.2),
			TopP:          ptrFloat(0.6),
			TopK:          ptrInt(20),
			RepeatPenalty: ptrFloat(1.05),
			Seed:          ptrInt64(42),
			MaxTokens:     ptrInt(64),
		}, true
	case ProfileLongForm:
		return Parameters{
			Temperature: ptrFloat(1.0),
			TopP:        ptrFloat(1.0),
			MaxTokens:   ptrInt(2048),
		}, true
	default:
		return Parameters{}, false
	}
}

// ApplyParameterTemplates merges each LLM backend's profile under its explicit
// parameters. An unknown profile name is a configuration error.
func ApplyParameterTemplates(config *Config) error {
	for i := range config.LLMBackends {
		backend := &config.LLMBackends[i]
		if strings.TrimSpace(backend.ParameterTemplate) == "" {
			continue
		}
		template, ok := ParamsForProfile(backend.ParameterTemplate)
		if !ok {
			return fmt.Errorf("llm backend %q: unknown parameterTemplate %q", backend.Label(), backend.ParameterTemplate)
		}
		backend.Parameters = mergeParams(template, backend.Parameters)
	}
	return nil
}

func resolveProfile(name string) ProfileName {
	name = strings.TrimSpace(strings.ToLower(name))
	if p, ok := profileAliases[name]; ok {
		return p
	}
	return ProfileName(strings.ReplaceAll(name, "-", "_"))
}

func mergeParams(base, override Parameters) Parameters {
	pick := func(dst **float64, src *float64) {
		if src != nil {
			*dst = src
		}
	}
	pick(&base.Temperature, override.Temperature)
	pick(&base.TopP, override.TopP)
	pick(&base.MinP, override.MinP)
	pick(&base.RepeatPenalty, override.RepeatPenalty)
	if override.TopK != nil {
		base.TopK = override.TopK
	}
	if override.Seed != nil {
		base.Seed = override.Seed
	}
	if override.MaxTokens != nil {
		base.MaxTokens = override.MaxTokens
	}
	return base
}

func ptrInt(v int) *int           { return &v }
func ptrInt64(v int64) *int64     { return &v }
func ptrFloat(v float64) *float64 { return &v }
