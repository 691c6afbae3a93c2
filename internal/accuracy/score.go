// Package accuracy scores LLM responses against the expected answer a prompt
// may declare.
package accuracy

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mwiater/lvcbench/internal/inputs"
)

// Unscored is returned for prompts without an expected answer.
const Unscored = -1.0

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	integer    = regexp.MustCompile(`-?\d+`)
)

// Score returns 1 when response carries the prompt's expected answer, 0 when
// it does not, and Unscored when the prompt declares no answer.
func Score(prompt inputs.Prompt, response string) float64 {
	switch {
	case prompt.Expected != nil:
		return boolScore(matchesExpected(response, *prompt.Expected, prompt.MarginOfError))
	case strings.TrimSpace(prompt.ExpectedText) != "":
		return boolScore(containsText(response, prompt.ExpectedText))
	default:
		return Unscored
	}
}

func boolScore(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}

// matchesExpected looks for an integer within marginOfError of expected near
// the end of the response.
func matchesExpected(response string, expected, marginOfError int) bool {
	trimmed := normalizeResponse(response)
	if trimmed == "" {
		return false
	}
	tail := trimmed
	if len(trimmed) > 25 {
		tail = trimmed[len(trimmed)-25:]
	}
	for _, match := range integer.FindAllString(tail, -1) {
		value, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		if withinTolerance(value, expected, marginOfError) {
			return true
		}
	}
	return false
}

func containsText(response, expected string) bool {
	body := strings.ToLower(strings.Join(strings.Fields(stripThinking(response)), " "))
	want := strings.ToLower(strings.Join(strings.Fields(expected), " "))
	return strings.Contains(body, want)
}

func withinTolerance(actual, expected, tolerance int) bool {
	if tolerance < 0 {
		tolerance = 0
	}
	diff := actual - expected
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// stripThinking drops <think> blocks; an unterminated block cuts the rest.
func stripThinking(response string) string {
	trimmed := thinkBlock.ReplaceAllString(strings.TrimSpace(response), "")
	if i := strings.Index(trimmed, "<think>"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return trimmed
}

// normalizeResponse reduces a response to its last integer when it has one.
func normalizeResponse(response string) string {
	trimmed := strings.Join(strings.Fields(stripThinking(response)), " ")
	trimmed = strings.ReplaceAll(trimmed, ",", "")
	trimmed = strings.TrimSpace(strings.Trim(trimmed, " \t\"'`.,;:!?()[]{}<>"))
	if trimmed == "" {
		return trimmed
	}
	if matches := integer.FindAllString(trimmed, -1); len(matches) > 0 {
		return matches[len(matches)-1]
	}
	return trimmed
}
