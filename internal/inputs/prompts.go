// Package inputs enumerates the fixed, ordered inputs each pipeline evaluates:
// the LLM prompt suite and the audio files for transcription.
package inputs

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prompt is one entry of the LLM prompt suite. Expected or ExpectedText,
// when set, let the runner score responses automatically.
type Prompt struct {
	ID            string `yaml:"id" json:"id"`
	Category      string `yaml:"category" json:"category"`
	Input         string `yaml:"input" json:"input"`
	Expected      *int   `yaml:"expected,omitempty" json:"expected,omitempty"`
	MarginOfError int    `yaml:"marginOfError,omitempty" json:"marginOfError,omitempty"`
	ExpectedText  string `yaml:"expectedText,omitempty" json:"expectedText,omitempty"`
}

type promptFile struct {
	Prompts []Prompt `yaml:"prompts"`
}

const contextMemoryPrompt = "\n" +
	"        The following is an article about the history of the internet.\n" +
	"        The internet started as a project by the U.S. Department of Defense called ARPANET. It was designed to be a decentralized network that could withstand a nuclear attack. The first message was sent over ARPANET in 1969. It was from a computer at UCLA to a computer at Stanford. The message was \"lo\". It was supposed to be \"login\", but the system crashed after the first two letters.\n" +
	"        In the 1980s, the National Science Foundation created a network of supercomputers called NSFNET. This network was much faster than ARPANET and was open to all academic researchers. This was the beginning of the internet as we know it today.\n" +
	"        In 1991, Tim Berners-Lee created the World Wide Web. This made the internet much more user-friendly and led to its explosive growth.\n" +
	"        Today, the internet is a global network of computers that connects billions of people. It is used for everything from communication to commerce to entertainment.\n" +
	"        \n" +
	"        Question: What was the first message sent over ARPANET?\n" +
	"        "

// DefaultPrompts returns the built-in suite P1..P5 in evaluation order.
func DefaultPrompts() []Prompt {
	return []Prompt{
		{ID: "P1", Category: "General knowledge", Input: "Explain what OSI model is in one paragraph."},
		{ID: "P2", Category: "Reasoning", Input: "If a train leaves at 10, travels 300km at 100kmh, when does it arrive."},
		{ID: "P3", Category: "Code generation", Input: "Generate a Python function that sorts a list using bubble sort."},
		{ID: "P4", Category: "Context memory", Input: contextMemoryPrompt},
		{ID: "P5", Category: "Creative writing", Input: "Write a short story about a robot discovering emotions."},
	}
}

// LoadPrompts returns the suite from a YAML file, or the built-in suite when
// path is empty.
func LoadPrompts(path string) ([]Prompt, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPrompts(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts %s: %w", path, err)
	}
	var file promptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse prompts %s: %w", path, err)
	}
	if err := ValidatePrompts(file.Prompts); err != nil {
		return nil, fmt.Errorf("prompts %s: %w", path, err)
	}
	return file.Prompts, nil
}

// ValidatePrompts requires a non-empty suite with unique, non-empty IDs and inputs.
func ValidatePrompts(prompts []Prompt) error {
	if len(prompts) == 0 {
		return errors.New("no prompts defined")
	}
	seen := make(map[string]struct{}, len(prompts))
	var errs []error
	for i, p := range prompts {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			errs = append(errs, fmt.Errorf("prompt %d: missing id", i+1))
			continue
		}
		if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("prompt %s: duplicate id", id))
		}
		seen[id] = struct{}{}
		if strings.TrimSpace(p.Input) == "" {
			errs = append(errs, fmt.Errorf("prompt %s: empty input", id))
		}
	}
	return errors.Join(errs...)
}
