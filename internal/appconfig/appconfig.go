// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout is the default timeout for HTTP requests.
	defaultRequestTimeout = 600 * time.Second
	// defaultResultsDir is where every pipeline writes its records and reports.
	defaultResultsDir = "results"
	// defaultAudioDir is the directory scanned for transcription inputs.
	defaultAudioDir = "audio_samples"
)

// Backend types understood by the provider factory.
const (
	TypeOllama     = "ollama"
	TypeLlamaCpp   = "llamacpp"
	TypeGemini     = "gemini"
	TypeOpenAI     = "openai"
	TypeWhisperCpp = "whisper.cpp"
)

// Config represents the top-level application configuration.
type Config struct {
	Debug                    bool      `json:"debug" mapstructure:"debug"`
	LogFile                  string    `json:"logFile,omitempty" mapstructure:"logFile"`
	TimeoutSeconds           int       `json:"timeout,omitempty" mapstructure:"timeout"`
	ResultsDir               string    `json:"resultsDir,omitempty" mapstructure:"resultsDir"`
	AudioDir                 string    `json:"audioDir,omitempty" mapstructure:"audioDir"`
	PromptsFile              string    `json:"promptsFile,omitempty" mapstructure:"promptsFile"`
	LLMResultsFile           string    `json:"llmResultsFile,omitempty" mapstructure:"llmResultsFile"`
	TranscriptionResultsFile string    `json:"transcriptionResultsFile,omitempty" mapstructure:"transcriptionResultsFile"`
	BaselineFile             string    `json:"baselineFile,omitempty" mapstructure:"baselineFile"`
	Warmup                   bool      `json:"warmup" mapstructure:"warmup"`
	Progress                 bool      `json:"progress" mapstructure:"progress"`
	LLMBackends              []Backend `json:"llmBackends" mapstructure:"llmBackends"`
	TranscriptionBackends    []Backend `json:"transcriptionBackends" mapstructure:"transcriptionBackends"`
	ConfigPath               string    `json:"-" mapstructure:"-"`
}

// Backend describes one model behind one API, local or cloud.
type Backend struct {
	Name              string     `json:"name" mapstructure:"name"`
	Type              string     `json:"type" mapstructure:"type"`
	URL               string     `json:"url" mapstructure:"url"`
	Model             string     `json:"model" mapstructure:"model"`
	APIKeyEnv         string     `json:"apiKeyEnv,omitempty" mapstructure:"apiKeyEnv"`
	Cloud             bool       `json:"cloud" mapstructure:"cloud"`
	CostPerCall       *float64   `json:"costPerCall,omitempty" mapstructure:"costPerCall"`
	RequestsPerMinute int        `json:"requestsPerMinute,omitempty" mapstructure:"requestsPerMinute"`
	DisableStreaming  bool       `json:"disableStreaming,omitempty" mapstructure:"disableStreaming"`
	Language          string     `json:"language,omitempty" mapstructure:"language"`
	SystemPrompt      string     `json:"systemprompt,omitempty" mapstructure:"systemprompt"`
	ParameterTemplate string     `json:"parameterTemplate,omitempty" mapstructure:"parameterTemplate"`
	Parameters        Parameters `json:"parameters" mapstructure:"parameters"`
}

// Parameters defines the sampling parameters forwarded to LLM backends.
type Parameters struct {
	TopK          *int     `json:"top_k,omitempty" mapstructure:"top_k"`
	TopP          *float64 `json:"top_p,omitempty" mapstructure:"top_p"`
	MinP          *float64 `json:"min_p,omitempty" mapstructure:"min_p"`
	Temperature   *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	RepeatPenalty *float64 `json:"repeat_penalty,omitempty" mapstructure:"repeat_penalty"`
	Seed          *int64   `json:"seed,omitempty" mapstructure:"seed"`
	MaxTokens     *int     `json:"max_tokens,omitempty" mapstructure:"max_tokens"`
}

// DefaultLLMBackends reproduces the local Gemma vs cloud Gemini comparison.
func DefaultLLMBackends() []Backend {
	return []Backend{
		{
			Name:  "Gemma3 (4B)",
			Type:  TypeOllama,
			URL:   "http://localhost:11434",
			Model: "gemma3:4b",
		},
		{
			Name:      "Gemini",
			Type:      TypeGemini,
			URL:       "https://generativelanguage.googleapis.com",
			Model:     "gemini-2.5-flash-lite",
			APIKeyEnv: "GEMINI_API_KEY",
			Cloud:     true,
		},
	}
}

// DefaultTranscriptionBackends returns the local whisper.cpp server running the base model.
func DefaultTranscriptionBackends() []Backend {
	return []Backend{
		{
			Name:  "Local Whisper (base)",
			Type:  TypeWhisperCpp,
			URL:   "http://localhost:8080",
			Model: "base",
		},
	}
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "lvcbench.log"
}

// ResultsDirPath returns the directory holding result files and reports.
func (c Config) ResultsDirPath() string {
	if dir := strings.TrimSpace(c.ResultsDir); dir != "" {
		return dir
	}
	return defaultResultsDir
}

// AudioDirPath returns the directory scanned for audio inputs.
func (c Config) AudioDirPath() string {
	if dir := strings.TrimSpace(c.AudioDir); dir != "" {
		return dir
	}
	return defaultAudioDir
}

// LLMResultsPath is the record file written by the llm pipeline.
func (c Config) LLMResultsPath() string {
	return c.resultsFile(c.LLMResultsFile, "results.json")
}

// TranscriptionResultsPath is the record file written by the transcription pipeline.
func (c Config) TranscriptionResultsPath() string {
	return c.resultsFile(c.TranscriptionResultsFile, "local_results.json")
}

// BaselinePath is the optional pre-supplied cloud record file.
func (c Config) BaselinePath() string {
	return c.resultsFile(c.BaselineFile, "cloud_results.json")
}

// ComparisonPath is the markdown report written by the analyzers.
func (c Config) ComparisonPath() string {
	return filepath.Join(c.ResultsDirPath(), "comparison.md")
}

// ChartsDirPath is the directory receiving rendered charts.
func (c Config) ChartsDirPath() string {
	return filepath.Join(c.ResultsDirPath(), "charts")
}

func (c Config) resultsFile(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	return filepath.Join(c.ResultsDirPath(), name)
}

// APIKey resolves the backend's key from its environment variable.
func (b Backend) APIKey() string {
	env := strings.TrimSpace(b.APIKeyEnv)
	if env == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(env))
}

// Label is the identifier written into records for this backend.
func (b Backend) Label() string {
	if name := strings.TrimSpace(b.Name); name != "" {
		return name
	}
	return b.Model
}

// WithDefaults fills in the default local-vs-cloud backends and paths when
// the configuration omits them.
func (c Config) WithDefaults() Config {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}
	if len(c.LLMBackends) == 0 {
		c.LLMBackends = DefaultLLMBackends()
	}
	if len(c.TranscriptionBackends) == 0 {
		c.TranscriptionBackends = DefaultTranscriptionBackends()
	}
	for i := range c.LLMBackends {
		b := &c.LLMBackends[i]
		if b.Type == TypeGemini && b.APIKeyEnv == "" {
			b.APIKeyEnv = "GEMINI_API_KEY"
		}
		if b.Type == TypeOpenAI && b.APIKeyEnv == "" {
			b.APIKeyEnv = "OPENAI_API_KEY"
		}
	}
	for i := range c.TranscriptionBackends {
		b := &c.TranscriptionBackends[i]
		if b.Type == TypeOpenAI && b.APIKeyEnv == "" {
			b.APIKeyEnv = "OPENAI_API_KEY"
		}
	}
	return c
}

// Validate rejects backends the provider factory cannot build.
func (c Config) Validate() error {
	var errs []error
	for _, b := range c.LLMBackends {
		switch b.Type {
		case TypeOllama, TypeLlamaCpp, TypeGemini, TypeOpenAI:
		default:
			errs = append(errs, fmt.Errorf("llm backend %q: unsupported type %q", b.Label(), b.Type))
		}
		if strings.TrimSpace(b.Label()) == "" {
			errs = append(errs, errors.New("llm backend requires a name or model"))
		}
	}
	for _, b := range c.TranscriptionBackends {
		switch b.Type {
		case TypeWhisperCpp, TypeOpenAI:
		default:
			errs = append(errs, fmt.Errorf("transcription backend %q: unsupported type %q", b.Label(), b.Type))
		}
		if strings.TrimSpace(b.Label()) == "" {
			errs = append(errs, errors.New("transcription backend requires a name or model"))
		}
	}
	return errors.Join(errs...)
}

// Load reads the application configuration from the specified path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("no configuration file found at %q", path)
		}
		return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
	}

	config = config.WithDefaults()
	if err := ApplyParameterTemplates(&config); err != nil {
		return Config{}, err
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	config.ConfigPath = path
	return config, nil
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	return config, nil
}
