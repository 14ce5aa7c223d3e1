package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dataset source kinds.
const (
	SourceHub   = "hub"
	SourceJSONL = "jsonl"
)

// Output formats for the sample viewer.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Environment variables that override settings.
const (
	EnvAnswerModel    = "THINKTOOLS_ANSWER_MODEL"
	EnvDataset        = "THINKTOOLS_DATASET"
	EnvDatasetConfig  = "THINKTOOLS_DATASET_CONFIG"
	EnvDatasetPath    = "THINKTOOLS_DATASET_PATH"
	EnvDatasetSource  = "THINKTOOLS_DATASET_SOURCE"
	EnvLogFile        = "THINKTOOLS_LOG_FILE"
	EnvLogFormat      = "THINKTOOLS_LOG_FORMAT"
	EnvLogLevel       = "THINKTOOLS_LOG_LEVEL"
	EnvModel          = "THINKTOOLS_MODEL"
	EnvProvider       = "THINKTOOLS_PROVIDER"
	EnvQuestion       = "THINKTOOLS_QUESTION"
	EnvSamples        = "THINKTOOLS_SAMPLES"
	EnvSplit          = "THINKTOOLS_SPLIT"
	EnvStreaming      = "THINKTOOLS_STREAMING"
	EnvTimeoutSeconds = "THINKTOOLS_TIMEOUT_SECONDS"
)

// Settings is the file-backed configuration of the think-tools commands.
type Settings struct {
	Dataset    DatasetSettings    `yaml:"dataset"`
	Completion CompletionSettings `yaml:"completion"`
	Answer     AnswerSettings     `yaml:"answer"`
	Log        LogSettings        `yaml:"log"`
}

// DatasetSettings configures the sample viewer.
type DatasetSettings struct {
	Source    string `yaml:"source"`
	ID        string `yaml:"id"`
	Config    string `yaml:"config"`
	Split     string `yaml:"split"`
	Path      string `yaml:"path"`
	Endpoint  string `yaml:"endpoint"`
	Streaming bool   `yaml:"streaming"`
	Samples   int    `yaml:"samples"`
	Offset    int    `yaml:"offset"`
	Format    string `yaml:"format"`
}

// CompletionSettings configures the thinking request.
type CompletionSettings struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	Question       string `yaml:"question"`
	Stop           string `yaml:"stop"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Stream         bool   `yaml:"stream"`
}

// AnswerSettings configures the optional second request that feeds the
// thinking back to a model together with the question.
type AnswerSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// LogSettings configures structured logging.
type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// DefaultSettings returns the settings the tools run with when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Dataset: DatasetSettings{
			Source:    SourceHub,
			ID:        "oieieio/OpenR1-Math-220k",
			Config:    "all",
			Split:     "train",
			Streaming: true,
			Samples:   1,
			Format:    FormatText,
		},
		Completion: CompletionSettings{
			Provider:       "huggingface",
			Model:          "deepseek-ai/DeepSeek-R1",
			Question:       "Ask question here",
			Stop:           "</think>",
			TimeoutSeconds: int(DefaultTimeout.Seconds()),
		},
		Answer: AnswerSettings{
			Provider: "together",
			Model:    "meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo",
		},
		Log: LogSettings{
			Level:  "warn",
			Format: "text",
		},
	}
}

// LoadSettings reads settings from a YAML file layered over DefaultSettings.
// An empty path yields the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	path = strings.TrimSpace(path)
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	return s, nil
}

// SaveSettings writes settings as YAML.
func SaveSettings(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return nil
}

// ApplyEnv overrides settings from THINKTOOLS_* environment variables.
func (s *Settings) ApplyEnv() error {
	setString(&s.Dataset.ID, EnvDataset)
	setString(&s.Dataset.Config, EnvDatasetConfig)
	setString(&s.Dataset.Split, EnvSplit)
	setString(&s.Dataset.Source, EnvDatasetSource)
	setString(&s.Dataset.Path, EnvDatasetPath)
	setString(&s.Completion.Provider, EnvProvider)
	setString(&s.Completion.Model, EnvModel)
	setString(&s.Completion.Question, EnvQuestion)
	setString(&s.Answer.Model, EnvAnswerModel)
	setString(&s.Log.Level, EnvLogLevel)
	setString(&s.Log.Format, EnvLogFormat)
	setString(&s.Log.File, EnvLogFile)

	if err := setInt(&s.Dataset.Samples, EnvSamples); err != nil {
		return err
	}
	if err := setInt(&s.Completion.TimeoutSeconds, EnvTimeoutSeconds); err != nil {
		return err
	}
	return setBool(&s.Dataset.Streaming, EnvStreaming)
}

// ValidateDataset checks the settings the sample viewer depends on.
func (s Settings) ValidateDataset() error {
	d := s.Dataset

	switch d.Source {
	case SourceHub:
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("dataset id is required")
		}
		if strings.TrimSpace(d.Split) == "" {
			return fmt.Errorf("dataset split is required")
		}
	case SourceJSONL:
		if strings.TrimSpace(d.Path) == "" {
			return fmt.Errorf("dataset path is required for source %q", SourceJSONL)
		}
	default:
		return fmt.Errorf("unsupported dataset source: %q", d.Source)
	}

	if d.Samples < 0 {
		return fmt.Errorf("samples must not be negative, got: %d", d.Samples)
	}
	if d.Offset < 0 {
		return fmt.Errorf("offset must not be negative, got: %d", d.Offset)
	}
	if d.Format != FormatText && d.Format != FormatJSON {
		return fmt.Errorf("unsupported output format: %q", d.Format)
	}

	return nil
}

// ValidateCompletion checks the settings the completion fetcher depends on.
func (s Settings) ValidateCompletion() error {
	c := s.Completion

	if strings.TrimSpace(c.Provider) == "" {
		return fmt.Errorf("completion provider is required")
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("completion model is required")
	}
	if strings.TrimSpace(c.Question) == "" {
		return fmt.Errorf("question is required")
	}
	if c.Stop == "" {
		return fmt.Errorf("stop sequence is required")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got: %d", c.TimeoutSeconds)
	}

	if s.Answer.Enabled {
		if strings.TrimSpace(s.Answer.Model) == "" {
			return fmt.Errorf("answer model is required when answer is enabled")
		}
	}

	return nil
}

func setString(dst *string, envVar string) {
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, envVar string) error {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", envVar, err)
	}

	*dst = n
	return nil
}

func setBool(dst *bool, envVar string) error {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", envVar, err)
	}

	*dst = b
	return nil
}
