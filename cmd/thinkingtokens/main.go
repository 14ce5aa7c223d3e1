// Command thinkingtokens asks a reasoning model a question and prints its
// thought process, stopping generation at the closing </think> marker.
//
// Usage:
//
//	thinkingtokens -question "What is 17 * 23?"
//	thinkingtokens -model together:deepseek-ai/DeepSeek-R1 -stream
//	thinkingtokens -question "..." -answer
//
// With -answer the thinking is sent, with the question, to a second model
// and its reply is printed after the thinking.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	thinktools "github.com/oieieio/think-tools"
	"github.com/oieieio/think-tools/config"
	"github.com/oieieio/think-tools/internal/logging"
	"github.com/oieieio/think-tools/thinking"

	_ "github.com/oieieio/think-tools/providers/anthropic"
	_ "github.com/oieieio/think-tools/providers/gemini"
	_ "github.com/oieieio/think-tools/providers/huggingface"
	_ "github.com/oieieio/think-tools/providers/llamafile"
	_ "github.com/oieieio/think-tools/providers/ollama"
	_ "github.com/oieieio/think-tools/providers/openai"
	_ "github.com/oieieio/think-tools/providers/together"
)

const commandName = "thinkingtokens"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandName, err)
		stop()
		os.Exit(1)
	}
}

// flagValues holds the raw flag values; only flags the user set are applied.
type flagValues struct {
	configPath     string
	provider       string
	model          string
	question       string
	stop           string
	baseURL        string
	timeout        time.Duration
	stream         bool
	answer         bool
	answerProvider string
	answerModel    string
	logLevel       string
	logFormat      string
	logFile        string
}

func parseFlags(args []string, stderr io.Writer) (*flag.FlagSet, flagValues, error) {
	var v flagValues

	fs := flag.NewFlagSet(commandName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&v.configPath, "config", "", "path to a YAML settings file")
	fs.StringVar(&v.provider, "provider", "", "completion provider name")
	fs.StringVar(&v.model, "model", "", `model id, optionally prefixed "provider:"`)
	fs.StringVar(&v.question, "question", "", "question to ask")
	fs.StringVar(&v.stop, "stop", "", "stop sequence")
	fs.StringVar(&v.baseURL, "base-url", "", "provider base URL")
	fs.DurationVar(&v.timeout, "timeout", 0, "request timeout")
	fs.BoolVar(&v.stream, "stream", false, "stream the thinking as it is generated")
	fs.BoolVar(&v.answer, "answer", false, "send the thinking and question to the answer model")
	fs.StringVar(&v.answerProvider, "answer-provider", "", "answer provider name")
	fs.StringVar(&v.answerModel, "answer-model", "", `answer model id, optionally prefixed "provider:"`)
	fs.StringVar(&v.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&v.logFormat, "log-format", "", "log format: text or json")
	fs.StringVar(&v.logFile, "log-file", "", "rotating log file (default stderr)")

	if err := fs.Parse(args); err != nil {
		return nil, v, err
	}

	return fs, v, nil
}

func applyFlags(fs *flag.FlagSet, v flagValues, s *config.Settings) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "provider":
			s.Completion.Provider = v.provider
		case "model":
			s.Completion.Model = v.model
		case "question":
			s.Completion.Question = v.question
		case "stop":
			s.Completion.Stop = v.stop
		case "base-url":
			s.Completion.BaseURL = v.baseURL
		case "timeout":
			s.Completion.TimeoutSeconds = int(v.timeout.Seconds())
		case "stream":
			s.Completion.Stream = v.stream
		case "answer":
			s.Answer.Enabled = v.answer
		case "answer-provider":
			s.Answer.Provider = v.answerProvider
		case "answer-model":
			s.Answer.Model = v.answerModel
		case "log-level":
			s.Log.Level = v.logLevel
		case "log-format":
			s.Log.Format = v.logFormat
		case "log-file":
			s.Log.File = v.logFile
		}
	})
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, v, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	settings, err := config.LoadSettings(v.configPath)
	if err != nil {
		return err
	}
	if err := settings.ApplyEnv(); err != nil {
		return err
	}
	applyFlags(fs, v, &settings)

	if err := settings.ValidateCompletion(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	logger, err := logging.Init(settings.Log, commandName, stderr)
	if err != nil {
		logger.Warn("log_file_unavailable", "error", err)
	}

	fetcher, err := newFetcher(settings, logger)
	if err != nil {
		return err
	}

	c := settings.Completion
	logger.Info("thinking_start",
		"model", c.Model,
		"fallback_provider", c.Provider,
		"stream", c.Stream,
		"answer", settings.Answer.Enabled,
	)

	start := time.Now()
	var thought string
	if c.Stream {
		thought, err = fetcher.ThinkStream(ctx, c.Question, stdout)
		if err == nil {
			_, err = fmt.Fprintln(stdout)
		}
	} else {
		thought, err = fetcher.Think(ctx, c.Question)
		if err == nil {
			_, err = fmt.Fprintln(stdout, thought)
		}
	}
	if err != nil {
		return err
	}

	logger.Info("thinking_done",
		"chars", len(thought),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if !settings.Answer.Enabled {
		return nil
	}

	answer, err := fetcher.Answer(ctx, thought, c.Question)
	if err != nil {
		return fmt.Errorf("answer: %w", err)
	}

	_, err = fmt.Fprintf(stdout, "\n%s\n", answer)
	return err
}

// newFetcher resolves the providers named in s. Model ids may carry a
// "provider:" prefix; otherwise the configured provider is used.
func newFetcher(s config.Settings, logger *slog.Logger) (*thinking.Fetcher, error) {
	c := s.Completion

	providerOpts := func(baseURL string) []config.Option {
		opts := []config.Option{
			config.WithLogger(logger),
			config.WithTimeout(time.Duration(c.TimeoutSeconds) * time.Second),
		}
		if baseURL != "" {
			opts = append(opts, config.WithBaseURL(baseURL))
		}
		return opts
	}

	provider, model, err := thinktools.NewProviderForModel(c.Model, c.Provider, providerOpts(c.BaseURL)...)
	if err != nil {
		return nil, err
	}

	fetcherOpts := []thinking.Option{
		thinking.WithLogger(logger),
		thinking.WithStop(c.Stop),
	}

	if s.Answer.Enabled {
		answerProviderName := s.Answer.Provider
		if answerProviderName == "" {
			answerProviderName = c.Provider
		}

		answerProvider, answerModel, err := thinktools.NewProviderForModel(s.Answer.Model, answerProviderName, providerOpts("")...)
		if err != nil {
			return nil, fmt.Errorf("answer provider: %w", err)
		}
		fetcherOpts = append(fetcherOpts, thinking.WithAnswer(answerProvider, answerModel))
	}

	return thinking.NewFetcher(provider, model, fetcherOpts...)
}
