package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/one2ten/stetho-agent/internal/classifier"
	"github.com/one2ten/stetho-agent/internal/config"
	"github.com/one2ten/stetho-agent/internal/literature"
	"github.com/one2ten/stetho-agent/internal/narrative"
	"github.com/one2ten/stetho-agent/internal/prompts"
	"github.com/one2ten/stetho-agent/internal/triage"
	"github.com/one2ten/stetho-agent/pkg/cache"
	"github.com/one2ten/stetho-agent/pkg/lifecycle"
)

var (
	inputPath string
	audioPath string
	mode      string
	format    string
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a triage assessment",
	Long: `Run a triage assessment and print the report.

The input file holds vitals, symptoms, an optional pre-computed audio
classification, and the user mode, as JSON or YAML. Omitted sections fall
back to defaults. With --audio, the recording is sent to the configured
classifier and its result replaces any classification in the input.`,
	Example: `  # Assess from a YAML file
  stetho run --input patient.yaml

  # Read JSON from stdin and print the full report as JSON
  cat patient.json | stetho run --input - --format json

  # Classify a recording first
  stetho run --input patient.yaml --audio beat.wav --mode professional`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssessment(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input file (JSON or YAML); - reads stdin")
	runCmd.Flags().StringVarP(&audioPath, "audio", "a", "", "Auscultation recording to classify before the run")
	runCmd.Flags().StringVarP(&mode, "mode", "m", "", "User mode override (general, professional)")
	runCmd.Flags().StringVarP(&format, "format", "f", formatMarkdown, "Output format (markdown, json, yaml)")
}

func runAssessment(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	in, err := readInput(inputPath, os.Stdin)
	if err != nil {
		return err
	}
	if mode != "" {
		in.UserMode = triage.UserMode(mode)
	}

	if audioPath != "" {
		c := classifier.New(&cfg.Classifier, logger)
		data, err := os.ReadFile(audioPath)
		if err != nil {
			return fmt.Errorf("read recording: %w", err)
		}
		audio, err := c.Classify(ctx, filepath.Base(audioPath), data)
		if err != nil {
			return err
		}
		in.Audio = audio
	}

	rt, closeRuntime, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer closeRuntime()

	report, err := triage.Run(ctx, rt, in)
	if err != nil {
		return err
	}

	if degraded := report.Degraded(); len(degraded) > 0 {
		logger.Warn("report has degraded sections", "sections", degraded)
	}

	return writeReport(out, report, format)
}

// newRuntime builds the triage runtime for a single run. The returned func
// closes the cache connection and must be called once the run is done.
func newRuntime(cfg *config.Config) (*triage.Runtime, func(), error) {
	ref, err := cfg.Triage.Reference()
	if err != nil {
		return nil, nil, fmt.Errorf("reference data: %w", err)
	}

	logger := newLogger()
	store, closeCache := openCache(cfg, logger)

	return &triage.Runtime{
		Generator: narrative.New(&cfg.Agent, &cfg.Narrative, logger),
		Searcher:  literature.New(&cfg.Literature, store, logger),
		Prompts:   prompts.Defaults(),
		Reference: ref,
		Logger:    logger,
		Timeout:   cfg.Triage.RunTimeoutDuration(),
	}, closeCache, nil
}

// openCache connects the cache through a short-lived lifecycle so the ping
// runs once under the connection timeout. An unreachable server leaves the
// cache degraded to always-miss.
func openCache(cfg *config.Config, logger *slog.Logger) (cache.System, func()) {
	lc := lifecycle.New()
	store := cache.New(&cfg.Cache, logger)
	if err := store.Start(lc); err != nil {
		logger.Warn("cache start failed", "error", err)
	}
	lc.WaitForStartup()

	return store, func() {
		if err := lc.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
			logger.Warn("cache shutdown incomplete", "error", err)
		}
	}
}

// readInput decodes a run input from path. YAML is a superset of JSON, so a
// single decoder handles both. An empty path yields an empty input.
func readInput(path string, stdin io.Reader) (triage.Input, error) {
	var in triage.Input

	var (
		data []byte
		err  error
	)
	switch path {
	case "":
		return in, nil
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return in, fmt.Errorf("read input: %w", err)
	}

	if strings.TrimSpace(string(data)) == "" {
		return in, nil
	}

	if err := yaml.UnmarshalWithOptions(data, &in, yaml.UseJSONUnmarshaler()); err != nil {
		return in, fmt.Errorf("parse input: %w", err)
	}
	return in, nil
}

func writeReport(out io.Writer, report *triage.Report, format string) error {
	switch format {
	case formatMarkdown:
		_, err := io.WriteString(out, report.Markdown())
		return err
	default:
		return writeStructured(out, report, format)
	}
}

// writeStructured renders v as JSON or YAML. YAML is converted from the JSON
// encoding so both formats share the json field names.
func writeStructured(out io.Writer, v any, format string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	switch format {
	case formatJSON:
		data = append(data, '\n')
	case formatYAML:
		if data, err = yaml.JSONToYAML(data); err != nil {
			return fmt.Errorf("convert to yaml: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	_, err = out.Write(data)
	return err
}
