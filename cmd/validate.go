package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"ruleforge/config"
	"ruleforge/core"
	"ruleforge/ingest"
	"ruleforge/runner"
	"ruleforge/telemetry"
)

const defaultTimeout = 2 * time.Minute

func newValidateCmd() *cobra.Command {
	var (
		ruleFile     string
		ruleName     string
		platformFlag string
		formatFlag   string
		eventsFile   string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Evaluate a detection rule against an event set and grade it",
		Long: `Evaluate a detection rule against telemetry events. Events come from
--events (JSON array, JSONL/NDJSON or CSV with a header row); without it a
synthetic validation suite is generated from the rule's own conditions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Logging.Level)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			rule, err := loadRule(ruleFile, ruleName, platformFlag, formatFlag)
			if err != nil {
				return err
			}

			r := buildRunner(cfg, logger)
			events, report, err := loadEvents(r, rule, eventsFile, cfg)
			if err != nil {
				return err
			}

			sp := newSpinner("Evaluating rule against events...")
			result, err := r.Run(ctx, rule, events)
			sp.Stop()
			if err != nil {
				return err
			}

			if outputJSON {
				return outputAsJSON(result)
			}
			renderImportReport(report)
			renderRunResult(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&ruleFile, "rule", "r", "", "Rule file to validate (required)")
	cmd.Flags().StringVar(&ruleName, "name", "", "Rule display name (defaults to the file name)")
	cmd.Flags().StringVarP(&platformFlag, "platform", "p", string(core.PlatformGeneric), "Target platform")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", string(core.FormatAuto), "Rule format (auto-detected when omitted)")
	cmd.Flags().StringVarP(&eventsFile, "events", "e", "", "Event payload file (.json, .jsonl, .ndjson or .csv)")
	_ = cmd.MarkFlagRequired("rule")

	return cmd
}

// loadRule reads the rule text and builds its definition.
func loadRule(path, name, platformFlag, formatFlag string) (*core.RuleDefinition, error) {
	platform, err := parsePlatform(platformFlag)
	if err != nil {
		return nil, err
	}
	format, err := parseFormat(formatFlag)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return core.NewRuleDefinition(name, platform, format, string(raw)), nil
}

// loadEvents imports the events file, or generates a synthetic suite from
// the rule's own conditions when no file is given.
func loadEvents(r *runner.Runner, rule *core.RuleDefinition, eventsFile string, cfg *config.Config) ([]*core.Event, *ingest.ImportReport, error) {
	if eventsFile == "" {
		tree, err := r.Registry().Compile(rule)
		if err != nil {
			return nil, nil, err
		}
		gen, err := telemetry.NewGenerator(rule.Platform, tree)
		if err != nil {
			return nil, nil, err
		}
		return gen.Suite(), nil, nil
	}

	payload, err := os.ReadFile(eventsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("reading events file: %w", err)
	}
	format, err := payloadFormatFor(eventsFile)
	if err != nil {
		return nil, nil, err
	}
	imp, err := ingest.NewImporter(rule.Platform, ingest.Limits{
		MaxBytes: cfg.Import.MaxBytes,
		MaxRows:  cfg.Import.MaxRows,
	})
	if err != nil {
		return nil, nil, err
	}
	return imp.Import(payload, format)
}

// payloadFormatFor maps a file extension onto the declared payload format.
func payloadFormatFor(path string) (ingest.PayloadFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ingest.PayloadJSON, nil
	case ".jsonl":
		return ingest.PayloadJSONL, nil
	case ".ndjson":
		return ingest.PayloadNDJSON, nil
	case ".csv":
		return ingest.PayloadCSV, nil
	default:
		return "", fmt.Errorf("cannot infer payload format from %q (expected .json, .jsonl, .ndjson or .csv)", path)
	}
}

func newSpinner(message string) *spinner.Spinner {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Suffix = " " + message
	sp.Start()
	return sp
}

func outputAsJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
