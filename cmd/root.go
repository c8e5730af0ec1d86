// Package cmd implements the ruleforge CLI: validate a rule against an
// event set, compare two rule revisions, and generate synthetic telemetry.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ruleforge/config"
	"ruleforge/core"
	"ruleforge/match"
	"ruleforge/runner"
	"ruleforge/score"
)

var (
	outputJSON bool
	noColor    bool

	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
)

// NewRootCmd creates the ruleforge root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ruleforge",
		Short: "Validate and grade detection rules against telemetry events",
		Long: `RuleForge evaluates detection rules (S1QL, KQL, ASQ, OQL, PAN-OS,
Sigma, Okta EventHook, ProofPoint Smart Search) against telemetry events and
produces precision/recall/F1, evasion resistance and a letter grade.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newGenerateCmd())

	return rootCmd
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) (*zap.SugaredLogger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// buildRunner assembles a runner from loaded configuration.
func buildRunner(cfg *config.Config, logger *zap.SugaredLogger) *runner.Runner {
	return runner.New(runner.Options{
		Limits: core.TreeLimits{
			MaxDepth:         cfg.Parser.MaxTreeDepth,
			MaxNodes:         cfg.Parser.MaxTreeNodes,
			MaxPatternLength: cfg.Matcher.MaxPatternLength,
		},
		Budget: match.Budget{
			RegexTimeout:      cfg.Matcher.RegexTimeout,
			MaxPatternLength:  cfg.Matcher.MaxPatternLength,
			MaxFieldValueSize: cfg.Matcher.MaxFieldValueSize,
		},
		Weights: score.Weights{
			Precision: cfg.Scoring.Weights.Precision,
			Recall:    cfg.Scoring.Weights.Recall,
			F1:        cfg.Scoring.Weights.F1,
			Evasion:   cfg.Scoring.Weights.Evasion,
		},
		Grades:  score.GradeThresholds(cfg.Scoring.GradeThresholds),
		Workers: cfg.Runner.Workers,
		Logger:  logger,
	})
}

// parsePlatform maps a CLI platform name onto its enumerated value.
func parsePlatform(s string) (core.PlatformID, error) {
	p := core.PlatformID(strings.ToLower(strings.TrimSpace(s)))
	if _, err := core.SchemaFor(p); err != nil {
		return "", fmt.Errorf("unsupported platform %q (supported: %v)", s, core.SupportedPlatforms())
	}
	return p, nil
}

// parseFormat maps a CLI format name onto its enumerated value.
func parseFormat(s string) (core.RuleFormat, error) {
	switch core.RuleFormat(strings.ToLower(strings.TrimSpace(s))) {
	case core.FormatS1QL:
		return core.FormatS1QL, nil
	case core.FormatKQL:
		return core.FormatKQL, nil
	case core.FormatASQ:
		return core.FormatASQ, nil
	case core.FormatOQL:
		return core.FormatOQL, nil
	case core.FormatPANOS:
		return core.FormatPANOS, nil
	case core.FormatSigma:
		return core.FormatSigma, nil
	case core.FormatEventHook:
		return core.FormatEventHook, nil
	case core.FormatSmartSearch:
		return core.FormatSmartSearch, nil
	case core.FormatGeneric:
		return core.FormatGeneric, nil
	case core.FormatAuto, "":
		return core.FormatAuto, nil
	default:
		return "", fmt.Errorf("unsupported rule format %q", s)
	}
}

func gradeColor(grade string) *color.Color {
	switch grade {
	case "A":
		return successColor
	case "B":
		return infoColor
	case "C", "D":
		return warningColor
	default:
		return errorColor
	}
}
