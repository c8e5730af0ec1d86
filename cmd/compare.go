package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ruleforge/config"
	"ruleforge/core"
)

func newCompareCmd() *cobra.Command {
	var (
		baselineFile string
		improvedFile string
		platformFlag string
		formatFlag   string
		eventsFile   string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a baseline and an improved rule on the same events",
		Long: `Run two revisions of a rule against the identical event sequence and
report the score delta. Both runs see the same events in the same order, so
any difference is attributable to the rule change alone.`,
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

			baseline, err := loadRule(baselineFile, "baseline", platformFlag, formatFlag)
			if err != nil {
				return fmt.Errorf("baseline rule: %w", err)
			}
			improved, err := loadRule(improvedFile, "improved", platformFlag, formatFlag)
			if err != nil {
				return fmt.Errorf("improved rule: %w", err)
			}

			r := buildRunner(cfg, logger)
			events, report, err := loadEvents(r, baseline, eventsFile, cfg)
			if err != nil {
				return err
			}

			sp := newSpinner("Comparing rule revisions...")
			result, err := r.Compare(ctx, baseline, improved, events)
			sp.Stop()
			if err != nil {
				return err
			}

			if outputJSON {
				return outputAsJSON(result)
			}
			renderImportReport(report)
			renderComparison(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&baselineFile, "baseline", "b", "", "Baseline rule file (required)")
	cmd.Flags().StringVarP(&improvedFile, "improved", "i", "", "Improved rule file (required)")
	cmd.Flags().StringVarP(&platformFlag, "platform", "p", string(core.PlatformGeneric), "Target platform")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", string(core.FormatAuto), "Rule format (auto-detected when omitted)")
	cmd.Flags().StringVarP(&eventsFile, "events", "e", "", "Event payload file (synthetic suite when omitted)")
	_ = cmd.MarkFlagRequired("baseline")
	_ = cmd.MarkFlagRequired("improved")

	return cmd
}
