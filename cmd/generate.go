package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"ruleforge/config"
	"ruleforge/core"
	"ruleforge/telemetry"
)

func newGenerateCmd() *cobra.Command {
	var (
		ruleFile     string
		platformFlag string
		formatFlag   string
		tpCount      int
		tnCount      int
		fpCount      int
		evasionCount int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic validation suite from a rule",
		Long: `Derive synthetic telemetry from a rule's own conditions and write it as
JSONL to stdout: true positives with surface variations, benign true
negatives, partial-match false-positive candidates, and evasion variants.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Logging.Level)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			rule, err := loadRule(ruleFile, "", platformFlag, formatFlag)
			if err != nil {
				return err
			}

			r := buildRunner(cfg, logger)
			tree, err := r.Registry().Compile(rule)
			if err != nil {
				return err
			}
			gen, err := telemetry.NewGenerator(rule.Platform, tree)
			if err != nil {
				return err
			}

			events := gen.TruePositives(tpCount)
			events = append(events, gen.TrueNegatives(tnCount)...)
			events = append(events, gen.FalsePositiveCandidates(fpCount)...)
			events = append(events, gen.EvasionSamples(evasionCount)...)

			enc := json.NewEncoder(os.Stdout)
			for _, ev := range events {
				if err := enc.Encode(ev); err != nil {
					return err
				}
			}
			infoColor.Fprintf(os.Stderr, "Generated %d events\n", len(events))
			return nil
		},
	}

	cmd.Flags().StringVarP(&ruleFile, "rule", "r", "", "Rule file to derive events from (required)")
	cmd.Flags().StringVarP(&platformFlag, "platform", "p", string(core.PlatformGeneric), "Target platform")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", string(core.FormatAuto), "Rule format (auto-detected when omitted)")
	cmd.Flags().IntVar(&tpCount, "true-positives", 10, "Number of true-positive events")
	cmd.Flags().IntVar(&tnCount, "true-negatives", 15, "Number of benign events")
	cmd.Flags().IntVar(&fpCount, "fp-candidates", 5, "Number of partial-match benign events")
	cmd.Flags().IntVar(&evasionCount, "evasion", 5, "Number of evasion variants")
	_ = cmd.MarkFlagRequired("rule")

	return cmd
}
