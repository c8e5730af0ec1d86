package cmd

import (
	"fmt"

	"ruleforge/core"
	"ruleforge/ingest"
)

// renderImportReport prints import warnings; nil reports (synthetic runs)
// print nothing.
func renderImportReport(report *ingest.ImportReport) {
	if report == nil {
		return
	}
	infoColor.Printf("Imported %d events (%d rows read, %d skipped, %d truncated)\n",
		report.Imported, report.TotalRows, report.Skipped, report.Truncated)
	for _, w := range report.Warnings {
		warningColor.Printf("  warning: %s\n", w)
	}
}

// renderRunResult prints the matrix, metrics and grade for one run.
func renderRunResult(result *core.RunResult) {
	headerColor.Printf("\n=== %s ===\n", result.Rule.Name)
	fmt.Printf("Platform: %s  Format: %s  Events: %d\n\n",
		result.Rule.Platform, result.Rule.Format, len(result.Verdicts))

	m := result.Matrix
	fmt.Println("Confusion matrix:")
	fmt.Printf("  TP %-5d FP %-5d\n", m.TruePositive, m.FalsePositive)
	fmt.Printf("  FN %-5d TN %-5d\n\n", m.FalseNegative, m.TrueNegative)

	s := result.Score
	fmt.Printf("Precision          : %.1f%%\n", s.Precision*100)
	fmt.Printf("Recall             : %.1f%%\n", s.Recall*100)
	fmt.Printf("F1                 : %.1f%%\n", s.F1*100)
	if s.EvasionResistance != nil {
		fmt.Printf("Evasion resistance : %.1f%%\n", *s.EvasionResistance*100)
	} else {
		fmt.Printf("Evasion resistance : N/A (no evasion-tagged events)\n")
	}
	fmt.Printf("Composite score    : %.3f\n", s.CompositeScore)
	gradeColor(s.Grade).Printf("Grade              : %s\n", s.Grade)

	timeouts := 0
	for _, v := range result.Verdicts {
		if v.Diagnostic != "" {
			timeouts++
		}
	}
	if timeouts > 0 {
		warningColor.Printf("\n%d events produced matcher diagnostics (see --json for details)\n", timeouts)
	}
}

// renderComparison prints both runs plus the score delta.
func renderComparison(result *core.ComparisonResult) {
	renderRunResult(result.Baseline)
	renderRunResult(result.Improved)

	d := result.Delta
	headerColor.Printf("\n=== Delta (improved - baseline) ===\n")
	fmt.Printf("Precision          : %+.1f%%\n", d.Precision*100)
	fmt.Printf("Recall             : %+.1f%%\n", d.Recall*100)
	fmt.Printf("F1                 : %+.1f%%\n", d.F1*100)
	if d.EvasionResistance != nil {
		fmt.Printf("Evasion resistance : %+.1f%%\n", *d.EvasionResistance*100)
	} else {
		fmt.Printf("Evasion resistance : N/A\n")
	}
	fmt.Printf("Composite          : %+.3f\n", d.CompositeScore)
	fmt.Printf("Grade              : %s -> %s\n", d.GradeFrom, d.GradeTo)
}
