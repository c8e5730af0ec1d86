package core

import "fmt"

// ConfusionMatrix is the four-way classification count from comparing rule
// matches against ground-truth event labels.
type ConfusionMatrix struct {
	TruePositive  int `json:"true_positive"`
	FalsePositive int `json:"false_positive"`
	TrueNegative  int `json:"true_negative"`
	FalseNegative int `json:"false_negative"`
}

// Record classifies one verdict into the correct cell.
func (m *ConfusionMatrix) Record(matched, malicious bool) {
	switch {
	case matched && malicious:
		m.TruePositive++
	case matched && !malicious:
		m.FalsePositive++
	case !matched && malicious:
		m.FalseNegative++
	default:
		m.TrueNegative++
	}
}

// Merge adds another matrix into this one. Used to combine per-worker
// partial matrices after a parallel run.
func (m *ConfusionMatrix) Merge(other ConfusionMatrix) {
	m.TruePositive += other.TruePositive
	m.FalsePositive += other.FalsePositive
	m.TrueNegative += other.TrueNegative
	m.FalseNegative += other.FalseNegative
}

// Total returns the number of classified events.
func (m ConfusionMatrix) Total() int {
	return m.TruePositive + m.FalsePositive + m.TrueNegative + m.FalseNegative
}

// IsEmpty reports whether no events were classified.
func (m ConfusionMatrix) IsEmpty() bool {
	return m.Total() == 0
}

// Validate checks matrix invariants against the evaluated event count.
func (m ConfusionMatrix) Validate(eventCount int) error {
	if m.TruePositive < 0 || m.FalsePositive < 0 || m.TrueNegative < 0 || m.FalseNegative < 0 {
		return fmt.Errorf("confusion matrix contains negative counts: %+v", m)
	}
	if m.Total() != eventCount {
		return fmt.Errorf("confusion matrix total %d does not equal event count %d", m.Total(), eventCount)
	}
	return nil
}
