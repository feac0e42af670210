package guardrails

import (
	"context"
	"fmt"
)

// Verdict is the structured result of screening a single user utterance.
type Verdict struct {
	// Reasoning explains the classification, mostly useful for logs.
	Reasoning string `json:"reasoning"`
	// IsAbnormal is true when the utterance should not reach the agents.
	IsAbnormal bool `json:"is_abnormal"`
}

// Classifier screens user input before it reaches the agents.
type Classifier interface {
	Classify(ctx context.Context, input string) (*Verdict, error)
}

// TrippedError signals that a classifier rejected the input. It carries the
// verdict so callers can log the reasoning.
type TrippedError struct {
	Verdict Verdict
}

func (e *TrippedError) Error() string {
	return fmt.Sprintf("guardrail tripped: %s", e.Verdict.Reasoning)
}
