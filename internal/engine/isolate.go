package engine

import (
	"context"
	"fmt"
)

// Outcome classifies what happened to a single rule, sequence, or enrollment
// during a trigger pass. The public trigger result collapses these into
// counters, but keeping the reason explicit lets tests assert why an item was
// skipped.
type Outcome int

const (
	// OutcomeMatched means the item fired: a message was scheduled, an
	// enrollment was created, or an enrollment was cancelled.
	OutcomeMatched Outcome = iota
	// OutcomeSkippedNoMatch means the item's conditions rejected the payload.
	OutcomeSkippedNoMatch
	// OutcomeSkippedConfig means the item was not actionable as configured:
	// missing template, missing enrollment email. Expected steady state, not
	// an error.
	OutcomeSkippedConfig
	// OutcomeSkippedDuplicate means the contact was already enrolled.
	OutcomeSkippedDuplicate
	// OutcomeFailed means processing the item returned an error.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeSkippedNoMatch:
		return "skipped_no_match"
	case OutcomeSkippedConfig:
		return "skipped_config"
	case OutcomeSkippedDuplicate:
		return "skipped_duplicate"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type itemFailure[T any] struct {
	item T
	err  error
}

type isolationSummary[T any] struct {
	matched          int
	skippedNoMatch   int
	skippedConfig    int
	skippedDuplicate int
	failures         []itemFailure[T]
}

// forEachIsolated runs fn over every item, never letting one item's failure
// or panic stop the rest. Failures are collected with the item that caused
// them so the caller can log identifying detail.
func forEachIsolated[T any](ctx context.Context, items []T, fn func(context.Context, T) (Outcome, error)) isolationSummary[T] {
	var summary isolationSummary[T]
	for _, item := range items {
		outcome, err := runIsolated(ctx, item, fn)
		switch outcome {
		case OutcomeMatched:
			summary.matched++
		case OutcomeSkippedNoMatch:
			summary.skippedNoMatch++
		case OutcomeSkippedConfig:
			summary.skippedConfig++
		case OutcomeSkippedDuplicate:
			summary.skippedDuplicate++
		case OutcomeFailed:
			summary.failures = append(summary.failures, itemFailure[T]{item: item, err: err})
		}
	}
	return summary
}

func runIsolated[T any](ctx context.Context, item T, fn func(context.Context, T) (Outcome, error)) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomeFailed
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	outcome, err = fn(ctx, item)
	if err != nil {
		return OutcomeFailed, err
	}
	return outcome, nil
}
