package pipeline

import (
	"context"
	"fmt"

	"stringtable-translator/internal/stringtable"

	"github.com/rs/zerolog/log"
)

// Action is an operator's choice for one entry.
type Action int

const (
	// Auto accepts the proposed machine translation.
	Auto Action = iota
	// Keep writes the original text back untranslated.
	Keep
	// Override writes Decision.Text.
	Override
)

// Decision is a Reviewer's verdict on one entry.
type Decision struct {
	Action Action
	Text   string
}

// Reviewer decides how each entry is resolved.
type Reviewer interface {
	Review(ctx context.Context, e *stringtable.Entry) (Decision, error)
}

// ReviewerFunc adapts a function to a Reviewer.
type ReviewerFunc func(ctx context.Context, e *stringtable.Entry) (Decision, error)

func (f ReviewerFunc) Review(ctx context.Context, e *stringtable.Entry) (Decision, error) {
	return f(ctx, e)
}

// AutoReviewer accepts every machine translation. Entries whose translation
// failed keep their original text.
var AutoReviewer = ReviewerFunc(func(_ context.Context, e *stringtable.Entry) (Decision, error) {
	if e.Failed() {
		return Decision{Action: Keep}, nil
	}
	return Decision{Action: Auto}, nil
})

// KeepReviewer marks every entry intentionally untranslated.
var KeepReviewer = ReviewerFunc(func(context.Context, *stringtable.Entry) (Decision, error) {
	return Decision{Action: Keep}, nil
})

// Summary counts how entries were resolved.
type Summary struct {
	Auto       int
	Overridden int
	Kept       int
	Failed     int
}

// Total is the number of resolved entries.
func (s Summary) Total() int { return s.Auto + s.Overridden + s.Kept }

// Apply asks the reviewer about each entry in order and resolves it. It stops
// at the first reviewer error, leaving later entries pending.
func Apply(ctx context.Context, entries []*stringtable.Entry, reviewer Reviewer) (Summary, error) {
	var sum Summary

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if e.Failed() {
			sum.Failed++
		}

		d, err := reviewer.Review(ctx, e)
		if err != nil {
			return sum, fmt.Errorf("review entry %q: %w", e.ID(), err)
		}

		switch d.Action {
		case Auto:
			e.AcceptAuto()
			sum.Auto++
		case Keep:
			e.Reject()
			sum.Kept++
		case Override:
			e.AcceptText(d.Text)
			sum.Overridden++
		default:
			return sum, fmt.Errorf("review entry %q: unknown action %d", e.ID(), d.Action)
		}
	}

	log.Info().
		Int("auto", sum.Auto).
		Int("overridden", sum.Overridden).
		Int("kept", sum.Kept).
		Int("failed", sum.Failed).
		Msg("Review complete")

	return sum, nil
}
