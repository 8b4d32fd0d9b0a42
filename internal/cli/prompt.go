package cli

import (
	"context"
	"fmt"
	"io"

	"stringtable-translator/internal/pipeline"
	"stringtable-translator/internal/stringtable"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
)

// keepOriginal is typed by the operator to leave an entry untranslated.
const keepOriginal = "+"

// decide maps operator input to a decision.
func decide(input string) pipeline.Decision {
	switch input {
	case "":
		return pipeline.Decision{Action: pipeline.Auto}
	case keepOriginal:
		return pipeline.Decision{Action: pipeline.Keep}
	default:
		return pipeline.Decision{Action: pipeline.Override, Text: input}
	}
}

type promptReviewer struct {
	out      io.Writer
	prompt   func(label string) (string, error)
	position int
}

func newPromptReviewer(out io.Writer) *promptReviewer {
	return &promptReviewer{
		out: out,
		prompt: func(label string) (string, error) {
			return (&promptui.Prompt{
				Label: label,
				Templates: &promptui.PromptTemplates{
					Prompt:  "{{ . }} ",
					Valid:   "{{ . | green }} ",
					Success: "{{ . | cyan | bold }} ",
				},
			}).Run()
		},
	}
}

func (r *promptReviewer) Review(ctx context.Context, e *stringtable.Entry) (pipeline.Decision, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Decision{}, err
	}
	r.position++

	fmt.Fprintf(r.out, "\n%s %s\n", color.CyanString("[%d] %s", r.position, e.ID()), e.OriginalText())
	if e.Failed() {
		fmt.Fprintf(r.out, "%s %s\n", color.RedString("machine:"), e.ProposedText())
	} else {
		fmt.Fprintf(r.out, "%s %s\n", color.GreenString("machine:"), e.ProposedText())
	}

	input, err := r.prompt(`Translation (Enter accepts, "+" keeps original)`)
	if err != nil {
		return pipeline.Decision{}, fmt.Errorf("prompt: %w", err)
	}

	d := decide(input)
	if d.Action == pipeline.Auto && e.Failed() {
		// Accepting the failure notice would write it into the table.
		d = pipeline.Decision{Action: pipeline.Keep}
	}
	return d, nil
}
