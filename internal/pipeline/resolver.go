package pipeline

import (
	"context"
	"time"

	"stringtable-translator/internal/interpolation"
	"stringtable-translator/internal/stringtable"
	"stringtable-translator/internal/textutil"
	"stringtable-translator/internal/translation"

	"github.com/rs/zerolog/log"
)

// Options configures a Resolver.
type Options struct {
	From string
	To   string
	// Delay is slept after every entry to stay under the API rate limit.
	Delay time.Duration
	// FailureText is proposed for entries whose translation failed.
	FailureText string
}

// Resolver runs every translatable entry of a document through a Translator.
type Resolver struct {
	translator translation.Translator
	opts       Options
	wait       func(ctx context.Context, d time.Duration) error
}

// NewResolver creates a Resolver.
func NewResolver(t translation.Translator, opts Options) *Resolver {
	return &Resolver{
		translator: t,
		opts:       opts,
		wait:       sleep,
	}
}

// ResolveAll translates each translatable entry of doc in document order and
// returns one Entry per entry. Translation failures do not stop the pass:
// the entry is proposed with FailureText instead. Each call sends every
// request again.
//
// The only error returned is the context's; the entries resolved so far are
// returned with it.
func (r *Resolver) ResolveAll(ctx context.Context, doc *stringtable.Document) ([]*stringtable.Entry, error) {
	entries := make([]*stringtable.Entry, 0, doc.Len())

	for i := 0; i < doc.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return entries, err
		}

		entry, err := r.resolveOne(ctx, doc, i)
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)

		log.Debug().
			Int("entry", i+1).
			Int("total", doc.Len()).
			Str("id", entry.ID()).
			Bool("failed", entry.Failed()).
			Msg("Entry translated")

		if err := r.wait(ctx, r.opts.Delay); err != nil {
			return entries, err
		}
	}

	return entries, nil
}

func (r *Resolver) resolveOne(ctx context.Context, doc *stringtable.Document, i int) (*stringtable.Entry, error) {
	text, err := doc.Text(i)
	if err != nil {
		return nil, err
	}

	masked, placeholders := interpolation.Extract(text)

	translated, err := r.translator.Translate(ctx, masked, r.opts.From, r.opts.To)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error().Err(err).Str("id", doc.ID(i)).Str("text", textutil.Truncate(text, 80)).Msg("Translation failed")
		return doc.NewFailedEntry(i, r.opts.FailureText)
	}

	return doc.NewEntry(i, interpolation.Reinsert(translated, placeholders))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
