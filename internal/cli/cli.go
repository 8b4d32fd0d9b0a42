package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"stringtable-translator/internal/cache"
	"stringtable-translator/internal/config"
	"stringtable-translator/internal/filewalker"
	"stringtable-translator/internal/interpolation"
	"stringtable-translator/internal/pipeline"
	"stringtable-translator/internal/stringtable"
	"stringtable-translator/internal/textutil"
	"stringtable-translator/internal/translation"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	setupLogging(false)
	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "stringtable-translator",
		Short: "Machine-assisted translation of game string tables",
		Long: `Translates the entries of one language section of *.string_table.xml files
with the Baidu translation API, lets the operator accept, override or skip each
suggestion, and writes the tables back.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(translateCmd())
	rootCmd.AddCommand(inspectCmd())

	return rootCmd
}

func setupLogging(verbose bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

type translateOptions struct {
	output   string
	mode     string
	language string
	from     string
	to       string
	delay    time.Duration
	memory   bool
	compact  bool
}

func translateCmd() *cobra.Command {
	opts := &translateOptions{}

	cmd := &cobra.Command{
		Use:   "translate <file-or-directory>",
		Short: "Translate string tables and write the results",
		Long: `Translates every entry carrying text in the target language section.

Modes:
  review  prompt for each entry: Enter accepts the suggestion, "+" keeps the
          original text, anything else is used as the translation
  auto    accept every suggestion (failed translations keep the original)
  keep    write every original text back as CDATA without translating`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			applyFlags(cmd, cfg, opts)
			return runTranslate(args[0], cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "translated", "Output directory, or output file when translating a single .xml file")
	f.StringVarP(&opts.mode, "mode", "m", "review", "Resolution mode: review, auto or keep")
	f.StringVar(&opts.language, "language", "", "Language section id to translate (default from TARGET_LANGUAGE_ID)")
	f.StringVar(&opts.from, "from", "", "Source language code (default from SOURCE_LANG)")
	f.StringVar(&opts.to, "to", "", "Target language code (default from TARGET_LANG)")
	f.DurationVar(&opts.delay, "delay", 0, "Delay after each request (default from REQUEST_DELAY_MS)")
	f.BoolVar(&opts.memory, "memory", false, "Use the PostgreSQL translation memory at DATABASE_URL")
	f.BoolVar(&opts.compact, "compact", false, "Write without indentation")

	return cmd
}

func inspectCmd() *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "inspect <file-or-directory>",
		Short: "List translatable entries without calling the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if language == "" {
				language = cfg.LanguageID
			}
			return runInspect(args[0], language)
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Language section id (default from TARGET_LANGUAGE_ID)")
	return cmd
}

// applyFlags lets explicitly set flags override the environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *translateOptions) {
	f := cmd.Flags()
	if f.Changed("language") {
		cfg.LanguageID = opts.language
	}
	if f.Changed("from") {
		cfg.SourceLang = opts.from
	}
	if f.Changed("to") {
		cfg.TargetLang = opts.to
	}
	if f.Changed("delay") {
		cfg.RequestDelay = opts.delay
	}
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func reviewerFor(mode string) (pipeline.Reviewer, error) {
	switch mode {
	case "review":
		return newPromptReviewer(os.Stdout), nil
	case "auto":
		return pipeline.AutoReviewer, nil
	case "keep":
		return pipeline.KeepReviewer, nil
	default:
		return nil, fmt.Errorf("unknown mode %q (want review, auto or keep)", mode)
	}
}

// newTranslator builds the Baidu client, wrapped in translation memory when
// requested. The returned cleanup closes any database pool.
func newTranslator(ctx context.Context, cfg *config.Config, useMemory bool) (translation.Translator, func(), error) {
	if cfg.BaiduAppID == "" || cfg.BaiduSecretKey == "" {
		return nil, nil, errors.New("BAIDU_APP_ID and BAIDU_SECRET_KEY must be set")
	}

	var tr translation.Translator = translation.NewBaiduClient(
		translation.Credentials{AppID: cfg.BaiduAppID, SecretKey: cfg.BaiduSecretKey},
		cfg.BaiduEndpoint,
		cfg.RequestTimeout,
	)

	if !useMemory {
		return tr, func() {}, nil
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, errors.New("--memory requires DATABASE_URL")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")

	store, err := cache.NewPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	memory := cache.NewTranslationCache(store)
	if err := memory.Preload(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to preload cache")
	}

	return cache.NewCachingTranslator(tr, memory), pool.Close, nil
}

// runTranslate handles the `translate` command.
func runTranslate(input string, cfg *config.Config, opts *translateOptions) error {
	ctx, cancel := setupContext()
	defer cancel()

	reviewer, err := reviewerFor(opts.mode)
	if err != nil {
		return err
	}

	files, err := filewalker.Walk(input)
	if err != nil {
		return fmt.Errorf("walk input: %w", err)
	}
	if len(files) == 0 {
		log.Warn().Str("input", input).Msg("No string tables found")
		return nil
	}

	var tr translation.Translator
	if opts.mode != "keep" {
		var cleanup func()
		tr, cleanup, err = newTranslator(ctx, cfg, opts.memory)
		if err != nil {
			return err
		}
		defer cleanup()
	}

	for _, fe := range files {
		outPath := outputPath(input, opts.output, fe)

		sum, err := translateFile(ctx, fe.Path, outPath, cfg, tr, reviewer, !opts.compact)
		if err != nil {
			return fmt.Errorf("%s: %w", fe.Rel, err)
		}

		printSummary(fe.Rel, outPath, sum)
	}

	log.Info().
		Int("files", len(files)).
		Str("output", opts.output).
		Msg("Translation complete")

	return nil
}

// outputPath maps an input file to its destination. A single .xml input with
// an .xml output names the destination file directly; otherwise the input's
// relative path is recreated under the output directory.
func outputPath(input, output string, fe filewalker.FileEntry) string {
	if info, err := os.Stat(input); err == nil && !info.IsDir() && strings.EqualFold(filepath.Ext(output), ".xml") {
		return output
	}
	return filepath.Join(output, fe.Rel)
}

func translateFile(
	ctx context.Context,
	inPath, outPath string,
	cfg *config.Config,
	tr translation.Translator,
	reviewer pipeline.Reviewer,
	pretty bool,
) (pipeline.Summary, error) {
	doc, err := stringtable.Open(inPath, cfg.LanguageID)
	if err != nil {
		return pipeline.Summary{}, err
	}

	log.Info().Str("file", inPath).Int("entries", doc.Len()).Str("language", doc.Language()).Msg("Translating string table")

	var entries []*stringtable.Entry
	if tr == nil {
		entries, err = untranslatedEntries(doc)
	} else {
		resolver := pipeline.NewResolver(tr, pipeline.Options{
			From:        cfg.SourceLang,
			To:          cfg.TargetLang,
			Delay:       cfg.RequestDelay,
			FailureText: cfg.FailureText,
		})
		entries, err = resolver.ResolveAll(ctx, doc)
	}
	if err != nil {
		return pipeline.Summary{}, err
	}

	sum, err := pipeline.Apply(ctx, entries, reviewer)
	if err != nil {
		return sum, err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return sum, fmt.Errorf("create output directory: %w", err)
	}
	if err := doc.WriteFile(outPath, pretty); err != nil {
		return sum, err
	}

	return sum, nil
}

// untranslatedEntries wraps every entry with its own text as the proposal.
func untranslatedEntries(doc *stringtable.Document) ([]*stringtable.Entry, error) {
	entries := make([]*stringtable.Entry, 0, doc.Len())
	for i := 0; i < doc.Len(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return nil, err
		}
		e, err := doc.NewEntry(i, text)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func printSummary(name, outPath string, sum pipeline.Summary) {
	fmt.Printf("%s → %s: %s accepted, %s overridden, %s kept",
		color.CyanString(name),
		outPath,
		color.GreenString("%d", sum.Auto),
		color.YellowString("%d", sum.Overridden),
		color.BlueString("%d", sum.Kept),
	)
	if sum.Failed > 0 {
		fmt.Printf(", %s failed", color.RedString("%d", sum.Failed))
	}
	fmt.Println()
}

// runInspect handles the `inspect` command.
func runInspect(input, language string) error {
	files, err := filewalker.Walk(input)
	if err != nil {
		return fmt.Errorf("walk input: %w", err)
	}

	for _, fe := range files {
		doc, err := stringtable.Open(fe.Path, language)
		if err != nil {
			log.Error().Err(err).Str("file", fe.Rel).Msg("Cannot load string table")
			continue
		}

		fmt.Printf("%s (%s, %d entries)\n", color.CyanString(fe.Rel), doc.Language(), doc.Len())
		for i := 0; i < doc.Len(); i++ {
			text, _ := doc.Text(i)
			markup := ""
			if n := interpolation.Count(text); n > 0 {
				markup = color.YellowString(" [%d markup]", n)
			}
			fmt.Printf("  %-40s %s%s\n", doc.ID(i), textutil.Truncate(text, 60), markup)
		}
	}
	return nil
}
