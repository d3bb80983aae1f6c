package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nerdneilsfield/chatdoc/internal/translator"
	"github.com/nerdneilsfield/chatdoc/pkg/providers/factory"
	"github.com/nerdneilsfield/chatdoc/pkg/providers/stats"
	"github.com/nerdneilsfield/chatdoc/pkg/translation"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type translateFlags struct {
	provider      string
	source        string
	target        string
	formality     string
	glossary      string
	report        string
	batchSize     int
	concurrency   int
	rpm           int
	noHeaders     bool
	noFootnotes   bool
	comments      bool
	brevity       bool
	maskProfanity bool
	noProgress    bool
}

func newTranslateCommand(a *app) *cobra.Command {
	f := &translateFlags{}

	cmd := &cobra.Command{
		Use:   "translate <input.docx> <output.docx>",
		Short: "Translate a DOCX file in place, keeping its formatting",
		Long: `Translate extracts the text of every paragraph, table cell and text box,
sends it to the provider in batches and writes the translation back into the
original runs, so styles, numbering and layout are kept.

When some batches fail the output is still written with those blocks left in
the source language, and the command exits with an error.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.translate(cmd, args[0], args[1], f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.provider, "provider", "p", "", "translation provider: "+strings.Join(factory.Supported(), ", "))
	fl.StringVarP(&f.source, "source", "s", "", "source language (default: detected by the provider)")
	fl.StringVarP(&f.target, "target", "t", "", "target language")
	fl.StringVar(&f.formality, "formality", "", "more, less, prefer_more or prefer_less")
	fl.StringVarP(&f.glossary, "glossary", "g", "", "TOML glossary of fixed translations")
	fl.StringVar(&f.report, "report", "", "write the translation report as JSON to this file")
	fl.IntVarP(&f.batchSize, "batch-size", "b", 0, "blocks per provider call")
	fl.IntVar(&f.concurrency, "concurrency", 0, "batches in flight")
	fl.IntVar(&f.rpm, "rpm", 0, "maximum provider calls per minute")
	fl.BoolVar(&f.noHeaders, "no-headers", false, "leave headers and footers untranslated")
	fl.BoolVar(&f.noFootnotes, "no-footnotes", false, "leave footnotes and endnotes untranslated")
	fl.BoolVar(&f.comments, "comments", false, "translate comments")
	fl.BoolVar(&f.brevity, "brevity", false, "ask the provider for short phrasing")
	fl.BoolVar(&f.maskProfanity, "mask-profanity", false, "ask the provider to mask profanity")
	fl.BoolVar(&f.noProgress, "no-progress", false, "disable the progress bar")

	return cmd
}

func (a *app) translateOptions(f *translateFlags) translator.Options {
	tc := a.cfg.Translate

	hints := tc.Hints
	hints.SourceLang = firstNonEmpty(f.source, hints.SourceLang)
	hints.TargetLang = firstNonEmpty(f.target, hints.TargetLang)
	hints.Formality = firstNonEmpty(f.formality, hints.Formality)
	hints.Brevity = hints.Brevity || f.brevity
	hints.MaskProfanity = hints.MaskProfanity || f.maskProfanity

	opts := translator.Options{
		BatchSize:         tc.BatchSize,
		IncludeHeaders:    tc.IncludeHeaders && !f.noHeaders,
		IncludeFootnotes:  tc.IncludeFootnotes && !f.noFootnotes,
		IncludeComments:   tc.IncludeComments || f.comments,
		Hints:             hints,
		Concurrency:       tc.Concurrency,
		RequestsPerMinute: tc.RequestsPerMinute,
	}
	if f.batchSize > 0 {
		opts.BatchSize = f.batchSize
	}
	if f.concurrency > 0 {
		opts.Concurrency = f.concurrency
	}
	if f.rpm > 0 {
		opts.RequestsPerMinute = f.rpm
	}
	return opts
}

func (a *app) batchFunc(f *translateFlags, calls *stats.Manager, cache *translation.MemoryCache) (translation.BatchFunc, string, error) {
	reg, err := factory.Registry(a.cfg.Providers, a.logger)
	if err != nil {
		return nil, "", err
	}
	provider, err := reg.Resolve(factory.Canonical(firstNonEmpty(f.provider, a.cfg.Translate.Provider)))
	if err != nil {
		return nil, "", err
	}
	fn := cache.Wrap(translation.Func(stats.Wrap(provider, calls)))

	path := firstNonEmpty(f.glossary, a.cfg.Translate.GlossaryPath)
	if path != "" {
		g, err := translation.LoadGlossary(path)
		if err != nil {
			return nil, "", err
		}
		a.logger.Debug("using glossary", zap.String("path", path), zap.Int("entries", len(g.Translations)))
		fn = g.Wrap(fn)
	}
	return fn, provider.Name(), nil
}

func (a *app) translate(cmd *cobra.Command, input, output string, f *translateFlags) error {
	calls := stats.NewManager()
	cache := translation.NewMemoryCache()
	fn, name, err := a.batchFunc(f, calls, cache)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	opts := a.translateOptions(f)

	var bar *pterm.ProgressbarPrinter
	if !f.noProgress {
		opts.OnBatch = func(done, total int) {
			if bar == nil {
				bar, _ = pterm.DefaultProgressbar.
					WithTotal(total).
					WithTitle("Translating with " + name).
					WithWriter(cmd.ErrOrStderr()).
					Start()
			}
			if bar != nil {
				bar.Increment()
			}
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := translator.NewCoordinator(a.logger).TranslatePackage(ctx, data, fn, opts)
	if bar != nil {
		_, _ = bar.Stop()
	}
	cs := cache.Stats()
	a.logger.Debug("translation cache", zap.Int64("hits", cs.Hits), zap.Int64("entries", cs.Size))
	if res == nil {
		return err
	}

	if werr := os.WriteFile(output, res.Data, 0o644); werr != nil {
		return fmt.Errorf("failed to write output: %w", werr)
	}

	out := cmd.OutOrStdout()
	renderReport(out, name, &res.Report)
	if res.Report.Batches > 0 {
		calls.Render(out)
	}
	if f.report != "" {
		if rerr := writeReport(f.report, &res.Report); rerr != nil {
			return rerr
		}
	}

	if err != nil {
		warn(out, "%s written with %d untranslated blocks", output, len(res.Report.Untranslated))
		return err
	}
	success(out, "translated %s to %s", input, output)
	return nil
}

func renderReport(w io.Writer, provider string, r *translator.Report) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Item", "Value"})
	tw.AppendRow(table.Row{"Provider", provider})
	tw.AppendRow(table.Row{"Parts", strings.Join(r.Parts, "\n")})
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"Blocks", r.Blocks})
	tw.AppendRow(table.Row{"Submitted", r.Submitted})
	tw.AppendRow(table.Row{"Skipped (blank)", r.Skipped})
	tw.AppendRow(table.Row{"Batches", r.Batches})
	tw.AppendRow(table.Row{"Failed batches", r.Failed})
	tw.AppendRow(table.Row{"Untranslated blocks", len(r.Untranslated)})
	if len(r.FailedParts) > 0 {
		tw.AppendRow(table.Row{"Skipped parts", strings.Join(r.FailedParts, "\n")})
	}
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"Duration", r.Duration.Round(time.Millisecond).String()})
	tw.SetStyle(table.StyleLight)
	tw.Render()
}

func writeReport(path string, r *translator.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
