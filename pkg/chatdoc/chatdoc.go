// Package chatdoc exports chat transcripts as office documents and
// retranslates existing word-processing packages in place.
package chatdoc

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/chatdoc/internal/container"
	"github.com/nerdneilsfield/chatdoc/internal/docx"
	"github.com/nerdneilsfield/chatdoc/internal/pdf"
	"github.com/nerdneilsfield/chatdoc/internal/transcript"
	"github.com/nerdneilsfield/chatdoc/internal/translator"
	"github.com/nerdneilsfield/chatdoc/pkg/translation"
)

// Message is one chat turn. Content may be decoded from a string, a list of
// strings or a list of typed fragments.
type Message = transcript.Message

// Text returns plain string content.
func Text(s string) transcript.Content {
	return transcript.Text(s)
}

// Options controls document export.
type Options struct {
	// Title overrides the derived title.
	Title  string
	Author string

	// Header and Footer override the branding. The footer template expands
	// {page} and {pages}.
	Header string
	Footer string

	// Math enables TeX math in message content.
	Math bool

	// PageSize and FontPath only affect RenderPaginated.
	PageSize string
	FontPath string

	Now    time.Time
	Logger *zap.Logger
}

func (o Options) conversation(messages []Message) *transcript.Conversation {
	return transcript.Prepare(messages, transcript.PrepareOptions{Title: o.Title, Math: o.Math})
}

// BuildDocument renders messages as a DOCX package.
func BuildDocument(messages []Message, opts Options) ([]byte, error) {
	return docx.Build(opts.conversation(messages), docx.Options{
		Title:  opts.Title,
		Author: opts.Author,
		Branding: docx.Branding{
			Header: opts.Header,
			Footer: opts.Footer,
		},
		Now:    opts.Now,
		Logger: opts.Logger,
	})
}

// RenderPaginated renders messages as a paginated PDF.
func RenderPaginated(messages []Message, opts Options) ([]byte, error) {
	return pdf.Render(opts.conversation(messages), pdf.Options{
		Title:  opts.Title,
		Author: opts.Author,
		Branding: pdf.Branding{
			Header: opts.Header,
			Footer: opts.Footer,
		},
		PageSize: opts.PageSize,
		FontPath: opts.FontPath,
		Now:      opts.Now,
		Logger:   opts.Logger,
	})
}

// ExportMarkdown renders messages as one canonical markdown document.
func ExportMarkdown(messages []Message, opts Options) ([]byte, error) {
	return []byte(opts.conversation(messages).Markdown()), nil
}

// TranslateOptions controls package translation. Start from
// DefaultTranslateOptions.
type TranslateOptions struct {
	BatchSize        int
	IncludeHeaders   bool
	IncludeFootnotes bool
	IncludeComments  bool

	// Hints are forwarded to every batch call unchanged.
	Hints translation.Hints

	Concurrency       int
	RequestsPerMinute int
	OnBatch           func(done, total int)
	Logger            *zap.Logger
}

// DefaultTranslateOptions returns batch size 50 with headers and footnotes
// included.
func DefaultTranslateOptions() TranslateOptions {
	d := translator.DefaultOptions()
	return TranslateOptions{
		BatchSize:        d.BatchSize,
		IncludeHeaders:   d.IncludeHeaders,
		IncludeFootnotes: d.IncludeFootnotes,
		IncludeComments:  d.IncludeComments,
		Concurrency:      d.Concurrency,
	}
}

// TranslatePackage retranslates the DOCX package in data through fn and
// returns the new package. When only some batches fail the new package is
// returned together with an error for which translator.IsPartial holds.
func TranslatePackage(ctx context.Context, data []byte, fn translation.BatchFunc, opts TranslateOptions) ([]byte, error) {
	res, err := translator.NewCoordinator(opts.Logger).TranslatePackage(ctx, data, fn, translator.Options{
		BatchSize:         opts.BatchSize,
		IncludeHeaders:    opts.IncludeHeaders,
		IncludeFootnotes:  opts.IncludeFootnotes,
		IncludeComments:   opts.IncludeComments,
		Hints:             opts.Hints,
		Concurrency:       opts.Concurrency,
		RequestsPerMinute: opts.RequestsPerMinute,
		OnBatch:           opts.OnBatch,
	})
	if res == nil {
		return nil, err
	}
	return res.Data, err
}

// Validate checks the content-type manifest and relationship wiring of a
// package.
func Validate(data []byte) error {
	pkg, err := container.Open(data)
	if err != nil {
		return err
	}
	return container.Validate(pkg)
}
