package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nerdneilsfield/chatdoc/internal/transcript"
	"github.com/nerdneilsfield/chatdoc/pkg/chatdoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Export formats.
const (
	formatDOCX     = "docx"
	formatPDF      = "pdf"
	formatMarkdown = "md"
)

type exportFlags struct {
	output   string
	format   string
	title    string
	author   string
	pageSize string
	fontPath string
	math     bool
}

func newExportCommand(a *app) *cobra.Command {
	f := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export <transcript.json|yaml>",
		Short: "Export a chat transcript as DOCX, PDF or markdown",
		Long: `Export reads a transcript, either a list of {role, content} messages or an
object with "title" and "messages", and writes a branded document.

The format is taken from --format, else from the output extension, else docx.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.export(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: input name with the format extension)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "output format: docx, pdf or md")
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "document title (default: derived from the transcript)")
	cmd.Flags().StringVar(&f.author, "author", "", "author shown on the cover")
	cmd.Flags().StringVar(&f.pageSize, "page-size", "", "PDF page size: A4, A5, Letter or Legal")
	cmd.Flags().StringVar(&f.fontPath, "font", "", "TrueType font for PDF body text")
	cmd.Flags().BoolVar(&f.math, "math", false, "render $...$ and $$...$$ as math")

	return cmd
}

func (a *app) export(cmd *cobra.Command, input string, f *exportFlags) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	tr, err := transcript.Load(data, transcriptFormat(input))
	if err != nil {
		return err
	}

	format, err := exportFormat(f.format, f.output)
	if err != nil {
		return err
	}
	output := f.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
	}

	opts := a.exportOptions(f)
	if opts.Title == "" {
		opts.Title = tr.Title
	}

	a.logger.Debug("exporting transcript",
		zap.String("input", input),
		zap.String("output", output),
		zap.String("format", format),
		zap.Int("messages", len(tr.Messages)))

	var out []byte
	switch format {
	case formatDOCX:
		out, err = chatdoc.BuildDocument(tr.Messages, opts)
	case formatPDF:
		out, err = chatdoc.RenderPaginated(tr.Messages, opts)
	case formatMarkdown:
		out, err = chatdoc.ExportMarkdown(tr.Messages, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", format, err)
	}

	if err := os.WriteFile(output, out, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	success(cmd.OutOrStdout(), "%d messages exported to %s", len(tr.Messages), output)
	return nil
}

func (a *app) exportOptions(f *exportFlags) chatdoc.Options {
	ec := a.cfg.Export
	opts := chatdoc.Options{
		Title:    f.title,
		Author:   firstNonEmpty(f.author, ec.Author),
		Header:   ec.Header,
		Footer:   ec.Footer,
		Math:     f.math || ec.Math,
		PageSize: firstNonEmpty(f.pageSize, ec.PageSize),
		FontPath: firstNonEmpty(f.fontPath, ec.FontPath),
		Logger:   a.logger,
	}
	return opts
}

func exportFormat(flag, output string) (string, error) {
	format := strings.ToLower(strings.TrimPrefix(flag, "."))
	if format == "" {
		format = strings.ToLower(strings.TrimPrefix(filepath.Ext(output), "."))
	}
	switch format {
	case "", formatDOCX:
		return formatDOCX, nil
	case formatPDF:
		return formatPDF, nil
	case formatMarkdown, "markdown":
		return formatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
}

func transcriptFormat(path string) transcript.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return transcript.FormatJSON
	case ".yaml", ".yml":
		return transcript.FormatYAML
	default:
		return transcript.FormatAuto
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
