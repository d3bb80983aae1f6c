package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nerdneilsfield/chatdoc/internal/container"
	"github.com/nerdneilsfield/chatdoc/internal/document"
	"github.com/nerdneilsfield/chatdoc/internal/markup"
	"github.com/spf13/cobra"
)

func newInspectCommand() *cobra.Command {
	var comments bool

	cmd := &cobra.Command{
		Use:   "inspect <file.docx>",
		Short: "List the parts of a package and the blocks a translation would touch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := openPackage(args[0])
			if err != nil {
				return err
			}
			scope := document.DefaultScope()
			scope.Comments = comments
			return inspect(cmd, pkg, scope)
		},
	}
	cmd.Flags().BoolVar(&comments, "comments", false, "include comments in the block summary")

	return cmd
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.docx>...",
		Short: "Check content types and relationship wiring of packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				pkg, err := openPackage(path)
				if err == nil {
					err = container.Validate(pkg)
				}
				if err != nil {
					failed++
					Fail(out, fmt.Errorf("%s: %w", path, err))
					continue
				}
				success(out, "%s is valid", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d packages are invalid", failed, len(args))
			}
			return nil
		},
	}
}

func openPackage(path string) (*container.Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return container.Open(data)
}

func inspect(cmd *cobra.Command, pkg *container.Package, scope document.Scope) error {
	out := cmd.OutOrStdout()

	ct, err := pkg.ContentTypes()
	if err != nil {
		return err
	}

	parts := table.NewWriter()
	parts.SetOutputMirror(out)
	parts.SetTitle("Parts")
	parts.AppendHeader(table.Row{"Name", "Media type", "Size"})
	for _, name := range pkg.Names() {
		data, _ := pkg.Part(name)
		media, _ := ct.MediaType(name)
		parts.AppendRow(table.Row{name, media, len(data)})
	}
	parts.SetStyle(table.StyleLight)
	parts.Render()

	stories, err := document.Parts(pkg, scope)
	if err != nil {
		if errors.Is(err, container.ErrPartNotFound) {
			warn(out, "no main document part")
			return nil
		}
		return err
	}

	blocks := table.NewWriter()
	blocks.SetOutputMirror(out)
	blocks.SetTitle("Translatable blocks")
	blocks.AppendHeader(table.Row{"Part", "Kind", "Paragraphs", "Table cells", "Text boxes", "Blank"})
	for _, p := range stories {
		data, err := pkg.Part(p.Name)
		if err != nil {
			return err
		}
		tree, err := markup.Decode(data)
		if err != nil {
			return fmt.Errorf("part %s: %w", p.Name, err)
		}

		counts := map[document.BlockKind]int{}
		blank := 0
		for _, b := range document.ExtractBlocks(tree, p.Name) {
			counts[b.Kind]++
			if document.Collect(b).Blank() {
				blank++
			}
		}
		blocks.AppendRow(table.Row{
			p.Name, p.Kind,
			counts[document.KindParagraph],
			counts[document.KindTableCell],
			counts[document.KindTextBox],
			blank,
		})
	}
	blocks.SetStyle(table.StyleLight)
	blocks.Render()

	return nil
}
