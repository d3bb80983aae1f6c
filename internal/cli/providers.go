package cli

import (
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nerdneilsfield/chatdoc/pkg/providers/factory"
	"github.com/spf13/cobra"
)

func newProvidersCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List translation providers and whether they are configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := factory.Registry(a.cfg.Providers, a.logger)
			if err != nil {
				return err
			}

			ok := color.New(color.FgGreen).SprintFunc()
			missing := color.New(color.FgYellow).SprintFunc()

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Provider", "Status", "Detail"})
			for _, e := range reg.Entries() {
				if e.Available() {
					tw.AppendRow(table.Row{e.Name, ok("available"), ""})
					continue
				}
				tw.AppendRow(table.Row{e.Name, missing("unavailable"), e.Err.Error()})
			}
			tw.SetStyle(table.StyleLight)
			tw.Render()
			return nil
		},
	}
}
