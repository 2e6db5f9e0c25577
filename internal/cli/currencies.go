package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"boirates/internal/currency"
)

func currenciesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "currencies",
		Short: "List the supported currencies and their series identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tSERIES")
			fmt.Fprintf(tw, "%s\t(home currency)\n", currency.Home)
			for _, e := range currency.Default().Entries() {
				fmt.Fprintf(tw, "%s\t%s\n", e.Code, e.Series)
			}
			return tw.Flush()
		},
	}
}
