package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUsageCmd(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show tokens used today",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			usage, err := a.NewSession(BrowserID).Tracker().Load(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d / %d tokens (%.1f%%)\n",
				usage.Date, usage.Count, usage.Limit, usage.Percent)
			return nil
		},
	}
}
