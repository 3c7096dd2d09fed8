package cli

import (
	"github.com/spf13/cobra"
)

func newServeCmd(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(cmd.Context())
		},
	}
}
