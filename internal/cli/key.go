package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newKeyCmd(rt *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the Gemini API key",
	}
	cmd.AddCommand(newKeySetCmd(rt), newKeyClearCmd(rt), newKeyStatusCmd(rt))
	return cmd
}

func newKeySetCmd(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set [key]",
		Short: "Save an API key (reads stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read key: %w", err)
				}
				key = strings.TrimSpace(line)
			}

			a, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.NewSession(BrowserID).Resolver().Save(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key saved")
			return nil
		},
	}
}

func newKeyClearCmd(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.NewSession(BrowserID).Resolver().Invalidate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key cleared")
			return nil
		},
	}
}

func newKeyStatusCmd(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a usable API key is available",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			status, err := a.NewSession(BrowserID).Resolver().Resolve(cmd.Context())
			if err != nil {
				return err
			}
			if !status.Usable {
				fmt.Fprintln(cmd.OutOrStdout(), "no API key")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key available (%s)\n", status.Source)
			return nil
		},
	}
}
