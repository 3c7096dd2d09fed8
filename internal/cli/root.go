// Package cli implements the mifoto command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mhpenta/mifoto/internal/app"
	"github.com/mhpenta/mifoto/internal/config"
)

// BrowserID is the storage scope the command line acts as.
const BrowserID = "cli"

type env struct {
	configPath string
	appOpts    []app.Option
}

// NewRootCmd builds the command tree. appOpts are passed to every App the
// commands create.
func NewRootCmd(version, buildDate string, appOpts ...app.Option) *cobra.Command {
	rt := &env{appOpts: appOpts}
	root := &cobra.Command{
		Use:           "mifoto",
		Short:         "Edit photos with a text instruction using Gemini",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&rt.configPath, "config", "", "Config file (YAML, JSON or TOML)")

	root.AddCommand(newVersionCmd(version, buildDate))
	root.AddCommand(newServeCmd(rt))
	root.AddCommand(newEditCmd(rt))
	root.AddCommand(newUpscaleCmd(rt))
	root.AddCommand(newUsageCmd(rt))
	root.AddCommand(newKeyCmd(rt))
	return root
}

func (rt *env) open(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := app.NewLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return app.New(ctx, cfg, logger, rt.appOpts...)
}
