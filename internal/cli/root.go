package cli

import (
	"context"
	"errors"
	"os"

	"stockAgent/pkg/config"
	"stockAgent/pkg/logger"

	"github.com/spf13/cobra"
)

type cfgKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, cfgKey{}, cfg)
}

func configFrom(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(cfgKey{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not loaded")
	}
	return cfg, nil
}

// NewRootCmd builds the operator CLI. Every subcommand reads the same
// environment as the server.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "agentctl",
		Short:        "Operate the stock decision agent",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(cfg.App.Environment)
			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
	}

	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newDecisionsCmd())

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}
