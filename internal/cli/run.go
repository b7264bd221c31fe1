package cli

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"stockAgent/domain"
	"stockAgent/internal/agent"
	"stockAgent/pkg/database"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		trigger   string
		invoiceID string
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one decision cycle against the configured store and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			trigger = strings.ToUpper(strings.TrimSpace(trigger))
			if trigger == "" {
				return errors.New("--trigger is required")
			}
			if trigger == string(domain.TriggerSale) && invoiceID == "" {
				return errors.New("--invoice is required for SALE")
			}
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}

			db, err := database.InitPostgres(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			comps := agent.Build(ctx, cfg, db, nil)

			payload := map[string]any{}
			if invoiceID != "" {
				payload["invoiceId"] = invoiceID
			}

			res, runErr := comps.Engine.RunCycle(ctx, domain.Trigger(trigger), payload)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&trigger, "trigger", "CRON", "SALE, CRON or MANUAL")
	cmd.Flags().StringVar(&invoiceID, "invoice", "", "Invoice id for SALE cycles")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Cycle timeout")
	return cmd
}
