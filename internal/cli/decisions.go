package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"stockAgent/domain"
	psqlRepo "stockAgent/internal/repository/postgres"
	"stockAgent/pkg/database"

	"github.com/spf13/cobra"
)

func newDecisionsCmd() *cobra.Command {
	var (
		kind   string
		itemID string
		since  time.Duration
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "decisions",
		Short: "List recent decisions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			db, err := database.InitPostgres(cfg)
			if err != nil {
				return err
			}

			f := domain.DecisionFilter{
				Kind:   domain.DecisionKind(kind),
				ItemID: itemID,
				Limit:  limit,
			}
			if since > 0 {
				f.Since = time.Now().Add(-since)
			}

			out, err := psqlRepo.NewDecisionRepository(db).List(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printDecisions(cmd, out)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Decision kind filter, e.g. RESTOCK")
	cmd.Flags().StringVar(&itemID, "item", "", "Related item id filter")
	cmd.Flags().DurationVar(&since, "since", 0, "Only decisions newer than this, e.g. 24h")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows")
	return cmd
}

func printDecisions(cmd *cobra.Command, ds []domain.Decision) error {
	if len(ds) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No decisions")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CREATED\tKIND\tITEM\tTEXT")
	for _, d := range ds {
		item := "-"
		if d.RelatedItemID != nil {
			item = *d.RelatedItemID
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.CreatedAt.UTC().Format(time.RFC3339), d.Kind, item, d.Text)
	}
	return w.Flush()
}
