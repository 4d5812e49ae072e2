package cli

import (
	"fmt"
	"time"

	"github.com/nimasrn/hire-gateway/internal/repository"
	"github.com/nimasrn/hire-gateway/internal/services"
	"github.com/spf13/cobra"
)

// NewSweepCommand runs the overdue sweep once, outside the scheduler lease.
func NewSweepCommand(opts *RootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Mark active hires past their due date as overdue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				now = t.UTC()
			}

			db, err := opts.db()
			if err != nil {
				return err
			}

			hires := repository.NewHireRepository(db)
			lifecycle := services.NewLifecycleService(db, hires, repository.NewAssetRepository(db))
			n, err := services.NewOverdueService(db, hires, lifecycle).Sweep(cmd.Context(), now)
			fmt.Fprintf(cmd.OutOrStdout(), "swept %d hire(s) as of %s\n", n, now.Format(time.RFC3339))
			return err
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "sweep as of this RFC3339 time instead of now")
	return cmd
}
