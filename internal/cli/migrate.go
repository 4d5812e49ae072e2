package cli

import (
	"fmt"
	"slices"

	"github.com/nimasrn/hire-gateway/internal/config"
	"github.com/nimasrn/hire-gateway/pkg/pg"
	"github.com/spf13/cobra"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:       "migrate [up|down|status|version|redo|reset] [args]",
		Short:     "Run database migrations",
		ValidArgs: pg.MigrateCommands,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && !slices.Contains(pg.MigrateCommands, args[0]) {
				return fmt.Errorf("unknown migrate command %q: must be one of %v", args[0], pg.MigrateCommands)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) > 0 {
				command, args = args[0], args[1:]
			}
			return pg.MigrateCommand(cmd.Context(), config.Get().PostgresWrite(), dir, command, args...)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "./migrations", "migrations directory")
	return cmd
}
