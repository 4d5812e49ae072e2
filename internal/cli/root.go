package cli

import (
	"github.com/nimasrn/hire-gateway/internal/config"
	"github.com/nimasrn/hire-gateway/pkg/logger"
	"github.com/nimasrn/hire-gateway/pkg/pg"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
)

// RootOptions holds global flags and the dependencies commands would
// otherwise build from config.
type RootOptions struct {
	EnvPath string

	// DB and Client are dialed from config when nil.
	DB     *pg.DB
	Client *fasthttp.Client
}

func NewRootCommand(opts *RootOptions) *cobra.Command {
	if opts == nil {
		opts = &RootOptions{}
	}

	cmd := &cobra.Command{
		Use:           "hirectl",
		Short:         "Operate the hire gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(opts.EnvPath); err != nil {
				return err
			}
			cfg := config.Get()
			return logger.Configure(cfg.LogEnv, cfg.LogLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvPath, "env", "", "path to a .env file")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))

	return cmd
}

func (o *RootOptions) db() (*pg.DB, error) {
	if o.DB != nil {
		return o.DB, nil
	}
	cfg := config.Get()
	return pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), false)
}
