package cli

import (
	"fmt"
	"strings"

	"github.com/nimasrn/hire-gateway/internal/config"
	gateway "github.com/nimasrn/hire-gateway/internal/gateways"
	"github.com/spf13/cobra"
)

// NewTokenCommand checks the Daraja credentials by fetching an OAuth token.
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Fetch a Daraja OAuth access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			provider := gateway.NewTokenProvider(gateway.TokenConfig{
				ConsumerKey:    cfg.MpesaConsumerKey,
				ConsumerSecret: cfg.MpesaConsumerSecret,
				OAuthURL:       cfg.MpesaOAuthURL,
				Timeout:        cfg.MpesaTokenTimeout,
			}, opts.Client)

			token, err := provider.GetAccessToken(cmd.Context())
			if err != nil {
				return err
			}
			if !show {
				token = mask(token)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "print the token unmasked")
	return cmd
}

func mask(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
