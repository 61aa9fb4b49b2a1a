package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaborage/dataaccess/config"
	"github.com/gaborage/dataaccess/credentials"
)

// TokenOptions holds options for the token set command
type TokenOptions struct {
	Authorization string
	RefreshToken  string
}

func newTokenCommand(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage stored credentials",
	}
	cmd.AddCommand(newTokenSetCommand(global), newTokenStatusCommand(global))
	return cmd
}

func newTokenSetCommand(global *GlobalOptions) *cobra.Command {
	opts := &TokenOptions{}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store an authorization and refresh token pair",
		Long: `Stores the pair in the configured credential backend. A "Bearer " prefix is
removed before storing. Only the keyring backend keeps values between runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := newSession(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.closeQuietly()

			if sess.cfg.Credentials.Backend == config.BackendMemory {
				sess.log.Warn().Msg("Memory credential backend does not persist between runs")
			}
			if err := credentials.Rotate(cmd.Context(), sess.store, opts.Authorization, opts.RefreshToken); err != nil {
				return fmt.Errorf("failed to store credentials: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "credentials stored")
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Authorization, "authorization", "", "Authorization token")
	cmd.Flags().StringVar(&opts.RefreshToken, "refresh", "", "Refresh token")
	_ = cmd.MarkFlagRequired("authorization")

	return cmd
}

func newTokenStatusCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which credentials are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := newSession(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.closeQuietly()

			for _, key := range []string{credentials.KeyAuthorization, credentials.KeyRefreshToken} {
				state := "set"
				if _, err := sess.store.Get(cmd.Context(), key); err != nil {
					if !errors.Is(err, credentials.ErrNotFound) {
						return fmt.Errorf("failed to read %s: %w", key, err)
					}
					state = "not set"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", key, state)
			}
			return nil
		},
	}
}
