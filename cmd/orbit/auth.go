package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/krishhsuri/Orbit/internal/cli"
	"github.com/krishhsuri/Orbit/internal/mailbox"
)

func authCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Connect orbit to your Gmail inbox (read-only)",
		Long: `Authorize read-only Gmail access.

This command will:
1. Start a local callback server on gmail.callback_addr
2. Print a Google consent URL to open in your browser
3. Save the token to gmail.token_file once you approve

Set gmail.client_id and gmail.client_secret from a Google Cloud OAuth
client (type "Desktop" or "Web" with the callback URL allowed).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := settings.Gmail.OAuth()
			slog.Info("Starting Gmail authorization", "callback", cfg.CallbackAddr, "token_file", cfg.TokenFile)

			if _, err := mailbox.Authenticate(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("gmail authorization failed: %w", err)
			}
			writeln(cmd.OutOrStdout(), cli.FormatSuccess("Gmail connected. Run `orbit sync` to stage your first messages."))
			return nil
		},
	}
}
