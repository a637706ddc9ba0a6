package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"acrobot/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Refresh the Twitch user token and save it to the token file",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

// runToken обновляет пользовательский токен вручную, например перед
// первым запуском после смены refresh_token.
func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	token, err := newTokenManager(cfg.Twitch, &http.Client{Timeout: helixTimeout}).Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "token saved to %s, expires %s\n",
		cfg.Twitch.TokenFile, humanize.RelTime(token.ExpiresAt, time.Now(), "ago", "from now"))
	return nil
}
