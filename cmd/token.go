package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jlais/visiondemo/internal/config"
	"github.com/jlais/visiondemo/internal/session"
	"github.com/jlais/visiondemo/internal/tokens"
	"github.com/jlais/visiondemo/internal/ui"
)

const shutdownTimeout = 5 * time.Second

var (
	flagTokenTTL   time.Duration
	flagServerAddr string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a participant token with the local API key pair",
	Long: `Issue a participant token signed with LIVEKIT_API_KEY and LIVEKIT_API_SECRET.

Examples:
  visiondemo token --room test-room --identity user-1234
  visiondemo token --ttl 1h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueToken(os.Stdout)
	},
}

var tokenServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve connection details for development clients",
	Long: `Serve the connection-details endpoint the shell and web clients use, signing
tokens with the local API key pair.

Examples:
  visiondemo token serve --addr :8080
  visiondemo connect --token-endpoint http://localhost:8080/api/connection-details`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveTokens(cmd.Context())
	},
}

func tokenOptions() config.Options {
	opts := connectOptions()
	opts.TokenTTL = flagTokenTTL
	opts.TokenServerAddr = flagServerAddr
	return opts
}

func issueToken(w io.Writer) error {
	cfg, err := LoadConfig(tokenOptions())
	if err != nil {
		return err
	}
	if !cfg.CanSign() {
		return session.NewError("issue token", tokens.ErrMissingKeyPair)
	}

	identity := cfg.ParticipantName
	if identity == "" {
		identity = session.RandomParticipantName(cfg.ParticipantPrefix)
	}

	issuer := tokens.NewIssuer(cfg.LiveKitURL, cfg.APIKey, cfg.APISecret, cfg.TokenTTL)
	token, err := issuer.Issue(cfg.RoomName, identity)
	if err != nil {
		return session.NewError("issue token", err)
	}

	fmt.Fprintln(w)
	ui.RenderSummary(w, ui.IconKey+" Participant Token", []ui.SummaryRow{
		{Label: "Server", Value: cfg.LiveKitURL},
		{Label: "Room", Value: cfg.RoomName},
		{Label: "Identity", Value: identity},
		{Label: "Expires", Value: time.Now().Add(cfg.TokenTTL).Format(time.RFC3339)},
		{Label: "Token", Value: token},
	})
	return nil
}

func serveTokens(ctx context.Context) error {
	cfg, err := LoadConfig(tokenOptions())
	if err != nil {
		return err
	}
	if !cfg.CanSign() {
		return session.NewError("serve tokens", tokens.ErrMissingKeyPair)
	}

	issuer := tokens.NewIssuer(cfg.LiveKitURL, cfg.APIKey, cfg.APISecret, cfg.TokenTTL)
	srv := tokens.NewServer(cfg.TokenServerAddr, issuer, cfg.ParticipantPrefix, slog.Default().With("component", "token-server"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	ui.PrintSuccessf("Token server listening on %s%s", cfg.TokenServerAddr, tokens.ConnectionDetailsPath)

	select {
	case err := <-errCh:
		if err != nil {
			return session.NewError("serve tokens", err)
		}
		return nil
	case <-ctx.Done():
	}

	ui.PrintInfo("Shutting down token server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenServeCmd)

	f := tokenCmd.PersistentFlags()
	f.StringVar(&flagURL, "url", "", "LiveKit server URL (LIVEKIT_URL)")
	f.StringVar(&flagAPIKey, "api-key", "", "LiveKit API key (LIVEKIT_API_KEY)")
	f.StringVar(&flagAPISecret, "api-secret", "", "LiveKit API secret (LIVEKIT_API_SECRET)")
	f.StringVarP(&flagRoom, "room", "r", "", "Room name (default \"test-room\")")
	f.StringVarP(&flagIdentity, "identity", "i", "", "Participant name (default random)")
	f.StringVar(&flagParticipantPrefix, "participant-prefix", "", "Prefix for random participant names")
	f.DurationVar(&flagTokenTTL, "ttl", 0, "Token lifetime (default 15m)")

	tokenServeCmd.Flags().StringVar(&flagServerAddr, "addr", "", "Listen address (default \":8080\")")
}
