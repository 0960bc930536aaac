package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jlais/visiondemo/internal/config"
	"github.com/jlais/visiondemo/internal/files"
	"github.com/jlais/visiondemo/internal/session"
	"github.com/jlais/visiondemo/internal/tokens"
	"github.com/jlais/visiondemo/internal/ui"
	"github.com/jlais/visiondemo/internal/utils"
)

const agentWaitMessage = "Connecting to AI assistant..."

var (
	flagURL               string
	flagAPIKey            string
	flagAPISecret         string
	flagToken             string
	flagSandboxID         string
	flagTokenEndpoint     string
	flagRoom              string
	flagIdentity          string
	flagParticipantPrefix string
	flagAgentPrefix       string
	flagCameraFile        string
	flagMicFile           string
	flagHeadless          bool
	flagScale             float64
	flagSpatial           bool
)

var connectCmd = &cobra.Command{
	Use:     "connect",
	Aliases: []string{"c"},
	Short:   "Join a room and talk to the assistant",
	Long: `Join a LiveKit room and talk to the JLAIS assistant.

Examples:
  visiondemo connect --sandbox-id my-sandbox-abc123
  visiondemo connect --url wss://demo.livekit.cloud --api-key KEY --api-secret SECRET
  visiondemo connect --camera-file camera.ivf --mic-file mic.ogg
  visiondemo connect --headless --room test-room`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConnect(cmd.Context())
	},
}

func connectOptions() config.Options {
	return config.Options{
		ConfigFile:        flagConfigFile,
		LiveKitURL:        flagURL,
		APIKey:            flagAPIKey,
		APISecret:         flagAPISecret,
		Token:             flagToken,
		SandboxID:         flagSandboxID,
		TokenEndpoint:     flagTokenEndpoint,
		RoomName:          flagRoom,
		ParticipantName:   flagIdentity,
		ParticipantPrefix: flagParticipantPrefix,
		AgentPrefix:       flagAgentPrefix,
		CameraFile:        flagCameraFile,
		MicFile:           flagMicFile,
	}
}

func runConnect(ctx context.Context) error {
	cfg, err := LoadConfig(connectOptions())
	if err != nil {
		return err
	}

	media, err := files.ValidateMediaFiles(cfg.CameraFile, cfg.MicFile)
	if err != nil {
		return session.NewError("validate media", err)
	}
	for _, m := range media {
		slog.Info("publishing media file", "file", m.Name, "kind", m.Kind.String(), "codec", m.MimeType, "bytes", m.Size)
		if m.Kind == files.KindVideo {
			cfg.CameraFile = m.Path
		} else {
			cfg.MicFile = m.Path
		}
	}

	cc := NewConnectionContext(cfg, tokens.FromConfig(cfg))
	defer cc.Close()

	if flagHeadless {
		return runHeadless(ctx, cc)
	}

	shell := ui.NewShell(ctx, cc, cc.Store.Snapshot(), ui.ShellOptions{
		Scale:   flagScale,
		Spatial: flagSpatial,
	})
	return ui.Run(ctx, cc.Store, shell)
}

func runHeadless(ctx context.Context, cc *ConnectionContext) error {
	if !cc.Config.HasTokenSource() {
		ui.PrintWarning("No token source configured: set SANDBOX_ID, TOKEN_ENDPOINT or LIVEKIT_URL with API credentials")
	}

	sp := ui.NewConnectionSpinner("Connecting...")
	sp.Start()
	if err := cc.Connect(ctx); err != nil {
		msg := cc.Store.Snapshot().ErrorMessage
		if msg == "" {
			msg = err.Error()
		}
		sp.Error(msg)
		return err
	}
	sp.Success("Connected")

	fmt.Println()
	fmt.Println(ui.RoomInfoView(cc.Store.Snapshot()))
	fmt.Println()

	updates, unsubscribe := cc.Store.Subscribe()
	defer unsubscribe()

	wait := ui.NewWaitingSpinner(agentWaitMessage)
	wait.Start()
	defer wait.Stop()

	p := &sessionPrinter{out: os.Stdout, onAgent: wait.Stop, started: time.Now()}
	go readChat(ctx, os.Stdin, cc)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wait.Stop()
			ui.PrintInfof("Leaving room %s...", cc.Store.Snapshot().RoomName)
			return nil
		case now := <-ticker.C:
			if msg, ok := p.waiting(now); ok {
				wait.UpdateMessage(msg)
			}
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if p.apply(snap) {
				return nil
			}
		}
	}
}

// readChat sends each stdin line as a chat message.
func readChat(ctx context.Context, r io.Reader, cc *ConnectionContext) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if err := cc.SendChat(scanner.Text()); err != nil {
			ui.PrintErrorf("send chat: %v", err)
		}
	}
}

// sessionPrinter renders headless progress from successive snapshots.
type sessionPrinter struct {
	out     io.Writer
	onAgent func()
	started time.Time

	agentSeen bool
	printed   int
}

// waiting returns the spinner line with the time spent waiting, until the
// agent first shows up.
func (p *sessionPrinter) waiting(now time.Time) (string, bool) {
	if p.agentSeen {
		return "", false
	}
	return fmt.Sprintf("%s (%s)", agentWaitMessage, utils.FormatTimeDuration(now.Sub(p.started))), true
}

// apply prints what changed and reports whether the session has ended.
func (p *sessionPrinter) apply(snap session.Snapshot) bool {
	if !snap.State.IsConnected() {
		if p.onAgent != nil {
			p.onAgent()
		}
		fmt.Fprintf(p.out, "%s Disconnected from room\n", ui.IconConnect)
		return true
	}

	switch present := snap.AgentPresent(); {
	case present && !p.agentSeen:
		p.agentSeen = true
		if p.onAgent != nil {
			p.onAgent()
		}
		fmt.Fprintf(p.out, "%s %s joined\n\n", ui.IconAgent, snap.AgentIdentity)
		fmt.Fprintln(p.out, ui.NewRosterTable(snap).View())
		fmt.Fprintf(p.out, "\n%s Type a message and press enter to chat\n", ui.IconChat)
	case !present && p.agentSeen:
		p.agentSeen = false
		fmt.Fprintf(p.out, "%s The assistant left the room\n", ui.IconWarning)
	}

	// the transcript is capped, so the printed count can run ahead of it
	p.printed = min(p.printed, len(snap.Transcript))
	for _, line := range snap.Transcript[p.printed:] {
		if line.Local {
			continue
		}
		fmt.Fprintf(p.out, "%s %s: %s\n", line.Time.Format("15:04:05"), line.From, line.Text)
	}
	p.printed = len(snap.Transcript)
	return false
}

func init() {
	rootCmd.AddCommand(connectCmd)

	f := connectCmd.Flags()
	f.StringVar(&flagURL, "url", "", "LiveKit server URL (LIVEKIT_URL)")
	f.StringVar(&flagAPIKey, "api-key", "", "LiveKit API key (LIVEKIT_API_KEY)")
	f.StringVar(&flagAPISecret, "api-secret", "", "LiveKit API secret (LIVEKIT_API_SECRET)")
	f.StringVar(&flagToken, "token", "", "Pre-issued participant token (LIVEKIT_TOKEN)")
	f.StringVarP(&flagSandboxID, "sandbox-id", "s", "", "LiveKit Cloud sandbox ID (SANDBOX_ID)")
	f.StringVar(&flagTokenEndpoint, "token-endpoint", "", "Connection-details endpoint URL (TOKEN_ENDPOINT)")
	f.StringVarP(&flagRoom, "room", "r", "", "Room name (default \"test-room\")")
	f.StringVarP(&flagIdentity, "identity", "i", "", "Participant name (default random per attempt)")
	f.StringVar(&flagParticipantPrefix, "participant-prefix", "", "Prefix for random participant names")
	f.StringVar(&flagAgentPrefix, "agent-prefix", "", "Identity prefix of the assistant (default \"agent-\")")
	f.StringVar(&flagCameraFile, "camera-file", "", "IVF/H.264 file published as the camera")
	f.StringVar(&flagMicFile, "mic-file", "", "Ogg Opus file published as the microphone")
	f.BoolVar(&flagHeadless, "headless", false, "Connect once and print events instead of the interactive shell")
	f.Float64Var(&flagScale, "scale", ui.DefaultScale, "Camera pixels per terminal column")
	f.BoolVar(&flagSpatial, "spatial", false, "Draw media boxes at native size")
}
