package cmd

import (
	"context"
	"log/slog"

	"github.com/jlais/visiondemo/internal/config"
	"github.com/jlais/visiondemo/internal/room"
	"github.com/jlais/visiondemo/internal/session"
)

// ConnectionContext wires one shell session: the store both the workflow and
// the room adapter write to, and the collaborators behind them.
type ConnectionContext struct {
	Config   *config.Config
	Store    *session.Store
	Room     *room.Client
	Workflow *session.Workflow
}

func NewConnectionContext(cfg *config.Config, tokenService session.TokenService) *ConnectionContext {
	store := session.NewStore()
	client := room.NewClient(store, room.Options{
		AgentPrefix: cfg.AgentPrefix,
		CameraFile:  cfg.CameraFile,
		MicFile:     cfg.MicFile,
		CameraDimensions: session.Dimensions{
			Width:  cfg.CameraWidth,
			Height: cfg.CameraHeight,
		},
		Logger: slog.Default().With("component", "room"),
	})

	return &ConnectionContext{
		Config:   cfg,
		Store:    store,
		Room:     client,
		Workflow: session.NewWorkflow(tokenService, client, store, session.WithLogger(slog.Default().With("component", "workflow"))),
	}
}

// Connect makes one attempt. The participant name is drawn fresh for each
// attempt unless one is configured.
func (c *ConnectionContext) Connect(ctx context.Context) error {
	participant := c.Config.ParticipantName
	if participant == "" {
		participant = session.RandomParticipantName(c.Config.ParticipantPrefix)
	}
	return c.Workflow.AttemptConnect(ctx, c.Config.RoomName, participant)
}

func (c *ConnectionContext) Disconnect() {
	c.Workflow.Disconnect()
}

func (c *ConnectionContext) SendChat(text string) error {
	return c.Room.SendChat(text)
}

func (c *ConnectionContext) Close() {
	c.Workflow.Disconnect()
	c.Room.Disconnect()
}

func LoadConfig(opts config.Options) (*config.Config, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, session.NewError("load config", err)
	}
	return cfg, nil
}
