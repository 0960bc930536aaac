package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
)

// TokenService fetches connection details for a room and participant. A nil
// result with a nil error means the service had nothing to offer.
type TokenService interface {
	FetchConnectionDetails(ctx context.Context, roomName, participantName string) (*ConnectionDetails, error)
}

// RoomClient joins a real-time room with issued credentials.
type RoomClient interface {
	Connect(ctx context.Context, url, token string) error
	Disconnect()
}

// Workflow drives a session from Disconnected to Connected.
type Workflow struct {
	tokens TokenService
	room   RoomClient
	store  *Store
	logger *slog.Logger

	inFlight atomic.Bool
}

type Option func(*Workflow)

func WithLogger(l *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = l
	}
}

func NewWorkflow(tokens TokenService, room RoomClient, store *Store, opts ...Option) *Workflow {
	w := &Workflow{
		tokens: tokens,
		room:   room,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Store exposes the state container the workflow writes to.
func (w *Workflow) Store() *Store {
	return w.store
}

// AttemptConnect fetches credentials and joins the room. Every outcome is
// also written to the store; the returned error is for callers that want it.
// Only one attempt may run at a time, and none while connected.
func (w *Workflow) AttemptConnect(ctx context.Context, roomName, participantName string) error {
	if roomName == "" || participantName == "" {
		return NewError("attempt connect", ErrEmptyIdentifier)
	}
	if !w.inFlight.CompareAndSwap(false, true) {
		return NewError("attempt connect", ErrAttemptInProgress)
	}
	defer w.inFlight.Store(false)

	if w.store.State().IsConnected() {
		return NewError("attempt connect", ErrAlreadyConnected)
	}

	log := w.logger.With("room", roomName, "participant", participantName)

	w.store.SetState(Connecting())
	log.Info("starting connection")

	details, err := w.tokens.FetchConnectionDetails(ctx, roomName, participantName)
	if err != nil {
		return w.fail(log, "fetch connection details", fmt.Errorf("%w: %w", ErrConnectionFailed, err), connectionErrorMessage(err), "")
	}
	if !details.Valid() {
		return w.fail(log, "fetch connection details", ErrCredentialsUnavailable, MsgCredentialsUnavailable, "")
	}
	log.Info("got connection details", "server_url", details.ServerURL)

	if err := w.room.Connect(ctx, details.ServerURL, details.ParticipantToken); err != nil {
		return w.fail(log, "connect to room", fmt.Errorf("%w: %w", ErrConnectionFailed, err), connectionErrorMessage(err), details.ServerURL)
	}

	joined := roomName
	if details.RoomName != "" {
		joined = details.RoomName
	}
	identity := participantName
	if details.ParticipantName != "" {
		identity = details.ParticipantName
	}
	w.store.SetRoom(joined, identity, details.ServerURL)
	w.store.SetState(Connected())
	log.Info("connected successfully")
	return nil
}

// fail records msg for the prompt and returns err tagged with op and, when
// known, the server it concerns.
func (w *Workflow) fail(log *slog.Logger, op string, err error, msg, server string) error {
	log.Error(msg)
	w.store.SetState(Failed(msg))
	return WrapError(op, err, server)
}

// Disconnect leaves the room and returns the session to Disconnected.
func (w *Workflow) Disconnect() {
	if !w.store.State().IsConnected() {
		return
	}
	w.room.Disconnect()
	w.store.SetState(Disconnected())
	w.logger.Info("disconnected")
}

// RandomParticipantName returns "<prefix>-NNNN" with a four digit suffix.
func RandomParticipantName(prefix string) string {
	if prefix == "" {
		prefix = "user"
	}
	return fmt.Sprintf("%s-%d", prefix, 1000+rand.IntN(9000))
}
