package room

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"

	"github.com/jlais/visiondemo/internal/session"
)

var ErrAlreadyConnected = session.ErrAlreadyConnected

type dialFunc func(url, token string, cb *lksdk.RoomCallback) (*lksdk.Room, error)

type Options struct {
	// AgentPrefix marks remote identities that belong to the AI agent.
	AgentPrefix string

	CameraFile       string
	MicFile          string
	CameraDimensions session.Dimensions

	Logger *slog.Logger
}

// Client joins a LiveKit room and mirrors participant, track and chat
// events into a session.Store.
type Client struct {
	store  *session.Store
	opts   Options
	logger *slog.Logger
	dial   dialFunc

	mu   sync.Mutex
	room *lksdk.Room
}

func NewClient(store *session.Store, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		store:  store,
		opts:   opts,
		logger: logger,
		dial: func(url, token string, cb *lksdk.RoomCallback) (*lksdk.Room, error) {
			return lksdk.ConnectToRoomWithToken(url, token, cb, lksdk.WithAutoSubscribe(true))
		},
	}
}

// Connect joins the room. If ctx ends before the join completes, the late
// room is disconnected as soon as it arrives and anything its callbacks
// recorded is dropped.
func (c *Client) Connect(ctx context.Context, url, token string) error {
	if c.current() != nil {
		return ErrAlreadyConnected
	}

	var abandoned atomic.Bool
	cb := c.callback(&abandoned)

	type result struct {
		room *lksdk.Room
		err  error
	}
	done := make(chan result, 1)
	go func() {
		r, err := c.dial(url, token, cb)
		done <- result{r, err}
	}()

	var room *lksdk.Room
	select {
	case <-ctx.Done():
		abandoned.Store(true)
		c.store.ClearParticipants()
		go func() {
			if res := <-done; res.room != nil {
				res.room.Disconnect()
			}
		}()
		return ctx.Err()
	case res := <-done:
		if res.err != nil {
			return res.err
		}
		room = res.room
	}

	c.mu.Lock()
	c.room = room
	c.mu.Unlock()

	c.logger.Info("joined room", "room", room.Name(), "identity", room.LocalParticipant.Identity())
	for _, rp := range room.GetRemoteParticipants() {
		c.participantJoined(rp.Identity(), rp.Name())
	}
	c.publishLocalMedia(room)
	return nil
}

// Disconnect leaves the room, if any.
func (c *Client) Disconnect() {
	c.mu.Lock()
	room := c.room
	c.room = nil
	c.mu.Unlock()

	if room != nil {
		room.Disconnect()
	}
}

func (c *Client) current() *lksdk.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// callback routes SDK events into the store until abandoned is set.
func (c *Client) callback(abandoned *atomic.Bool) *lksdk.RoomCallback {
	return &lksdk.RoomCallback{
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTrackSubscribed: func(track *webrtc.TrackRemote, _ *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				if !abandoned.Load() {
					c.trackChanged(rp.Identity(), track.Kind(), true)
				}
			},
			OnTrackUnsubscribed: func(track *webrtc.TrackRemote, _ *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				if !abandoned.Load() {
					c.trackChanged(rp.Identity(), track.Kind(), false)
				}
			},
			OnDataPacket: func(data lksdk.DataPacket, params lksdk.DataReceiveParams) {
				if pkt, ok := data.(*lksdk.UserDataPacket); ok && !abandoned.Load() {
					c.dataReceived(params.SenderIdentity, pkt.Topic, pkt.Payload)
				}
			},
		},
		OnParticipantConnected: func(rp *lksdk.RemoteParticipant) {
			if !abandoned.Load() {
				c.participantJoined(rp.Identity(), rp.Name())
			}
		},
		OnParticipantDisconnected: func(rp *lksdk.RemoteParticipant) {
			if !abandoned.Load() {
				c.participantLeft(rp.Identity())
			}
		},
		OnDisconnectedWithReason: func(reason lksdk.DisconnectionReason) {
			c.logger.Info("sdk client disconnected", "reason", reason)
			if !abandoned.Load() {
				c.disconnected()
			}
		},
	}
}

func (c *Client) isAgent(identity string) bool {
	return c.opts.AgentPrefix != "" && strings.HasPrefix(identity, c.opts.AgentPrefix)
}

func (c *Client) participantJoined(identity, name string) {
	agent := c.isAgent(identity)
	c.logger.Info("participant joined", "identity", identity, "agent", agent)
	c.store.UpsertParticipant(session.Participant{
		Identity: identity,
		Name:     name,
		Agent:    agent,
	})
}

func (c *Client) participantLeft(identity string) {
	c.logger.Info("participant left", "identity", identity)
	c.store.RemoveParticipant(identity)
}

func (c *Client) trackChanged(identity string, kind webrtc.RTPCodecType, subscribed bool) {
	video := kind == webrtc.RTPCodecTypeVideo
	c.logger.Debug("track changed", "identity", identity, "kind", kind.String(), "subscribed", subscribed)
	if subscribed {
		c.store.AddTrack(identity, video)
	} else {
		c.store.RemoveTrack(identity, video)
	}
}

func (c *Client) disconnected() {
	c.mu.Lock()
	wasConnected := c.room != nil
	c.room = nil
	c.mu.Unlock()

	if wasConnected {
		c.store.SetState(session.Disconnected())
	}
}
