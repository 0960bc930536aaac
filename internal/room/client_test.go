package room

import (
	"context"
	"errors"
	"testing"
	"time"

	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlais/visiondemo/internal/logging"
	"github.com/jlais/visiondemo/internal/session"
)

func newTestClient(store *session.Store) *Client {
	return NewClient(store, Options{
		AgentPrefix: "agent-",
		Logger:      logging.Discard(),
	})
}

func TestParticipantEvents(t *testing.T) {
	store := session.NewStore()
	c := newTestClient(store)

	c.participantJoined("user-2000", "someone")
	c.participantJoined("agent-AJ_x1", "assistant")

	snap := store.Snapshot()
	require.Len(t, snap.Participants, 2)
	assert.True(t, snap.AgentPresent())
	assert.Equal(t, "agent-AJ_x1", snap.AgentIdentity)

	c.participantLeft("agent-AJ_x1")
	snap = store.Snapshot()
	assert.False(t, snap.AgentPresent())
	require.Len(t, snap.Participants, 1)
	assert.Equal(t, "user-2000", snap.Participants[0].Identity)
}

func TestAgentPrefix(t *testing.T) {
	c := newTestClient(session.NewStore())
	assert.True(t, c.isAgent("agent-123"))
	assert.False(t, c.isAgent("user-agent-123"))

	c.opts.AgentPrefix = ""
	assert.False(t, c.isAgent("agent-123"))
}

func TestTrackEvents(t *testing.T) {
	store := session.NewStore()
	c := newTestClient(store)

	c.participantJoined("agent-1", "")
	c.trackChanged("agent-1", webrtc.RTPCodecTypeAudio, true)
	c.trackChanged("agent-1", webrtc.RTPCodecTypeVideo, true)
	c.trackChanged("agent-1", webrtc.RTPCodecTypeVideo, true)
	c.trackChanged("agent-1", webrtc.RTPCodecTypeVideo, false)

	agent, ok := store.Snapshot().Agent()
	require.True(t, ok)
	assert.Equal(t, 1, agent.AudioTracks)
	assert.Equal(t, 1, agent.VideoTracks)
}

func TestDataReceived(t *testing.T) {
	store := session.NewStore()
	c := newTestClient(store)

	c.dataReceived("agent-1", ChatTopic, []byte(`{"id":"x","timestamp":1,"message":"hello there"}`))
	c.dataReceived("agent-1", "lk.transcription", []byte("ignored"))
	c.dataReceived("agent-1", ChatTopic, []byte("plain text"))
	c.dataReceived("agent-1", ChatTopic, []byte{0xff, 0xfe})

	lines := store.Snapshot().Transcript
	require.Len(t, lines, 2)
	assert.Equal(t, "hello there", lines[0].Text)
	assert.Equal(t, "agent-1", lines[0].From)
	assert.False(t, lines[0].Local)
	assert.Equal(t, "plain text", lines[1].Text)
}

func TestSendChatNotConnected(t *testing.T) {
	c := newTestClient(session.NewStore())
	assert.ErrorIs(t, c.SendChat("hi"), session.ErrNotConnected)
	assert.NoError(t, c.SendChat("   "))
}

func TestConnectError(t *testing.T) {
	c := newTestClient(session.NewStore())
	boom := errors.New("could not establish signal connection")
	c.dial = func(string, string, *lksdk.RoomCallback) (*lksdk.Room, error) {
		return nil, boom
	}

	err := c.Connect(context.Background(), "wss://x", "tok")
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, c.current())
}

func TestConnectCancelled(t *testing.T) {
	c := newTestClient(session.NewStore())
	release := make(chan struct{})
	c.dial = func(string, string, *lksdk.RoomCallback) (*lksdk.Room, error) {
		<-release
		return nil, errors.New("too late")
	}
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Connect(ctx, "wss://x", "tok")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConnectCancelledDropsLateParticipants(t *testing.T) {
	store := session.NewStore()
	c := newTestClient(store)
	joined := make(chan struct{})
	release := make(chan struct{})
	c.dial = func(_, _ string, cb *lksdk.RoomCallback) (*lksdk.Room, error) {
		c.participantJoined("agent-late", "")
		close(joined)
		<-release
		return nil, errors.New("too late")
	}
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-joined
		cancel()
	}()

	err := c.Connect(ctx, "wss://x", "tok")
	assert.ErrorIs(t, err, context.Canceled)

	snap := store.Snapshot()
	assert.False(t, snap.AgentPresent())
	assert.Empty(t, snap.Participants)
}

func TestDisconnectedCallbackOnlyWhenJoined(t *testing.T) {
	store := session.NewStore()
	store.SetState(session.Failed("Connection error: boom"))
	c := newTestClient(store)

	c.disconnected()
	assert.Equal(t, session.StatusFailed, store.State().Status)
}
