package session

import (
	"slices"
	"strings"
	"time"
)

// Status is the connection lifecycle of one shell session.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the tagged connection state. Reason is only meaningful for
// StatusFailed; use the constructors rather than building one by hand.
type State struct {
	Status Status
	Reason string
}

func Disconnected() State { return State{Status: StatusDisconnected} }
func Connecting() State   { return State{Status: StatusConnecting} }
func Connected() State    { return State{Status: StatusConnected} }

// Failed carries the human-readable reason shown under the connect prompt.
func Failed(reason string) State {
	return State{Status: StatusFailed, Reason: reason}
}

func (s State) Connecting() bool  { return s.Status == StatusConnecting }
func (s State) IsConnected() bool { return s.Status == StatusConnected }

func (s State) String() string {
	if s.Status == StatusFailed {
		return "failed: " + s.Reason
	}
	return s.Status.String()
}

// ConnectionDetails are the credentials returned by a token service. They are
// fetched per attempt and never stored.
type ConnectionDetails struct {
	ServerURL        string `json:"serverUrl"`
	RoomName         string `json:"roomName,omitempty"`
	ParticipantName  string `json:"participantName,omitempty"`
	ParticipantToken string `json:"participantToken"`
}

// Valid reports whether both fields needed to join a room are present.
func (d *ConnectionDetails) Valid() bool {
	return d != nil && d.ServerURL != "" && d.ParticipantToken != ""
}

// Dimensions of the local camera capture, in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// Participant is a remote room member as seen by the shell.
type Participant struct {
	Identity    string
	Name        string
	Agent       bool
	AudioTracks int
	VideoTracks int
}

// ChatLine is one transcript entry.
type ChatLine struct {
	From  string
	Text  string
	Time  time.Time
	Local bool
}

// Snapshot is a copy of the shared state handed to readers.
type Snapshot struct {
	State        State
	ErrorMessage string

	RoomName      string
	LocalIdentity string
	ServerURL     string

	Participants     []Participant
	AgentIdentity    string
	CameraEnabled    bool
	CameraDimensions Dimensions
	Transcript       []ChatLine
}

// AgentPresent gates the chat surface's ready state.
func (s Snapshot) AgentPresent() bool {
	return s.AgentIdentity != ""
}

// Agent returns the agent participant, if one is in the room.
func (s Snapshot) Agent() (Participant, bool) {
	for _, p := range s.Participants {
		if p.Identity == s.AgentIdentity {
			return p, true
		}
	}
	return Participant{}, false
}

func sortParticipants(ps []Participant) {
	slices.SortFunc(ps, func(a, b Participant) int {
		return strings.Compare(a.Identity, b.Identity)
	})
}
