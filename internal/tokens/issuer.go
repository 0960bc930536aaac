package tokens

import (
	"context"
	"time"

	"github.com/livekit/protocol/auth"

	"github.com/jlais/visiondemo/internal/session"
)

const defaultTTL = 15 * time.Minute

// Issuer signs participant tokens with a LiveKit API key pair.
type Issuer struct {
	url    string
	key    string
	secret string
	ttl    time.Duration
}

func NewIssuer(url, key, secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Issuer{url: url, key: key, secret: secret, ttl: ttl}
}

// Configured reports whether the issuer has a key pair and a server URL.
func (i *Issuer) Configured() bool {
	return i.url != "" && i.key != "" && i.secret != ""
}

// ServerURL is the LiveKit URL tokens are issued for.
func (i *Issuer) ServerURL() string {
	return i.url
}

// Issue returns a token that lets identity join room with publish,
// subscribe and data permissions.
func (i *Issuer) Issue(room, identity string) (string, error) {
	if i.key == "" || i.secret == "" {
		return "", ErrMissingKeyPair
	}

	canPublish := true
	canSubscribe := true
	canPublishData := true

	at := auth.NewAccessToken(i.key, i.secret)
	grant := &auth.VideoGrant{
		RoomJoin:       true,
		Room:           room,
		CanPublish:     &canPublish,
		CanSubscribe:   &canSubscribe,
		CanPublishData: &canPublishData,
	}
	at.SetVideoGrant(grant).
		SetIdentity(identity).
		SetName(identity).
		SetValidFor(i.ttl)

	return at.ToJWT()
}

func (i *Issuer) FetchConnectionDetails(_ context.Context, roomName, participantName string) (*session.ConnectionDetails, error) {
	if !i.Configured() {
		return nil, nil
	}
	token, err := i.Issue(roomName, participantName)
	if err != nil {
		return nil, err
	}
	return &session.ConnectionDetails{
		ServerURL:        i.url,
		RoomName:         roomName,
		ParticipantName:  participantName,
		ParticipantToken: token,
	}, nil
}
