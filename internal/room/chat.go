package room

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/jlais/visiondemo/internal/session"
)

// ChatTopic is the data topic LiveKit's chat components publish on.
const ChatTopic = "lk-chat-topic"

type chatMessage struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

func encodeChat(text string, now time.Time) ([]byte, error) {
	return json.Marshal(chatMessage{
		ID:        uuid.NewString(),
		Timestamp: now.UnixMilli(),
		Message:   text,
	})
}

// decodeChat accepts the JSON chat envelope and falls back to plain UTF-8.
func decodeChat(payload []byte) (string, bool) {
	var msg chatMessage
	if err := json.Unmarshal(payload, &msg); err == nil && msg.Message != "" {
		return msg.Message, true
	}
	if !utf8.Valid(payload) {
		return "", false
	}
	text := strings.TrimSpace(string(payload))
	return text, text != ""
}

// SendChat publishes text to the room on the chat topic and records it in
// the transcript.
func (c *Client) SendChat(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	room := c.current()
	if room == nil {
		return session.ErrNotConnected
	}

	now := time.Now()
	data, err := encodeChat(text, now)
	if err != nil {
		return err
	}
	if err := room.LocalParticipant.PublishDataPacket(
		lksdk.UserData(data),
		lksdk.WithDataPublishReliable(true),
		lksdk.WithDataPublishTopic(ChatTopic),
	); err != nil {
		return err
	}

	c.store.AppendChat(session.ChatLine{
		From:  room.LocalParticipant.Identity(),
		Text:  text,
		Time:  now,
		Local: true,
	})
	return nil
}

func (c *Client) dataReceived(sender, topic string, payload []byte) {
	if topic != ChatTopic {
		c.logger.Debug("ignoring data packet", "sender", sender, "topic", topic, "size", len(payload))
		return
	}
	text, ok := decodeChat(payload)
	if !ok {
		return
	}
	c.store.AppendChat(session.ChatLine{
		From: sender,
		Text: text,
		Time: time.Now(),
	})
}
