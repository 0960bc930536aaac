package room

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeChat(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	data, err := encodeChat("what do you see?", now)
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "what do you see?", msg["message"])
	assert.EqualValues(t, 1700000000123, msg["timestamp"])
	assert.Len(t, msg["id"], 36)

	text, ok := decodeChat(data)
	assert.True(t, ok)
	assert.Equal(t, "what do you see?", text)
}

func TestDecodeChat(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    string
		ok      bool
	}{
		{"envelope", `{"message":"hi"}`, "hi", true},
		{"empty envelope", `{"message":""}`, `{"message":""}`, true},
		{"plain", "  hello  ", "hello", true},
		{"blank", "   ", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text, ok := decodeChat([]byte(tc.payload))
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, text)
		})
	}
}
