package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLineSpinnerUpdateMessage(t *testing.T) {
	var out strings.Builder
	s := NewWaitingSpinner("waiting")
	s.out = &out
	s.UpdateMessage("waiting (3s)")
	s.Start()

	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return strings.Contains(out.String(), "waiting (3s)")
	}, time.Second, 10*time.Millisecond)

	s.Success("done")
	s.Stop()
	assert.Contains(t, out.String(), "done")
}
