package events

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-client/session"
)

func TestNotifyKeepsNewestPendingSnapshot(t *testing.T) {
	h := NewHub(zerolog.Nop())

	for i := 0; i < 300; i++ {
		h.Notify(session.State{Success: fmt.Sprint(i)})
	}

	if len(h.broadcast) != 1 {
		t.Fatalf("pending = %d, want 1", len(h.broadcast))
	}
	msg := <-h.broadcast
	if msg.State.Success != "299" {
		t.Fatalf("pending snapshot = %q, want the last one", msg.State.Success)
	}
}
