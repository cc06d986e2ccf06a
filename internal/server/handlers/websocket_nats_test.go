package handlers

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
)

func connectNATS(t *testing.T) *nats.Conn {
	t.Helper()

	srv := natsserver.RunRandClientPortServer()
	t.Cleanup(srv.Shutdown)

	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(nc.Close)

	return nc
}

func subscribeChan(t *testing.T, nc *nats.Conn, subject string) chan *nats.Msg {
	t.Helper()

	ch := make(chan *nats.Msg, 64)
	if _, err := nc.ChanSubscribe(subject, ch); err != nil {
		t.Fatalf("subscribe %s: %v", subject, err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return ch
}

func nextMsg(t *testing.T, ch chan *nats.Msg) *nats.Msg {
	t.Helper()

	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for NATS message")
		return nil
	}
}

func nextRecomputed(t *testing.T, ch chan *nats.Msg) RecomputedEvent {
	t.Helper()

	var ev RecomputedEvent
	if err := json.Unmarshal(nextMsg(t, ch).Data, &ev); err != nil {
		t.Fatalf("decode recomputed event: %v", err)
	}
	return ev
}

func TestOverlaySessionOverNATS(t *testing.T) {
	nc := connectNATS(t)

	// A separate connection watches what the session publishes
	observer := connectNATS(t)
	frames := subscribeChan(t, observer, "overlay.*.frame")
	recomputed := subscribeChan(t, observer, "overlay.recomputed")

	conn := dialOverlayWith(t, nc)
	welcome := readMessage(t, conn)
	if welcome.Type != MessageWelcome || welcome.SessionID == "" {
		t.Fatalf("welcome = %+v", welcome)
	}
	frameSubject := "overlay." + welcome.SessionID + ".frame"

	// Initialization: both frames reach the socket through the subscription
	writeJSON(t, conn, viewportMessage("resize", -71.0862, 42.3625))
	readFrame(t, conn, "filter")
	readFrame(t, conn, "viewport:init")

	for i := 0; i < 2; i++ {
		msg := nextMsg(t, frames)
		if msg.Subject != frameSubject {
			t.Errorf("frame subject = %q, want %q", msg.Subject, frameSubject)
		}
		if !strings.Contains(string(msg.Data), `"type":"frame"`) {
			t.Errorf("frame payload = %s", msg.Data)
		}
	}

	baseline := nextRecomputed(t, recomputed)
	if baseline.SessionID != welcome.SessionID || baseline.Selection != -1 || baseline.Summary.TripCount != 4 {
		t.Errorf("baseline event = %+v", baseline)
	}

	// A filter pass publishes its summary
	writeJSON(t, conn, map[string]interface{}{"type": MessageFilter, "value": "480"})
	readFrame(t, conn, "filter")

	filtered := nextRecomputed(t, recomputed)
	if filtered.Selection != 480 || filtered.Label != "8:00 AM" {
		t.Errorf("filtered event selection = %d label = %q", filtered.Selection, filtered.Label)
	}
	if filtered.Summary.TripCount != 2 || filtered.Summary.RadiusMin != 3 || filtered.Summary.RadiusMax != 50 {
		t.Errorf("filtered event summary = %+v", filtered.Summary)
	}

	// Viewport changes only move circles
	writeJSON(t, conn, viewportMessage("move", -71.0909, 42.3617))
	moved := readFrame(t, conn, "viewport:move")
	if moved.Frame.Selection != 480 {
		t.Errorf("selection after move = %d, want 480", moved.Frame.Selection)
	}

	if err := observer.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	select {
	case msg := <-recomputed:
		t.Errorf("unexpected recomputed event after viewport change: %s", msg.Data)
	case <-time.After(200 * time.Millisecond):
	}
}
