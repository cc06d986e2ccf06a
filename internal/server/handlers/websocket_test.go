package handlers

import (
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"

	"bikeflow/internal/domain/geo"
	geoService "bikeflow/internal/service/geo"
	overlayService "bikeflow/internal/service/overlay"
	trafficService "bikeflow/internal/service/traffic"
)

func testSessionConfig() OverlaySessionConfig {
	return OverlaySessionConfig{
		EventsTopic: "overlay",
		Viewport: geoService.ViewportConfig{
			Center:  geo.Coordinate{Longitude: -71.09415, Latitude: 42.36027},
			Zoom:    12,
			MinZoom: 5,
			MaxZoom: 18,
		},
		Controller: overlayService.ControllerConfig{
			Radius: trafficService.DefaultRadiusRanges(),
			Style:  overlayService.DefaultStyle(),
		},
		WebSocket: DefaultWebSocketConfig(),
	}
}

func dialOverlay(t *testing.T) *websocket.Conn {
	t.Helper()
	return dialOverlayWith(t, nil)
}

func dialOverlayWith(t *testing.T, natsConn *nats.Conn) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(OverlayWebSocketHandler(testDataset(), natsConn, testSessionConfig()))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg serverMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func readFrame(t *testing.T, conn *websocket.Conn, event string) serverMessage {
	t.Helper()

	msg := readMessage(t, conn)
	if msg.Type != MessageFrame || msg.Frame == nil {
		t.Fatalf("got %q message (%s), want frame", msg.Type, msg.Error)
	}
	if msg.Frame.Event != event {
		t.Fatalf("frame event = %q, want %q", msg.Frame.Event, event)
	}
	return msg
}

func writeJSON(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func viewportMessage(event string, lng, lat float64) map[string]interface{} {
	return map[string]interface{}{
		"type":   MessageViewport,
		"event":  event,
		"center": []float64{lng, lat},
		"zoom":   14,
		"width":  1024,
		"height": 768,
	}
}

func TestOverlaySessionLifecycle(t *testing.T) {
	conn := dialOverlay(t)

	welcome := readMessage(t, conn)
	if welcome.Type != MessageWelcome || welcome.SessionID == "" {
		t.Fatalf("welcome = %+v", welcome)
	}
	if welcome.Map == nil || welcome.Map.Zoom != 12 {
		t.Errorf("welcome map = %+v", welcome.Map)
	}

	// First sized viewport initializes the overlay
	writeJSON(t, conn, viewportMessage("resize", -71.0862, 42.3625))

	baseline := readFrame(t, conn, "filter")
	if !baseline.Frame.AnyTime || baseline.Frame.Summary.TripCount != 4 {
		t.Errorf("baseline frame = %+v", baseline.Frame)
	}
	placed := readFrame(t, conn, "viewport:init")
	if len(placed.Frame.Circles) != 3 {
		t.Fatalf("got %d circles, want 3", len(placed.Frame.Circles))
	}

	var cx, cy float64
	for _, c := range placed.Frame.Circles {
		if c.ID == "A32000" {
			cx, cy = c.CX, c.CY
			if c.Stroke != "white" || c.FillOpacity != 0.6 || c.R != 25 {
				t.Errorf("A32000 circle = %+v", c)
			}
		}
	}
	// A32000 sits at the viewport center
	if math.Abs(cx-512) > 0.5 || math.Abs(cy-384) > 0.5 {
		t.Errorf("A32000 at (%v, %v), want (512, 384)", cx, cy)
	}

	// Slider moves to 8:00 AM
	writeJSON(t, conn, map[string]interface{}{"type": MessageFilter, "value": "480"})
	filtered := readFrame(t, conn, "filter")
	if filtered.Frame.Selection != 480 || filtered.Frame.Label != "8:00 AM" {
		t.Errorf("filtered frame selection = %d label = %q", filtered.Frame.Selection, filtered.Frame.Label)
	}
	if filtered.Frame.Summary.TripCount != 2 || filtered.Frame.Summary.RadiusMin != 3 {
		t.Errorf("filtered summary = %+v", filtered.Frame.Summary)
	}

	// Panning keeps the selection and moves circles
	writeJSON(t, conn, viewportMessage("move", -71.0909, 42.3617))
	moved := readFrame(t, conn, "viewport:move")
	if moved.Frame.Selection != 480 {
		t.Errorf("selection after move = %d, want 480", moved.Frame.Selection)
	}
	for _, c := range moved.Frame.Circles {
		if c.ID == "A32000" && c.CX <= 512 {
			t.Errorf("A32000 should be right of center after panning west, cx = %v", c.CX)
		}
	}

	// Reset with a numeric slider value
	writeJSON(t, conn, map[string]interface{}{"type": MessageFilter, "value": -1})
	reset := readFrame(t, conn, "filter")
	if !reset.Frame.AnyTime || reset.Frame.Summary.TripCount != 4 {
		t.Errorf("reset frame = %+v", reset.Frame)
	}
	if reset.Frame.Sequence <= moved.Frame.Sequence {
		t.Errorf("sequence did not advance: %d after %d", reset.Frame.Sequence, moved.Frame.Sequence)
	}
}

func TestOverlaySessionFilterBeforeReady(t *testing.T) {
	conn := dialOverlay(t)
	readMessage(t, conn)

	writeJSON(t, conn, map[string]interface{}{"type": MessageFilter, "value": "1020"})
	writeJSON(t, conn, viewportMessage("resize", -71.09415, 42.36027))

	readFrame(t, conn, "filter")
	readFrame(t, conn, "viewport:init")

	pending := readFrame(t, conn, "filter")
	if pending.Frame.Selection != 1020 || pending.Frame.Label != "5:00 PM" {
		t.Errorf("pending selection = %d label = %q", pending.Frame.Selection, pending.Frame.Label)
	}
}

func TestOverlaySessionRejectsInvalidMessages(t *testing.T) {
	conn := dialOverlay(t)
	readMessage(t, conn)

	for _, raw := range []string{
		`not json`,
		`{"value":"3"}`,
		`{"type":"chat"}`,
		`{"type":"filter","value":"1440"}`,
		`{"type":"viewport","event":"spin"}`,
	} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatalf("write: %v", err)
		}
		msg := readMessage(t, conn)
		if msg.Type != MessageError || msg.Error == "" {
			t.Errorf("%s: got %q message, want error", raw, msg.Type)
		}
	}
}
