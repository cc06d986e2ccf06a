// internal/server/handlers/websocket.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"

	"bikeflow/internal/domain/geo"
	"bikeflow/internal/domain/overlay"
	"bikeflow/internal/domain/traffic"
	geoService "bikeflow/internal/service/geo"
	overlayService "bikeflow/internal/service/overlay"
	trafficService "bikeflow/internal/service/traffic"
)

// Client message types
const (
	MessageFilter   = "filter"
	MessageViewport = "viewport"
)

// Server message types
const (
	MessageWelcome = "welcome"
	MessageFrame   = "frame"
	MessageError   = "error"
)

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return NewWebSocketConfig(10*time.Second, 60*time.Second, 64*1024)
}

// NewWebSocketConfig derives the ping period from the pong wait
func NewWebSocketConfig(writeWait, pongWait time.Duration, maxMessageSize int64) WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      writeWait,
		PongWait:       pongWait,
		PingPeriod:     (pongWait * 9) / 10,
		MaxMessageSize: maxMessageSize,
	}
}

// OverlaySessionConfig contains everything a new overlay session needs
type OverlaySessionConfig struct {
	EventsTopic string
	Viewport    geoService.ViewportConfig
	Controller  overlayService.ControllerConfig
	WebSocket   WebSocketConfig
}

// WebSocketUpgrader is used to upgrade HTTP connections to WebSocket
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, this should be more restrictive
		return true
	},
}

// clientMessage is anything a client may send
type clientMessage struct {
	Type   string          `json:"type"`
	Value  json.RawMessage `json:"value,omitempty"`
	Event  string          `json:"event,omitempty"`
	Center *[2]float64     `json:"center,omitempty"`
	Zoom   *float64        `json:"zoom,omitempty"`
	Width  float64         `json:"width,omitempty"`
	Height float64         `json:"height,omitempty"`
}

// serverMessage is anything the server sends to a client
type serverMessage struct {
	Type      string             `json:"type"`
	SessionID string             `json:"session_id,omitempty"`
	Map       *geo.ViewportState `json:"map,omitempty"`
	Frame     *overlay.Frame     `json:"frame,omitempty"`
	Error     string             `json:"error,omitempty"`
	Time      time.Time          `json:"time"`
}

// OverlaySession is one connected map client with its own controller
type OverlaySession struct {
	id           string
	conn         *websocket.Conn
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	natsConn     *nats.Conn
	subscription *nats.Subscription
	config       OverlaySessionConfig

	viewport    *geoService.MercatorViewport
	scene       *overlayService.Scene
	controller  *overlayService.Controller
	initialized bool
	pending     traffic.Selection
}

// OverlayWebSocketHandler handles WebSocket connections driving a station overlay.
// natsConn may be nil, in which case frames are written to the socket directly.
func OverlayWebSocketHandler(dataset traffic.Dataset, natsConn *nats.Conn, config OverlaySessionConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Upgrade HTTP connection to WebSocket
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Failed to upgrade to WebSocket: %v", err)
			return
		}

		session := newOverlaySession(conn, dataset, natsConn, config)

		// Frames published for this session come back through NATS
		if err := session.subscribe(); err != nil {
			log.Printf("Failed to subscribe to overlay frames: %v", err)
			session.closeConnection()
			return
		}

		go session.writePump()

		// Send welcome message
		state := session.viewport.State()
		session.sendMessage(serverMessage{
			Type:      MessageWelcome,
			SessionID: session.id,
			Map:       &state,
		})

		go session.readPump()

		log.Printf("New overlay session %s from %s", session.id, r.RemoteAddr)
	}
}

func newOverlaySession(conn *websocket.Conn, dataset traffic.Dataset, natsConn *nats.Conn, config OverlaySessionConfig) *OverlaySession {
	if config.WebSocket.PingPeriod <= 0 {
		config.WebSocket = DefaultWebSocketConfig()
	}

	s := &OverlaySession{
		id:       uuid.New().String(),
		conn:     conn,
		send:     make(chan []byte, 256),
		done:     make(chan struct{}),
		natsConn: natsConn,
		config:   config,
		viewport: geoService.NewMercatorViewport(config.Viewport),
		scene:    overlayService.NewScene(),
		pending:  traffic.NoFilter,
	}

	var sink overlay.FrameSink = &socketFrameSink{session: s}
	if natsConn != nil {
		sink = &natsFrameSink{
			conn:            natsConn,
			sessionID:       s.id,
			subject:         s.frameSubject(),
			recomputedTopic: config.EventsTopic + ".recomputed",
		}
	}

	s.controller = overlayService.NewController(dataset, s.scene, s.viewport, sink, config.Controller)
	return s
}

// frameSubject is the NATS subject carrying this session's frames
func (c *OverlaySession) frameSubject() string {
	return fmt.Sprintf("%s.%s.frame", c.config.EventsTopic, c.id)
}

// subscribe forwards this session's frames from NATS to the socket
func (c *OverlaySession) subscribe() error {
	if c.natsConn == nil {
		return nil
	}

	sub, err := c.natsConn.Subscribe(c.frameSubject(), func(msg *nats.Msg) {
		c.enqueue(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to frames: %w", err)
	}
	c.subscription = sub

	return nil
}

// readPump feeds client messages to the controller one at a time
func (c *OverlaySession) readPump() {
	config := c.config.WebSocket

	defer func() {
		c.closeConnection()
	}()

	c.conn.SetReadLimit(config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Process incoming message
		if err := c.processIncomingMessage(ctx, message); err != nil {
			c.sendError(err)
		}
	}
}

// writePump pumps messages from the session to the WebSocket connection
func (c *OverlaySession) writePump() {
	config := c.config.WebSocket
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// processIncomingMessage processes an incoming WebSocket message
func (c *OverlaySession) processIncomingMessage(ctx context.Context, message []byte) error {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return fmt.Errorf("failed to parse message: %w", err)
	}

	switch msg.Type {
	case MessageFilter:
		return c.handleFilter(ctx, msg)

	case MessageViewport:
		return c.handleViewport(ctx, msg)

	case "":
		return errors.New("missing message type")

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// handleFilter applies a slider change
func (c *OverlaySession) handleFilter(ctx context.Context, msg clientMessage) error {
	sel, err := trafficService.ParseSelection(sliderValue(msg.Value))
	if err != nil {
		return err
	}

	// Applied once the map reports a size
	if !c.initialized {
		c.pending = sel
		return nil
	}

	return c.controller.Dispatch(ctx, overlay.FilterChanged{Selection: sel})
}

// handleViewport applies a map movement. The first one carrying a size
// initializes the overlay.
func (c *OverlaySession) handleViewport(ctx context.Context, msg clientMessage) error {
	reason := overlay.ViewportReason(msg.Event)
	if msg.Event == "" {
		reason = overlay.ReasonMove
	}
	if !reason.Valid() || reason == overlay.ReasonInit {
		return fmt.Errorf("unknown viewport event: %s", msg.Event)
	}

	state := c.viewport.State()
	if msg.Center != nil {
		state.Center = geo.Coordinate{Longitude: msg.Center[0], Latitude: msg.Center[1]}
	}
	if msg.Zoom != nil {
		state.Zoom = *msg.Zoom
	}
	state.Width = msg.Width
	state.Height = msg.Height
	c.viewport.Apply(state)

	if c.initialized {
		return c.controller.Dispatch(ctx, overlay.ViewportChanged{Reason: reason})
	}

	if !c.viewport.Ready() {
		return nil
	}

	if err := c.controller.Init(ctx); err != nil {
		return fmt.Errorf("error initializing overlay: %w", err)
	}
	c.initialized = true

	if c.pending.Active() {
		return c.controller.Dispatch(ctx, overlay.FilterChanged{Selection: c.pending})
	}

	return nil
}

// sliderValue accepts the slider position as a JSON string or number
func sliderValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// sendError reports a rejected message to the client
func (c *OverlaySession) sendError(err error) {
	log.Printf("Overlay session %s: %v", c.id, err)
	c.sendMessage(serverMessage{
		Type:  MessageError,
		Error: err.Error(),
	})
}

func (c *OverlaySession) sendMessage(msg serverMessage) {
	msg.Time = time.Now()
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal %s message: %v", msg.Type, err)
		return
	}
	c.enqueue(data)
}

// enqueue blocks until the write pump takes the message or the session ends
func (c *OverlaySession) enqueue(data []byte) {
	select {
	case c.send <- data:
	case <-c.done:
	}
}

// closeConnection closes the WebSocket connection and cleans up resources
func (c *OverlaySession) closeConnection() {
	c.closeOnce.Do(func() {
		if c.subscription != nil {
			c.subscription.Unsubscribe()
		}

		close(c.done)
		c.conn.Close()

		log.Printf("Overlay session %s closed", c.id)
	})
}

// frameMessage wraps a frame for the socket
func frameMessage(frame overlay.Frame) ([]byte, error) {
	return json.Marshal(serverMessage{
		Type:  MessageFrame,
		Frame: &frame,
		Time:  time.Now(),
	})
}

// RecomputedEvent is published after every filter pass of any session
type RecomputedEvent struct {
	SessionID string          `json:"session_id"`
	Selection int             `json:"selection"`
	Label     string          `json:"label"`
	Summary   overlay.Summary `json:"summary"`
	Time      time.Time       `json:"time"`
}

// natsFrameSink publishes frames to the session's NATS subject
type natsFrameSink struct {
	conn            *nats.Conn
	sessionID       string
	subject         string
	recomputedTopic string
}

func (s *natsFrameSink) Emit(ctx context.Context, frame overlay.Frame) error {
	data, err := frameMessage(frame)
	if err != nil {
		return fmt.Errorf("error marshaling frame: %w", err)
	}

	if err := s.conn.Publish(s.subject, data); err != nil {
		return fmt.Errorf("error publishing frame: %w", err)
	}

	if frame.Event != (overlay.FilterChanged{}).Name() {
		return nil
	}

	eventJSON, err := json.Marshal(RecomputedEvent{
		SessionID: s.sessionID,
		Selection: frame.Selection,
		Label:     frame.Label,
		Summary:   frame.Summary,
		Time:      time.Now(),
	})
	if err != nil {
		return fmt.Errorf("error marshaling recomputed event: %w", err)
	}

	if err := s.conn.Publish(s.recomputedTopic, eventJSON); err != nil {
		return fmt.Errorf("error publishing recomputed event: %w", err)
	}

	return nil
}

// socketFrameSink writes frames straight to the session
type socketFrameSink struct {
	session *OverlaySession
}

func (s *socketFrameSink) Emit(ctx context.Context, frame overlay.Frame) error {
	data, err := frameMessage(frame)
	if err != nil {
		return fmt.Errorf("error marshaling frame: %w", err)
	}

	select {
	case s.session.send <- data:
		return nil
	case <-s.session.done:
		return errors.New("session closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}
