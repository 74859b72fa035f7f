package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/civicai/portal/domain/entities"
	"github.com/civicai/portal/domain/repositories"
	"github.com/civicai/portal/internal/metrics"
	"github.com/civicai/portal/internal/voice"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio frames

	// How long a started session waits for the browser to report its
	// microphone state.
	micReadyTimeout = 15 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the portal's own origin once it is deployed
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active voice clients
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	gateway repositories.RealtimeGateway
	liveCfg repositories.LiveConfig

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(gateway repositories.RealtimeGateway, liveCfg repositories.LiveConfig, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		gateway:    gateway,
		liveCfg:    liveCfg,
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.connID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("connID", client.connID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.connID]; ok {
				delete(h.clients, client.connID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("connID", client.connID))
		}
	}
}

// ClientCount reports how many voice connections are open
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is one browser voice connection. It bridges the socket protocol
// onto the voice engine: inbound frames become microphone samples, and the
// engine's playback and transcript callbacks become outbound frames.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Connection id, unique per socket
	connID string

	// Authenticated citizen id
	citizenID string

	logger *zap.Logger

	engine *voice.Engine

	// micReady resolves the pending microphone acquisition
	micReady chan error

	// frames carries decoded microphone samples into the engine
	frames chan []float32

	// epoch anchors the session playback clock
	mu    sync.Mutex
	epoch time.Time
}

// HandleVoiceSocket upgrades an authenticated request and runs the voice
// bridge until the connection drops
func HandleVoiceSocket(hub *Hub, c echo.Context, citizenID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, 256),
		connID:    c.Response().Header().Get(echo.HeaderXRequestID),
		citizenID: citizenID,
		logger:    logger,
		micReady:  make(chan error, 1),
		frames:    make(chan []float32, 64),
	}
	if client.connID == "" {
		client.connID = citizenID
	}
	client.engine = voice.NewEngine(hub.gateway, client, client, client, hub.liveCfg, logger)

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection into the engine.
func (c *Client) readPump() {
	defer func() {
		c.engine.Stop()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}
		if messageType != websocket.TextMessage {
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
			continue
		}
		metrics.WSMessages.WithLabelValues("in").Inc()
		c.processMessage(message)
	}
}

// writePump pumps messages from the engine to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}
			metrics.WSMessages.WithLabelValues("out").Inc()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage dispatches one inbound frame
func (c *Client) processMessage(raw []byte) {
	msg, err := ParseClientMessage(raw)
	if err != nil {
		c.logger.Error("Failed to parse message", zap.Error(err))
		c.sendJSON(NewErrorMessage("bad_frame", err.Error()))
		return
	}

	switch msg.Type {
	case MessageTypeSessionStart:
		go func() {
			if err := c.engine.Start(context.Background()); err != nil {
				c.sendJSON(NewErrorMessage("session_start_failed", err.Error()))
			}
		}()

	case MessageTypeSessionStop:
		c.engine.Stop()

	case MessageTypeMicReady:
		c.resolveMic(nil)

	case MessageTypeMicDenied:
		c.resolveMic(voice.ErrMediaAccessDenied)

	case MessageTypeAudioFrame:
		samples, err := DecodeAudioFrame(msg.Data)
		if err != nil {
			c.logger.Warn("Bad audio frame", zap.Error(err))
			return
		}
		select {
		case c.frames <- samples:
		default:
			c.logger.Warn("Dropping audio frame, engine is behind",
				zap.String("connID", c.connID))
		}

	default:
		c.logger.Warn("Unknown message type", zap.String("type", string(msg.Type)))
	}
}

func (c *Client) resolveMic(err error) {
	select {
	case c.micReady <- err:
	default:
		c.logger.Warn("Microphone state reported with no pending session",
			zap.String("connID", c.connID))
	}
}

// sendJSON marshals and queues one outbound frame; a full queue drops the
// frame rather than blocking the engine
func (c *Client) sendJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to marshal outbound frame", zap.Error(err))
		return
	}
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Dropping outbound frame, client is behind",
			zap.String("connID", c.connID))
	}
}

// Open waits for the browser to report its microphone state. The playback
// clock starts when the microphone is granted.
func (c *Client) Open(ctx context.Context) error {
	// stale frames from a previous session must not leak into this one
	for {
		select {
		case <-c.frames:
			continue
		default:
		}
		break
	}

	select {
	case err := <-c.micReady:
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.epoch = time.Now()
		c.mu.Unlock()
		return nil
	case <-time.After(micReadyTimeout):
		return context.DeadlineExceeded
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Frames yields decoded microphone frames
func (c *Client) Frames() <-chan []float32 {
	return c.frames
}

// Close releases the capture side; the socket and frame channel stay open
// for the next session on this connection
func (c *Client) Close() error {
	return nil
}

// OutputTime is the session playback clock in seconds
func (c *Client) OutputTime() float64 {
	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()
	if epoch.IsZero() {
		return 0
	}
	return time.Since(epoch).Seconds()
}

// timerHandle cancels a pending playback-finished notification
type timerHandle struct {
	timer *time.Timer
}

func (h *timerHandle) Stop() {
	h.timer.Stop()
}

// Play forwards one synthesized chunk with its playback slot and arranges
// the finished callback for when the slot has elapsed
func (c *Client) Play(pcm []byte, start float64, done func()) (voice.PlaybackHandle, error) {
	c.sendJSON(NewAudioOutMessage(pcm, start, duration(pcm)))

	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()
	endsAt := epoch.Add(time.Duration((start + duration(pcm)) * float64(time.Second)))
	timer := time.AfterFunc(time.Until(endsAt), done)
	return &timerHandle{timer: timer}, nil
}

func duration(pcm []byte) float64 {
	return voice.ChunkDuration(len(pcm), voice.OutputSampleRate)
}

// TranscriptUpdated forwards the coalesced assistant transcript
func (c *Client) TranscriptUpdated(msg entities.Message) {
	c.sendJSON(NewTranscriptMessage(msg))
}

// Interrupted tells the browser to discard its queued playback
func (c *Client) Interrupted() {
	c.sendJSON(NewInterruptedMessage())
}

// Closed reports the end of the session
func (c *Client) Closed(err error) {
	c.sendJSON(NewSessionClosedMessage(err))
}
