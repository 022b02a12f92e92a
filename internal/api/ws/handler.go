package ws

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/events"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/legacy"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	sendBuffer     = 32
)

// Bus is the part of the event bridge the stream needs
type Bus interface {
	Emit(channel events.Channel, payload any)
	Subscribe(channel events.Channel, handler events.Handler) func()
}

// Handler manages renderer WebSocket connections
type Handler struct {
	registry *window.Registry
	bus      Bus
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
	unsubs  []func()
}

// NewHandler creates a WebSocket handler and subscribes it to state and
// data change events. Origins lists accepted browser origins; "*" accepts any.
func NewHandler(registry *window.Registry, bus Bus, logger *zap.Logger, origins ...string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		registry: registry,
		bus:      bus,
		logger:   logger,
		clients:  make(map[string]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
		},
	}
	h.unsubs = append(h.unsubs,
		bus.Subscribe(events.ChannelStateChanged, h.onStateChanged),
		bus.Subscribe(events.ChannelInstanceDataChanged, h.onDataChanged),
	)
	return h
}

// WithMetrics adds metrics tracking to the handler
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// Connections returns the number of connected renderers
func (h *Handler) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unsubscribes from the bus and disconnects every renderer
func (h *Handler) Close() {
	h.mu.Lock()
	unsubs := h.unsubs
	h.unsubs = nil
	clients := make([]*client, 0, len(h.clients))
	for _, cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	for _, cl := range clients {
		cl.close()
	}
}

// HandleConnection upgrades the request and serves the connection until it closes
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := newClient(uuid.NewString(), conn, h.logger)
	h.register(cl)
	defer h.unregister(cl)

	go cl.writePump()

	snap := h.registry.Snapshot()
	h.send(cl, stateMessage(snap, cl.id))

	h.readPump(cl)
}

func (h *Handler) register(cl *client) {
	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()
	h.metrics.IncWSConnections()
	h.logger.Debug("Renderer connected", zap.String("connection_id", cl.id))
}

func (h *Handler) unregister(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl.id]
	delete(h.clients, cl.id)
	h.mu.Unlock()
	cl.close()
	if ok {
		h.metrics.DecWSConnections()
	}
	h.logger.Debug("Renderer disconnected", zap.String("connection_id", cl.id))
}

func (h *Handler) readPump(cl *client) {
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", zap.String("connection_id", cl.id), zap.Error(err))
			}
			return
		}

		var msg types.WSMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.sendError(cl, "malformed message")
			continue
		}
		h.metrics.RecordWSMessage("in", messageLabel(msg.Type))
		h.dispatch(cl, msg)
	}
}

func (h *Handler) dispatch(cl *client, msg types.WSMessage) {
	switch msg.Type {
	case "ping":
		h.send(cl, map[string]any{"type": "pong", "timestamp": time.Now().Unix()})
	case "launch":
		h.handleLaunch(cl, msg)
	case "focus":
		h.handleMutation(cl, msg, h.registry.BringToForeground)
	case "close":
		h.handleMutation(cl, msg, h.registry.Close)
	case "minimize":
		h.handleMutation(cl, msg, h.registry.Minimize)
	case "restore":
		h.handleMutation(cl, msg, h.registry.Restore)
	case "next":
		h.handleNavigate(cl, msg, h.registry.NavigateNext)
	case "previous":
		h.handleNavigate(cl, msg, h.registry.NavigatePrevious)
	case "geometry":
		h.handleGeometry(cl, msg)
	default:
		h.sendError(cl, "unknown message type")
	}
}

func (h *Handler) handleLaunch(cl *client, msg types.WSMessage) {
	if msg.Intent == nil {
		h.sendError(cl, "launch requires an intent")
		return
	}
	intent := *msg.Intent
	if !intent.AppID.Known() {
		h.sendError(cl, (&types.UnknownAppError{AppID: intent.AppID}).Error())
		return
	}
	if err := utils.ValidatePath(intent.InitialPath); err != nil {
		h.sendError(cl, err.Error())
		return
	}
	if err := utils.ValidatePayload(intent.InitialData); err != nil {
		h.sendError(cl, err.Error())
		return
	}

	h.bus.Emit(events.ChannelLaunchApp, intent)
	h.send(cl, map[string]any{"type": "ack", "action": "launch", "appId": intent.AppID})
}

func (h *Handler) handleMutation(cl *client, msg types.WSMessage, op func(string) bool) {
	if err := utils.ValidateID(msg.InstanceID, "instanceId", true); err != nil {
		h.sendError(cl, err.Error())
		return
	}
	changed := op(msg.InstanceID)
	h.send(cl, map[string]any{"type": "ack", "action": msg.Type, "instanceId": msg.InstanceID, "changed": changed})
}

func (h *Handler) handleNavigate(cl *client, msg types.WSMessage, op func(string) (string, bool)) {
	if err := utils.ValidateID(msg.InstanceID, "instanceId", true); err != nil {
		h.sendError(cl, err.Error())
		return
	}
	target, changed := op(msg.InstanceID)
	ack := map[string]any{"type": "ack", "action": msg.Type, "instanceId": msg.InstanceID, "changed": changed}
	if changed {
		ack["target"] = target
	}
	h.send(cl, ack)
}

func (h *Handler) handleGeometry(cl *client, msg types.WSMessage) {
	if err := utils.ValidateID(msg.InstanceID, "instanceId", true); err != nil {
		h.sendError(cl, err.Error())
		return
	}
	if msg.Geometry == nil {
		h.sendError(cl, "geometry message requires geometry")
		return
	}
	var x, y, w, hgt *int
	if p := msg.Geometry.Position; p != nil {
		x, y = &p.X, &p.Y
	}
	if s := msg.Geometry.Size; s != nil {
		w, hgt = &s.Width, &s.Height
	}
	if err := utils.ValidateGeometry(x, y, w, hgt); err != nil {
		h.sendError(cl, err.Error())
		return
	}
	changed := h.registry.UpdateGeometry(msg.InstanceID, msg.Geometry.Position, msg.Geometry.Size)
	h.send(cl, map[string]any{"type": "ack", "action": "geometry", "instanceId": msg.InstanceID, "changed": changed})
}

func (h *Handler) onStateChanged(evt events.Event) {
	snap, ok := evt.Payload.(types.Snapshot)
	if !ok {
		return
	}
	h.broadcast(stateMessage(snap, ""))
}

func (h *Handler) onDataChanged(evt events.Event) {
	change, ok := evt.Payload.(types.DataChange)
	if !ok {
		return
	}
	h.broadcast(map[string]any{"type": "data-changed", "change": change})
}

func (h *Handler) broadcast(msg map[string]any) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode broadcast", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	msgType, _ := msg["type"].(string)
	for _, cl := range clients {
		if cl.enqueue(data) {
			h.metrics.RecordWSMessage("out", msgType)
		}
	}
}

func (h *Handler) send(cl *client, msg map[string]any) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode message", zap.Error(err))
		return
	}
	if cl.enqueue(data) {
		msgType, _ := msg["type"].(string)
		h.metrics.RecordWSMessage("out", msgType)
	}
}

func (h *Handler) sendError(cl *client, message string) {
	h.send(cl, map[string]any{
		"type":      "error",
		"message":   message,
		"timestamp": time.Now().Unix(),
	})
}

// messageLabel bounds the metric label set to the known message types
func messageLabel(msgType string) string {
	switch msgType {
	case "ping", "launch", "focus", "close", "minimize", "restore", "next", "previous", "geometry":
		return msgType
	default:
		return "unknown"
	}
}

func stateMessage(snap types.Snapshot, connectionID string) map[string]any {
	msg := map[string]any{
		"type":     "state",
		"snapshot": snap,
		"apps":     legacy.Project(snap),
	}
	if connectionID != "" {
		msg["connectionId"] = connectionID
	}
	return msg
}
