package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/events"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/launch"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/legacy"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/utils"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	registry    *window.Registry
	router      *launch.Router
	bus         *events.Bus
	catalog     *catalog.Catalog
	sessions    *session.Manager
	metrics     *HandlerMetrics
	logger      *zap.Logger
	comparer    *utils.PayloadComparer
	launchDelay time.Duration
}

// NewHandlers creates a new handler set
func NewHandlers(
	registry *window.Registry,
	router *launch.Router,
	bus *events.Bus,
	apps *catalog.Catalog,
	sessions *session.Manager,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		registry: registry,
		router:   router,
		bus:      bus,
		catalog:  apps,
		sessions: sessions,
		metrics:  NewHandlerMetrics(metrics),
		logger:   logger,
		comparer: utils.NewPayloadComparer(nil),
	}
}

// WithLaunchDelay sets the default delay for launches emitted through the event bridge
func (h *Handlers) WithLaunchDelay(delay time.Duration) *Handlers {
	h.launchDelay = delay
	return h
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/catalog", h.ListCatalog)

	r.POST("/launch", h.Launch)
	r.POST("/events/launch", h.EmitLaunch)

	r.GET("/apps", h.LegacyApps)
	r.GET("/instances", h.ListInstances)
	r.DELETE("/instances/:id", h.CloseInstance)
	r.GET("/instances/:id/zindex", h.ZIndex)
	r.POST("/instances/:id/focus", h.FocusInstance)
	r.POST("/instances/:id/minimize", h.MinimizeInstance)
	r.POST("/instances/:id/restore", h.RestoreInstance)
	r.POST("/instances/:id/next", h.NextInstance)
	r.POST("/instances/:id/previous", h.PreviousInstance)
	r.PUT("/instances/:id/geometry", h.UpdateGeometry)
	r.PUT("/instances/:id/data", h.UpdateData)
	r.PUT("/instances/:id/title", h.SetTitle)

	r.GET("/hints", h.ListHints)
	r.GET("/hints/:appId", h.GetHint)

	r.POST("/sessions", h.SaveSession)
	r.GET("/sessions", h.ListSessions)
	r.POST("/sessions/:id/restore", h.RestoreSession)
	r.DELETE("/sessions/:id", h.DeleteSession)

	r.GET("/metrics/json", h.MetricsJSON)
	r.POST("/logs", h.StreamLogs)
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "desktop",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"registry": h.registry.Stats(),
		"catalog":  h.catalog.Stats(),
		"sessions": h.sessions.Stats(c.Request.Context()),
		"events": gin.H{
			string(events.ChannelLaunchApp):    h.bus.Subscribers(events.ChannelLaunchApp),
			string(events.ChannelStateChanged): h.bus.Subscribers(events.ChannelStateChanged),
		},
	})
}

// ListCatalog lists registered applications, optionally filtered by category
func (h *Handlers) ListCatalog(c *gin.Context) {
	var category *string
	if raw := c.Query("category"); raw != "" {
		if err := utils.ValidateString(raw, "category", 1, utils.MaxNameLength, false); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		category = &raw
	}

	c.JSON(http.StatusOK, gin.H{
		"apps":  h.catalog.List(category),
		"stats": h.catalog.Stats(),
	})
}

// Launch routes a launch intent synchronously
func (h *Handlers) Launch(c *gin.Context) {
	var intent types.LaunchIntent
	if err := c.ShouldBindJSON(&intent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateIntent(intent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	timer := h.metrics.Track("launch", "route")
	result, err := h.router.Launch(c.Request.Context(), intent)
	timer.StopErr(err)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"instanceId":  result.InstanceID,
		"outcome":     result.Outcome,
		"dataChanged": result.DataChanged,
	})
}

// launchEvent is a launch intent delivered through the event bridge
type launchEvent struct {
	types.LaunchIntent
	DelayMs *int `json:"delay_ms,omitempty"`
}

// EmitLaunch publishes a launch intent on the launch-app channel
func (h *Handlers) EmitLaunch(c *gin.Context) {
	var req launchEvent
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateIntent(req.LaunchIntent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.catalog.Has(req.AppID) {
		h.respondError(c, &types.UnknownAppError{AppID: req.AppID})
		return
	}

	delay := h.launchDelay
	if req.DelayMs != nil {
		if *req.DelayMs < 0 || *req.DelayMs > 60_000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "delay_ms must be between 0 and 60000"})
			return
		}
		delay = time.Duration(*req.DelayMs) * time.Millisecond
	}

	// The delayed emit must outlive the request
	h.bus.EmitAfter(context.WithoutCancel(c.Request.Context()), delay, events.ChannelLaunchApp, req.LaunchIntent)

	c.JSON(http.StatusAccepted, gin.H{
		"accepted": true,
		"channel":  events.ChannelLaunchApp,
		"delay_ms": delay.Milliseconds(),
	})
}

// LegacyApps returns the per-application aggregate view
func (h *Handlers) LegacyApps(c *gin.Context) {
	snap := h.registry.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"apps":    legacy.Project(snap),
		"version": snap.Version,
	})
}

// ListInstances returns the registry snapshot
func (h *Handlers) ListInstances(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"snapshot": h.registry.Snapshot(),
		"stats":    h.registry.Stats(),
	})
}

// CloseInstance removes an instance
func (h *Handlers) CloseInstance(c *gin.Context) {
	h.mutate(c, h.registry.Close)
}

// FocusInstance brings an instance to the foreground
func (h *Handlers) FocusInstance(c *gin.Context) {
	h.mutate(c, h.registry.BringToForeground)
}

// MinimizeInstance minimizes an instance
func (h *Handlers) MinimizeInstance(c *gin.Context) {
	h.mutate(c, h.registry.Minimize)
}

// RestoreInstance un-minimizes and focuses an instance
func (h *Handlers) RestoreInstance(c *gin.Context) {
	h.mutate(c, h.registry.Restore)
}

// NextInstance focuses the next sibling of the same app
func (h *Handlers) NextInstance(c *gin.Context) {
	h.navigate(c, h.registry.NavigateNext)
}

// PreviousInstance focuses the previous sibling of the same app
func (h *Handlers) PreviousInstance(c *gin.Context) {
	h.navigate(c, h.registry.NavigatePrevious)
}

// ZIndex returns the 1-based stacking position of an instance
func (h *Handlers) ZIndex(c *gin.Context) {
	instanceID, ok := instanceParam(c)
	if !ok {
		return
	}
	z, found := h.registry.ZIndexOf(instanceID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "instance not found", "instanceId": instanceID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"instanceId": instanceID, "zIndex": z})
}

// UpdateGeometry merges position and size into an instance
func (h *Handlers) UpdateGeometry(c *gin.Context) {
	instanceID, ok := instanceParam(c)
	if !ok {
		return
	}
	var req types.GeometryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateGeometry(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	changed := h.registry.UpdateGeometry(instanceID, req.Position, req.Size)
	c.JSON(http.StatusOK, gin.H{"changed": changed, "instanceId": instanceID})
}

// UpdateData replaces an instance payload and notifies the mounted app
func (h *Handlers) UpdateData(c *gin.Context) {
	instanceID, ok := instanceParam(c)
	if !ok {
		return
	}
	var req types.DataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidatePayload(req.InitialData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		change  types.DataChange
		changed bool
	)
	_ = h.registry.Atomically(func(tx *window.Txn) error {
		inst, ok := tx.Get(instanceID)
		if !ok || h.comparer.Equal(inst.InitialData, req.InitialData) {
			return nil
		}
		changed = tx.UpdateData(instanceID, req.InitialData)
		change = types.DataChange{InstanceID: instanceID, AppID: inst.AppID, InitialData: req.InitialData}
		return nil
	})
	if changed {
		h.bus.Emit(events.ChannelInstanceDataChanged, change)
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed, "instanceId": instanceID})
}

// SetTitle overrides an instance title
func (h *Handlers) SetTitle(c *gin.Context) {
	instanceID, ok := instanceParam(c)
	if !ok {
		return
	}
	var req types.TitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	title := utils.SanitizeTitle(req.Title)
	changed := h.registry.SetTitle(instanceID, title)
	c.JSON(http.StatusOK, gin.H{"changed": changed, "instanceId": instanceID, "title": title})
}

// ListHints returns the persisted per-app hints
func (h *Handlers) ListHints(c *gin.Context) {
	hints, err := h.sessions.Hints(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hints": hints})
}

// GetHint returns the persisted hint of one app
func (h *Handlers) GetHint(c *gin.Context) {
	appID := types.AppID(c.Param("appId"))
	if !appID.Known() {
		h.respondError(c, &types.UnknownAppError{AppID: appID})
		return
	}

	hint, found, err := h.sessions.Hint(c.Request.Context(), appID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no hint recorded", "appId": appID})
		return
	}
	c.JSON(http.StatusOK, hint)
}

// SaveSession captures the current workspace
func (h *Handlers) SaveSession(c *gin.Context) {
	var req types.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateString(req.Name, "name", 1, utils.MaxNameLength, true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateString(req.Description, "description", 0, utils.MaxDescriptionLength, false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.sessions.Save(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": sess.ToMetadata()})
}

// ListSessions lists saved sessions, newest first
func (h *Handlers) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	sessions, err := h.sessions.List(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"stats":    h.sessions.Stats(ctx),
	})
}

// RestoreSession replaces the workspace with a saved session
func (h *Handlers) RestoreSession(c *gin.Context) {
	sessionID := c.Param("id")
	if err := utils.ValidateID(sessionID, "session_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.sessions.Restore(c.Request.Context(), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":  sess.ToMetadata(),
		"snapshot": h.registry.Snapshot(),
	})
}

// DeleteSession removes a saved session
func (h *Handlers) DeleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	if err := utils.ValidateID(sessionID, "session_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), sessionID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sessionId": sessionID})
}

func (h *Handlers) mutate(c *gin.Context, op func(string) bool) {
	instanceID, ok := instanceParam(c)
	if !ok {
		return
	}
	changed := op(instanceID)
	c.JSON(http.StatusOK, gin.H{"changed": changed, "instanceId": instanceID})
}

func (h *Handlers) navigate(c *gin.Context, op func(string) (string, bool)) {
	instanceID, ok := instanceParam(c)
	if !ok {
		return
	}
	target, changed := op(instanceID)
	resp := gin.H{"changed": changed, "instanceId": instanceID}
	if changed {
		resp["target"] = target
	}
	c.JSON(http.StatusOK, resp)
}

// respondError maps domain errors onto status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	var unknown *types.UnknownAppError
	switch {
	case errors.As(err, &unknown):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "unknown_app", "appId": unknown.AppID})
	case errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "session_not_found"})
	case errors.Is(err, window.ErrInstanceExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "instance_exists"})
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func instanceParam(c *gin.Context) (string, bool) {
	instanceID := c.Param("id")
	if err := utils.ValidateID(instanceID, "instance_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return instanceID, true
}

func validateIntent(intent types.LaunchIntent) error {
	if err := utils.ValidateID(string(intent.AppID), "appId", true); err != nil {
		return err
	}
	if err := utils.ValidatePath(intent.InitialPath); err != nil {
		return err
	}
	return utils.ValidatePayload(intent.InitialData)
}

func validateGeometry(req types.GeometryRequest) error {
	var x, y, w, hgt *int
	if req.Position != nil {
		x, y = &req.Position.X, &req.Position.Y
	}
	if req.Size != nil {
		w, hgt = &req.Size.Width, &req.Size.Height
	}
	return utils.ValidateGeometry(x, y, w, hgt)
}
