package api

import (
	"net/http"
	"time"

	"github.com/awion/stadion360/model"
	"github.com/awion/stadion360/public/realtime"
	"github.com/awion/stadion360/public/simulator"
	"github.com/awion/stadion360/public/store"
	"github.com/awion/stadion360/public/views"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler serves the dashboard over HTTP
type Handler struct {
	store     *store.Store
	simulator *simulator.Simulator
	hub       *realtime.Hub
	gatherer  prometheus.Gatherer
	logger    *zap.Logger
	version   string
	started   time.Time
	now       func() time.Time
}

// NewHandler creates a new HTTP handler. hub and gatherer may be nil, in
// which case their routes are not registered. A nil sim still serves the
// simulate routes, without timed scenarios.
func NewHandler(
	st *store.Store,
	sim *simulator.Simulator,
	hub *realtime.Hub,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
	version string,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:     st,
		simulator: sim,
		hub:       hub,
		gatherer:  gatherer,
		logger:    logger,
		version:   version,
		started:   time.Now(),
		now:       time.Now,
	}
}

// NewRouter builds a gin engine with the middleware chain and all routes
func (h *Handler) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Logging(h.logger))
	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes registers all HTTP routes
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1", StoreScope(h.store))
	{
		api.GET("/state", h.GetState)
		api.GET("/views/:name", h.GetView)
		api.GET("/profile/:userId", h.GetProfile)
		api.POST("/activities", h.RecordActivity)
		api.PUT("/focus", h.SetFocus)
		api.POST("/reset", h.Reset)

		alerts := api.Group("/alerts")
		{
			alerts.POST("", h.RaiseAlert)
			alerts.PUT("/:id/status", h.SetAlertStatus)
		}

		simulate := api.Group("/simulate")
		{
			simulate.POST("/security-alert", h.SimulateSecurityAlert)
			simulate.POST("/trash-level", h.SimulateTrashLevel)
			simulate.POST("/visitor-exit", h.SimulateVisitorExit)
		}

		if h.hub != nil {
			api.GET("/realtime/ws", h.hub.HandleWebSocket)
		}

		system := api.Group("/system")
		{
			system.GET("/health", h.HealthCheck)
		}
	}

	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}
}

// scopedStore fetches the store installed by StoreScope. It writes the
// error response itself and returns nil when the store is missing.
func scopedStore(c *gin.Context) *store.Store {
	st, err := store.FromContext(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "State store is not configured"})
		return nil
	}
	return st
}

// scopedSimulator returns the simulator driving the request's store. A
// handler built without one, or scoped to another store, gets a fresh
// simulator over the scoped store without timed scenarios.
func (h *Handler) scopedSimulator(c *gin.Context) (*simulator.Simulator, *store.Store) {
	st := scopedStore(c)
	if st == nil {
		return nil, nil
	}
	if h.simulator != nil && h.simulator.Store() == st {
		return h.simulator, st
	}
	return simulator.NewSimulator(nil, st, h.logger), st
}

// GetState returns the current snapshot
func (h *Handler) GetState(c *gin.Context) {
	st := scopedStore(c)
	if st == nil {
		return
	}
	c.JSON(http.StatusOK, st.Snapshot())
}

// GetView returns the payload of a named view
func (h *Handler) GetView(c *gin.Context) {
	st := scopedStore(c)
	if st == nil {
		return
	}

	name, err := views.Parse(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	view, err := views.Build(name, st.Snapshot(), h.now(), c.Query("userId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetProfile returns the loyalty profile for a user
func (h *Handler) GetProfile(c *gin.Context) {
	st := scopedStore(c)
	if st == nil {
		return
	}
	c.JSON(http.StatusOK, views.BuildProfile(st.Snapshot(), c.Param("userId")))
}

type activityRequest struct {
	Severity string `json:"severity"`
	Message  string `json:"message" binding:"required"`
	Location string `json:"location"`
}

// RecordActivity appends an entry to the activity feed
func (h *Handler) RecordActivity(c *gin.Context) {
	st := scopedStore(c)
	if st == nil {
		return
	}

	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	entry := st.RecordActivity(model.ActivityEntry{
		Severity: model.ParseSeverity(req.Severity),
		Message:  req.Message,
		Location: req.Location,
	})
	c.JSON(http.StatusCreated, entry)
}

type alertRequest struct {
	Gate        string         `json:"gate" binding:"required"`
	ThreatType  string         `json:"threatType" binding:"required"`
	Subject     *model.Subject `json:"subject"`
	Description string         `json:"description"`
}

// RaiseAlert raises a security alert at a gate
func (h *Handler) RaiseAlert(c *gin.Context) {
	st := scopedStore(c)
	if st == nil {
		return
	}

	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	alert := st.RaiseAlert(req.Gate, req.ThreatType, req.Subject, req.Description)
	c.JSON(http.StatusCreated, alert)
}

type alertStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	AssignedTo string `json:"assignedTo"`
}

// SetAlertStatus moves an alert through its handling stages
func (h *Handler) SetAlertStatus(c *gin.Context) {
	st := scopedStore(c)
	if st == nil {
		return
	}

	var req alertStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	status, ok := model.ParseAlertStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert status"})
		return
	}

	id := c.Param("id")
	if !st.SetAlertStatus(id, status, req.AssignedTo) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}

	alert, _ := st.Snapshot().FindAlert(id)
	c.JSON(http.StatusOK, alert)
}

type focusRequest struct {
	SelectedAlertID *string `json:"selectedAlertId"`
	HighlightedGate *string `json:"highlightedGate"`
}

// SetFocus selects an alert and highlights a gate. Null or missing fields
// clear the focus.
func (h *Handler) SetFocus(c *gin.Context) {
	st := scopedStore(c)
	if st == nil {
		return
	}

	var req focusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	st.SelectAlert(req.SelectedAlertID)
	st.HighlightGate(req.HighlightedGate)
	c.JSON(http.StatusOK, views.Modal(st.Snapshot(), h.now()))
}

// Reset restores the seed snapshot
func (h *Handler) Reset(c *gin.Context) {
	st := scopedStore(c)
	if st == nil {
		return
	}
	st.Reset()
	c.JSON(http.StatusOK, st.Snapshot())
}

// SimulateSecurityAlert raises a random alert. ?extended=true draws from the
// extended threat catalogue.
func (h *Handler) SimulateSecurityAlert(c *gin.Context) {
	sim, _ := h.scopedSimulator(c)
	if sim == nil {
		return
	}

	var alert model.Alert
	if c.Query("extended") == "true" {
		alert = sim.ExtendedSecurityAlert()
	} else {
		alert = sim.SecurityAlert()
	}
	c.JSON(http.StatusCreated, alert)
}

type trashLevelRequest struct {
	Level *int `json:"level"`
}

// SimulateTrashLevel sets the tracked bin level, or a random level when the
// body carries none
func (h *Handler) SimulateTrashLevel(c *gin.Context) {
	sim, st := h.scopedSimulator(c)
	if sim == nil {
		return
	}

	var req trashLevelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	var result interface{}
	if req.Level != nil {
		result = sim.TrashLevel(*req.Level)
	} else {
		result = sim.RandomTrashLevel()
	}

	c.JSON(http.StatusOK, gin.H{
		"trashLevel":     st.Snapshot().TrashLevel,
		"classification": result,
	})
}

// SimulateVisitorExit lets a random group of visitors leave
func (h *Handler) SimulateVisitorExit(c *gin.Context) {
	sim, _ := h.scopedSimulator(c)
	if sim == nil {
		return
	}

	exited, total := sim.VisitorExit()
	c.JSON(http.StatusOK, gin.H{
		"exited":       exited,
		"visitorCount": total,
	})
}

// HealthCheck reports liveness and a few counters
func (h *Handler) HealthCheck(c *gin.Context) {
	st := scopedStore(c)
	if st == nil {
		return
	}

	state := st.Snapshot()
	health := gin.H{
		"status":       "healthy",
		"version":      h.version,
		"timestamp":    h.now().UTC(),
		"uptime":       time.Since(h.started).String(),
		"store":        st.Config().Type,
		"activeAlerts": state.ActiveAlertCount,
		"security":     state.SecurityStatus,
	}
	if h.hub != nil {
		health["realtimeClients"] = h.hub.ConnectedClients()
	}
	if h.simulator != nil {
		health["scenarios"] = h.simulator.Running()
	}
	c.JSON(http.StatusOK, health)
}
