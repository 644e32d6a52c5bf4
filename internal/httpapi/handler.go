// Package httpapi exposes the synergy tracker over HTTP. Authentication is
// upstream: handlers trust the actor identity headers set by the gateway.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dealsuite/synergy-tracker/internal/application/port"
	"github.com/dealsuite/synergy-tracker/internal/application/service"
	appwf "github.com/dealsuite/synergy-tracker/internal/application/workflow"
	"github.com/dealsuite/synergy-tracker/internal/domain/entity"
	"github.com/dealsuite/synergy-tracker/internal/domain/workflow"
	"github.com/dealsuite/synergy-tracker/internal/report"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Actor identity headers, populated by the authenticating proxy
const (
	headerUserID    = "X-User-ID"
	headerUserEmail = "X-User-Email"
)

// Handler serves the synergy and workflow endpoints
type Handler struct {
	synergies service.SynergyService
	engine    appwf.Engine
	exporter  *report.AuditExporter
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(synergies service.SynergyService, engine appwf.Engine, exporter *report.AuditExporter, logger *zap.Logger) *Handler {
	return &Handler{
		synergies: synergies,
		engine:    engine,
		exporter:  exporter,
		logger:    logger,
	}
}

// RegisterRoutes attaches all API routes to the router
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/synergies", h.listSynergies)
		api.POST("/synergies", h.createSynergy)
		api.POST("/synergies/generate", h.generateSynergies)
		api.GET("/synergies/:id", h.getSynergy)
		api.PUT("/synergies/:id", h.updateSynergy)
		api.DELETE("/synergies/:id", h.deleteSynergy)

		api.GET("/synergies/:id/workflow", h.getWorkflowHistory)
		api.POST("/synergies/:id/workflow", h.applyWorkflowAction)
		api.GET("/synergies/:id/workflow/export", h.exportWorkflowHistory)
		api.GET("/synergies/:id/stages", h.getStages)

		api.GET("/synergies/:id/metrics", h.getMetrics)
		api.POST("/synergies/:id/metrics", h.addMetric)
	}
}

func (h *Handler) listSynergies(c *gin.Context) {
	var filter port.SynergyFilter

	for param, dest := range map[string]*int64{
		"company1_id": &filter.Company1ID,
		"company2_id": &filter.Company2ID,
		"deal_id":     &filter.DealID,
	} {
		if raw := c.Query(param); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", param)})
				return
			}
			*dest = v
		}
	}
	filter.SynergyType = c.Query("synergy_type")
	if status := c.Query("status"); status != "" {
		state := workflow.State(status)
		if !state.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid status %q", status)})
			return
		}
		filter.Status = state
	}

	synergies, err := h.synergies.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if synergies == nil {
		synergies = []*entity.Synergy{}
	}

	c.JSON(http.StatusOK, synergies)
}

func (h *Handler) createSynergy(c *gin.Context) {
	var input service.SynergyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	synergy, err := h.synergies.Create(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, synergy)
}

func (h *Handler) getSynergy(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	synergy, err := h.synergies.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, synergy)
}

func (h *Handler) updateSynergy(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var input service.SynergyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	synergy, err := h.synergies.Update(c.Request.Context(), id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, synergy)
}

func (h *Handler) deleteSynergy(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.synergies.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) generateSynergies(c *gin.Context) {
	var input service.GenerateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	synergies, err := h.synergies.GenerateForDeal(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, synergies)
}

// applyRequest is the body of POST /api/synergies/:id/workflow
type applyRequest struct {
	Action  string `json:"action" binding:"required"`
	Comment string `json:"comment"`
	// ExpectedState, when set, makes the transition conditional on the
	// record still being in the state the client last saw
	ExpectedState string `json:"expected_state"`
}

func (h *Handler) applyWorkflowAction(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	actorID := c.GetHeader(headerUserID)
	if actorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing X-User-ID header"})
		return
	}

	var body applyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: action is required"})
		return
	}

	// Existence is the CRUD layer's concern; checking here keeps 404
	// semantics for dangling ids
	if _, err := h.synergies.Get(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	transition, err := h.engine.Apply(c.Request.Context(), appwf.ApplyRequest{
		SynergyID:     id,
		Action:        workflow.Action(body.Action),
		ActorID:       actorID,
		ActorLabel:    c.GetHeader(headerUserEmail),
		Comment:       body.Comment,
		ExpectedState: workflow.State(body.ExpectedState),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, transition)
}

func (h *Handler) getWorkflowHistory(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if _, err := h.synergies.Get(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	history, err := h.engine.History(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if history == nil {
		history = []*entity.WorkflowTransition{}
	}

	c.JSON(http.StatusOK, history)
}

func (h *Handler) exportWorkflowHistory(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	synergy, err := h.synergies.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	history, err := h.engine.History(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	buf, err := h.exporter.Export(synergy, history)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("synergy-%d-audit.xlsx", id)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *Handler) getStages(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if _, err := h.synergies.Get(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	current, err := h.engine.CurrentState(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"current_state": current,
		"stages":        workflow.ProjectStages(current, workflow.Pipeline),
	})
}

func (h *Handler) getMetrics(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	synergy, err := h.synergies.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	metrics, err := h.synergies.Metrics(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if metrics == nil {
		metrics = []*entity.SynergyMetric{}
	}

	c.JSON(http.StatusOK, gin.H{
		"synergy_id":       synergy.ID,
		"total_value_low":  synergy.ValueLow,
		"total_value_high": synergy.ValueHigh,
		"metrics":          metrics,
	})
}

func (h *Handler) addMetric(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var metric entity.SynergyMetric
	if err := c.ShouldBindJSON(&metric); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	metric.SynergyID = id

	if err := h.synergies.AddMetric(c.Request.Context(), &metric); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, metric)
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid synergy id"})
		return 0, false
	}
	return id, true
}

// respondError maps domain errors onto HTTP status codes. Error messages
// are passed through so the client sees the observed state and attempted
// action.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrInvalidAction),
		errors.Is(err, workflow.ErrInvalidState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrStoreUnavailable):
		h.logger.Error("Store unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage temporarily unavailable"})
	default:
		h.logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
