package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/adlytics/experiment-service/internal/assignment"
	"github.com/adlytics/experiment-service/internal/dto"
	"github.com/adlytics/experiment-service/internal/experiments"
	"github.com/adlytics/experiment-service/internal/service"
)

// Config carries the route-level settings the handler needs.
type Config struct {
	// PricingTestID names the single experiment the pricing view exposes.
	PricingTestID string

	// ResultsAPIKey guards the results endpoint. Empty disables it.
	ResultsAPIKey string
}

type Handler struct {
	experimentService service.ExperimentServicer
	registry          *experiments.Registry
	engine            *assignment.Engine
	config            Config
	router            *gin.Engine
	log               *zap.Logger
}

func NewHandler(experimentService service.ExperimentServicer, engine *assignment.Engine, config Config, log *zap.Logger) *Handler {
	h := &Handler{
		experimentService: experimentService,
		registry:          engine.Registry(),
		engine:            engine,
		config:            config,
		router:            gin.Default(),
		log:               log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	assign := assignment.Middleware(h.engine)

	h.router.GET("/health", h.healthCheck)
	h.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// The exposure scope of each view is derived from config at startup:
	// the dashboard exposes every active experiment, so new experiments
	// need no route changes.
	h.router.GET("/views/dashboard", assign, h.logExposures(h.registry.TestIDs()...), h.dashboardView)
	h.router.GET("/views/pricing", assign, h.logExposures(h.config.PricingTestID), h.pricingView)

	h.router.POST("/events", assign, h.trackEvent)
	h.router.GET("/experiments", h.listExperiments)
	h.router.GET("/results", h.requireAPIKey(), h.getResults)
}

// logExposures appends one exposure record per listed experiment. It must
// run after the assignment middleware; without a resolved visitor id it
// does nothing.
func (h *Handler) logExposures(testIDs ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if visitorID, ok := assignment.VisitorID(c); ok {
			h.experimentService.LogExposures(c.Request.Context(), visitorID, assignment.Variants(c), testIDs)
		}
		c.Next()
	}
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// dashboardView handles GET /views/dashboard
// @Summary Dashboard view assignments
// @Description Resolve sticky variants for every active experiment and record one exposure each
// @Tags views
// @Produce json
// @Success 200 {object} dto.DashboardViewResponse
// @Router /views/dashboard [get]
func (h *Handler) dashboardView(c *gin.Context) {
	visitorID, _ := assignment.VisitorID(c)
	variants := assignment.Variants(c)

	response := dto.DashboardViewResponse{
		VisitorID:           visitorID,
		Variants:            make(map[string]string, len(variants)),
		VariantDescriptions: make(map[string]dto.VariantInfo, len(variants)),
	}

	for testID, variant := range variants {
		response.Variants[testID] = string(variant)

		def, ok := h.registry.Get(testID)
		if !ok {
			continue
		}
		response.VariantDescriptions[testID] = dto.VariantInfo{
			Variant:     string(variant),
			Description: def.VariantLabel(variant),
		}
	}

	c.JSON(http.StatusOK, response)
}

// pricingView handles GET /views/pricing
// @Summary Pricing view assignment
// @Description Resolve the sticky variant for the pricing experiment and record one exposure
// @Tags views
// @Produce json
// @Success 200 {object} dto.PricingViewResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /views/pricing [get]
func (h *Handler) pricingView(c *gin.Context) {
	def, ok := h.registry.Get(h.config.PricingTestID)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "unknown_experiment",
			Message: "pricing experiment is not configured",
		})
		return
	}

	variant := assignment.Variants(c)[def.TestID]

	c.JSON(http.StatusOK, dto.PricingViewResponse{
		TestID:      def.TestID,
		Variant:     string(variant),
		Description: def.VariantLabel(variant),
	})
}

// trackEvent handles POST /events
// @Summary Track an event
// @Description Record a conversion or interaction event, optionally attributed to an experiment variant
// @Tags events
// @Accept json
// @Produce json
// @Param event body dto.TrackEventRequest true "Event data"
// @Success 200 {object} dto.TrackEventResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /events [post]
func (h *Handler) trackEvent(c *gin.Context) {
	var req dto.TrackEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid track event request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	visitorID, _ := assignment.VisitorID(c)

	response, err := h.experimentService.LogEvent(c.Request.Context(), visitorID, assignment.Variants(c), &req)
	if err != nil {
		h.log.Warn("Rejected track event request",
			zap.Error(err),
			zap.String("event", req.Event))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// listExperiments handles GET /experiments
// @Summary List active experiments
// @Description Return the active experiment definitions verbatim
// @Tags experiments
// @Produce json
// @Success 200 {array} experiments.Definition
// @Router /experiments [get]
func (h *Handler) listExperiments(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.All())
}

// getResults handles GET /results
// @Summary Experiment results
// @Description Recompute per-experiment conversion aggregates from the record log
// @Tags results
// @Produce json
// @Success 200 {object} dto.ResultsResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /results [get]
func (h *Handler) getResults(c *gin.Context) {
	response, err := h.experimentService.ComputeResults(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to compute results", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	h.log.Info("Results computed",
		zap.Uint64("total_exposures", response.TotalExposures),
		zap.Uint64("total_events", response.TotalEvents))

	c.JSON(http.StatusOK, response)
}
