package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"stories-profit-api/pkg/models"
	"stories-profit-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// ActionsHandler serves the recommendation pipeline and the what-if
// simulators.
type ActionsHandler struct {
	data *services.DatasetService
	agg  *services.AggregationService
	recs *services.RecommendationService
	desc *services.DescriptionService
	sim  *services.SimulationService
}

// NewActionsHandler creates a new ActionsHandler.
func NewActionsHandler(data *services.DatasetService, agg *services.AggregationService, recs *services.RecommendationService, desc *services.DescriptionService, sim *services.SimulationService) *ActionsHandler {
	return &ActionsHandler{data: data, agg: agg, recs: recs, desc: desc, sim: sim}
}

func limitParam(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// GetRecommendations handles GET /api/actions/recommendations.
// Branch filtering applies to the input rows, so branch-scoped
// recommendations are evaluated against branch-local medians and rollups.
func (h *ActionsHandler) GetRecommendations(c *gin.Context) {
	branch := c.DefaultQuery("branch", "all")

	allItems, err := h.data.ItemRows()
	if err != nil {
		log.Printf("recommendations: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate recommendations"})
		return
	}

	networkBranches := h.sim.NetworkBranchCount(allItems)
	items := h.agg.FilterBranch(allItems, branch)

	recs := h.recs.Build(items, networkBranches)
	recs = h.desc.Describe(c.Request.Context(), recs)

	c.JSON(http.StatusOK, recs)
}

// GetPromoteOpportunities handles GET /api/actions/promote-opportunities.
func (h *ActionsHandler) GetPromoteOpportunities(c *gin.Context) {
	branch := c.DefaultQuery("branch", "all")
	limit := limitParam(c, 20)

	items, err := h.data.ItemRows()
	if err != nil {
		log.Printf("promote-opportunities: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load promote opportunities"})
		return
	}
	items = h.agg.FilterBranch(items, branch)

	c.JSON(http.StatusOK, h.recs.PromoteOpportunities(items, limit))
}

// GetProfitTraps handles GET /api/actions/profit-traps.
func (h *ActionsHandler) GetProfitTraps(c *gin.Context) {
	branch := c.DefaultQuery("branch", "all")
	limit := limitParam(c, 20)

	items, err := h.data.ItemRows()
	if err != nil {
		log.Printf("profit-traps: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profit traps"})
		return
	}
	items = h.agg.FilterBranch(items, branch)

	c.JSON(http.StatusOK, h.recs.ProfitTraps(items, limit))
}

// Simulate handles POST /api/actions/simulate (lever simulator).
func (h *ActionsHandler) Simulate(c *gin.Context) {
	var req models.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	items, err := h.data.ItemRows()
	if err != nil {
		log.Printf("simulate: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run simulation"})
		return
	}

	c.JSON(http.StatusOK, h.sim.Simulate(items, req))
}

// SimulateScenario handles POST /api/actions/simulate-scenario.
func (h *ActionsHandler) SimulateScenario(c *gin.Context) {
	var req models.ScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	items, err := h.data.ItemRows()
	if err != nil {
		log.Printf("simulate-scenario: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run scenario"})
		return
	}

	result, err := h.sim.SimulateScenario(items, req)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
			return
		}
		log.Printf("simulate-scenario: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run scenario"})
		return
	}

	c.JSON(http.StatusOK, result)
}
