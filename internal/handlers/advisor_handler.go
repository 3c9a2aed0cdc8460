package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"helpinvest/internal/services"
)

// AdvisorHandler serves allocation advice.
type AdvisorHandler struct {
	advisorService services.AdvisorServicer
}

// NewAdvisorHandler creates a new AdvisorHandler.
func NewAdvisorHandler(advisorService services.AdvisorServicer) *AdvisorHandler {
	return &AdvisorHandler{advisorService: advisorService}
}

// GetAnalysis compares current allocations with the risk profile targets.
// @Summary     Allocation analysis
// @Description One row per held category: current and recommended balance and share, and the gap between them
// @Tags        advisor
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]advisor.Allocation "Allocation rows"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /advisor/analysis [get]
func (h *AdvisorHandler) GetAnalysis(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows, err := h.advisorService.Analyze(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"allocations": rows})
}

// GetDashboard returns the summary, allocations and risk profile together.
// @Summary     Dashboard
// @Tags        advisor
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Dashboard "Dashboard"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /dashboard [get]
func (h *AdvisorHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	dashboard, err := h.advisorService.Dashboard(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
