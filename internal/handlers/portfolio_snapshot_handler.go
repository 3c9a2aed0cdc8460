package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "helpinvest/internal/errors"
	"helpinvest/internal/pagination"
	"helpinvest/internal/services"
)

// PortfolioSnapshotHandler handles portfolio snapshot requests.
type PortfolioSnapshotHandler struct {
	snapshotService services.PortfolioSnapshotServicer
}

// NewPortfolioSnapshotHandler creates a new PortfolioSnapshotHandler.
func NewPortfolioSnapshotHandler(snapshotService services.PortfolioSnapshotServicer) *PortfolioSnapshotHandler {
	return &PortfolioSnapshotHandler{snapshotService: snapshotService}
}

// RecordSnapshotsRequest represents the request payload for recording snapshots.
// A missing recorded_at means now.
type RecordSnapshotsRequest struct {
	RecordedAt *time.Time `json:"recorded_at"`
}

// RecordSnapshots handles recording portfolio snapshots for every user.
// @Summary     Record portfolio snapshots
// @Description Compute and record portfolio snapshots for all users (pipeline endpoint)
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       X-API-Key  header   string                  true  "Pipeline API key"
// @Param       request    body     RecordSnapshotsRequest  false "Snapshot parameters"
// @Success     200        {object} map[string]int          "Snapshots recorded count"
// @Failure     400        {object} ErrorResponse           "Invalid input"
// @Failure     401        {object} ErrorResponse           "Invalid API key"
// @Failure     503        {object} ErrorResponse           "Pipeline not configured"
// @Router      /pipeline/snapshots [post]
func (h *PortfolioSnapshotHandler) RecordSnapshots(c *gin.Context) {
	var req RecordSnapshotsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	recordedAt := time.Now()
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}

	count, err := h.snapshotService.RecordSnapshots(c.Request.Context(), recordedAt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshots_recorded": count})
}

// GetSnapshots handles retrieving portfolio snapshots for the authenticated user.
// @Summary     Get portfolio snapshots
// @Description Get paginated portfolio snapshots, newest first, optionally within a date range
// @Tags        snapshots
// @Produce     json
// @Security    BearerAuth
// @Param       from      query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to        query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 10, max 100)"
// @Success     200 {object} pagination.PageResponse[models.PortfolioSnapshot] "Paginated snapshots"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /snapshots [get]
func (h *PortfolioSnapshotHandler) GetSnapshots(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var from, to time.Time
	if s := c.Query("from"); s != "" {
		if from, err = parseFlexibleTime(s); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = parseFlexibleTime(s); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must not be before from"))
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.snapshotService.GetSnapshots(c.Request.Context(), userID, from, to, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
