package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-report-batch/internal/dto"
	"github.com/noah-isme/sma-report-batch/internal/service"
	appErrors "github.com/noah-isme/sma-report-batch/pkg/errors"
	"github.com/noah-isme/sma-report-batch/pkg/response"
)

type bulkReportStarter interface {
	StartBulkPrint(ctx context.Context, ws *service.Workspace, req dto.BulkReportRequest) (*dto.BatchStartedResponse, error)
	StartBulkSave(ctx context.Context, ws *service.Workspace, req dto.BulkReportRequest) (*dto.BatchStartedResponse, error)
}

// BatchHandler starts bulk print/save batches and reports their progress.
type BatchHandler struct {
	workspaces workspaceProvider
	bulk       bulkReportStarter
}

// NewBatchHandler constructs a BatchHandler.
func NewBatchHandler(workspaces workspaceProvider, bulk bulkReportStarter) *BatchHandler {
	return &BatchHandler{workspaces: workspaces, bulk: bulk}
}

// Status godoc
// @Summary Current batch state
// @Tags Batch
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /batch [get]
func (h *BatchHandler) Status(c *gin.Context) {
	ws, err := workspaceFor(c, h.workspaces)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ws.Batch.Snapshot())
}

// Print godoc
// @Summary Print report cards for the selected students
// @Tags Batch
// @Accept json
// @Produce json
// @Param payload body dto.BulkReportRequest true "Report settings"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /batch/print [post]
func (h *BatchHandler) Print(c *gin.Context) {
	h.start(c, h.bulk.StartBulkPrint)
}

// Save godoc
// @Summary Save report cards for the selected students
// @Tags Batch
// @Accept json
// @Produce json
// @Param payload body dto.BulkReportRequest true "Report settings"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /batch/save [post]
func (h *BatchHandler) Save(c *gin.Context) {
	h.start(c, h.bulk.StartBulkSave)
}

// ClearErrors godoc
// @Summary Dismiss batch errors
// @Tags Batch
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /batch/errors [delete]
func (h *BatchHandler) ClearErrors(c *gin.Context) {
	ws, err := workspaceFor(c, h.workspaces)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := ws.Batch.ClearErrors(); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type startFunc func(ctx context.Context, ws *service.Workspace, req dto.BulkReportRequest) (*dto.BatchStartedResponse, error)

func (h *BatchHandler) start(c *gin.Context, fn startFunc) {
	var req dto.BulkReportRequest
	// An empty body still reaches the service so an empty selection is reported first.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	ws, err := workspaceFor(c, h.workspaces)
	if err != nil {
		response.Error(c, err)
		return
	}
	started, err := fn(c.Request.Context(), ws, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("X-Batch-ID", started.BatchID)
	response.Accepted(c, started)
}
