package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-report-batch/internal/dto"
	appErrors "github.com/noah-isme/sma-report-batch/pkg/errors"
	"github.com/noah-isme/sma-report-batch/pkg/response"
)

// SelectionHandler manages the caller's student selection.
type SelectionHandler struct {
	workspaces workspaceProvider
	validator  *validator.Validate
}

// NewSelectionHandler constructs a SelectionHandler.
func NewSelectionHandler(workspaces workspaceProvider) *SelectionHandler {
	return &SelectionHandler{workspaces: workspaces, validator: validator.New()}
}

// Get godoc
// @Summary Current selection
// @Tags Selection
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /selection [get]
func (h *SelectionHandler) Get(c *gin.Context) {
	ws, err := workspaceFor(c, h.workspaces)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ws.Selection.Snapshot())
}

// SetClass godoc
// @Summary Switch class and clear the selection
// @Tags Selection
// @Accept json
// @Produce json
// @Param payload body dto.SelectionClassRequest true "Class"
// @Success 200 {object} response.Envelope
// @Router /selection/class [put]
func (h *SelectionHandler) SetClass(c *gin.Context) {
	var req dto.SelectionClassRequest
	if !h.bind(c, &req) {
		return
	}
	ws, err := workspaceFor(c, h.workspaces)
	if err != nil {
		response.Error(c, err)
		return
	}
	ws.Selection.OnClassChange(req.ClassID)
	response.JSON(c, http.StatusOK, ws.Selection.Snapshot())
}

// Select godoc
// @Summary Select a student
// @Tags Selection
// @Accept json
// @Produce json
// @Param payload body dto.SelectStudentRequest true "Student"
// @Success 200 {object} response.Envelope
// @Router /selection/select [post]
func (h *SelectionHandler) Select(c *gin.Context) {
	var req dto.SelectStudentRequest
	if !h.bind(c, &req) {
		return
	}
	ws, err := workspaceFor(c, h.workspaces)
	if err != nil {
		response.Error(c, err)
		return
	}
	ws.Selection.Select(req.StudentID)
	response.JSON(c, http.StatusOK, ws.Selection.Snapshot())
}

// Deselect godoc
// @Summary Deselect a student
// @Tags Selection
// @Accept json
// @Produce json
// @Param payload body dto.SelectStudentRequest true "Student"
// @Success 200 {object} response.Envelope
// @Router /selection/deselect [post]
func (h *SelectionHandler) Deselect(c *gin.Context) {
	var req dto.SelectStudentRequest
	if !h.bind(c, &req) {
		return
	}
	ws, err := workspaceFor(c, h.workspaces)
	if err != nil {
		response.Error(c, err)
		return
	}
	ws.Selection.Deselect(req.StudentID)
	response.JSON(c, http.StatusOK, ws.Selection.Snapshot())
}

// SelectAll godoc
// @Summary Select many students
// @Tags Selection
// @Accept json
// @Produce json
// @Param payload body dto.SelectAllRequest true "Students"
// @Success 200 {object} response.Envelope
// @Router /selection/select-all [post]
func (h *SelectionHandler) SelectAll(c *gin.Context) {
	var req dto.SelectAllRequest
	if !h.bind(c, &req) {
		return
	}
	ws, err := workspaceFor(c, h.workspaces)
	if err != nil {
		response.Error(c, err)
		return
	}
	ws.Selection.SelectAll(req.StudentIDs)
	response.JSON(c, http.StatusOK, ws.Selection.Snapshot())
}

// Clear godoc
// @Summary Clear the selection
// @Tags Selection
// @Success 204
// @Router /selection [delete]
func (h *SelectionHandler) Clear(c *gin.Context) {
	ws, err := workspaceFor(c, h.workspaces)
	if err != nil {
		response.Error(c, err)
		return
	}
	ws.Selection.Clear()
	response.NoContent(c)
}

func (h *SelectionHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return false
	}
	return true
}
