package handler

import (
	"bytes"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-report-batch/internal/dto"
	"github.com/noah-isme/sma-report-batch/internal/models"
	"github.com/noah-isme/sma-report-batch/internal/service"
	appErrors "github.com/noah-isme/sma-report-batch/pkg/errors"
	"github.com/noah-isme/sma-report-batch/pkg/response"
)

type classRanker interface {
	ClassRanking(ctx context.Context, classID string, subjects []string) (*models.ClassRanking, error)
}

type broadsheetExporter interface {
	Broadsheet(ctx context.Context, classID, format string, subjects []string) (*service.ExportFile, error)
}

// RankingHandler exposes class rankings and their broadsheet export.
type RankingHandler struct {
	rankings  classRanker
	exports   broadsheetExporter
	validator *validator.Validate
}

// NewRankingHandler constructs a RankingHandler.
func NewRankingHandler(rankings classRanker, exports broadsheetExporter) *RankingHandler {
	return &RankingHandler{rankings: rankings, exports: exports, validator: validator.New()}
}

// ClassRanking godoc
// @Summary Class ranking
// @Tags Rankings
// @Produce json
// @Param classId path string true "Class ID"
// @Param subject query []string false "Restrict to subjects"
// @Success 200 {object} response.Envelope
// @Router /rankings/classes/{classId} [get]
func (h *RankingHandler) ClassRanking(c *gin.Context) {
	var query dto.RankingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	ranking, err := h.rankings.ClassRanking(c.Request.Context(), c.Param("classId"), query.Subjects)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranking, map[string]interface{}{"version": ranking.Version})
}

// Export godoc
// @Summary Export a class broadsheet
// @Tags Rankings
// @Produce text/csv
// @Produce application/pdf
// @Param classId path string true "Class ID"
// @Param format query string true "csv or pdf"
// @Param subject query []string false "Restrict to subjects"
// @Success 200 {file} file
// @Router /rankings/classes/{classId}/export [get]
func (h *RankingHandler) Export(c *gin.Context) {
	var query dto.BroadsheetQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf"))
		return
	}
	file, err := h.exports.Broadsheet(c.Request.Context(), c.Param("classId"), query.Format, query.Subjects)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Name, file.ContentType, int64(len(file.Data)), bytes.NewReader(file.Data))
}
