package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-report-batch/internal/service"
	"github.com/noah-isme/sma-report-batch/pkg/response"
)

type downloadOpener interface {
	OpenDownload(token string) (*service.Download, error)
}

// ExportHandler serves saved report cards through signed links.
type ExportHandler struct {
	downloads downloadOpener
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(downloads downloadOpener) *ExportHandler {
	return &ExportHandler{downloads: downloads}
}

// Download godoc
// @Summary Download a saved report card
// @Tags Export
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	dl, err := h.downloads.OpenDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer dl.File.Close()
	response.Attachment(c, dl.Name, "application/pdf", dl.Size, dl.File)
}
