package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bimxplan/bimxplan-backend/internal/requestdata"
	"github.com/bimxplan/bimxplan-backend/internal/services"
)

type ExportHandler struct {
	export services.ExportService
}

func NewExportHandler(export services.ExportService) *ExportHandler {
	return &ExportHandler{export: export}
}

// ExportPDF streams the rendered document. Validation never blocks the
// export; the summary travels in response headers so the client can warn.
func (eh *ExportHandler) ExportPDF(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid project id"))
		return
	}
	result, err := eh.export.ExportPDF(c.Request.Context(), rd.UserID, projectID)
	if err != nil {
		respondPipelineError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Header("X-Bep-Version", strconv.FormatInt(result.VersionNumber, 10))
	if result.ValidationSummary != "" {
		c.Header("X-Bep-Validation-Summary", result.ValidationSummary)
	}
	c.Data(http.StatusOK, "application/pdf", result.Pdf)
}

func (eh *ExportHandler) ExportMarkdown(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid project id"))
		return
	}
	markdown, err := eh.export.ExportMarkdown(c.Request.Context(), rd.UserID, projectID)
	if err != nil {
		respondPipelineError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(markdown))
}
