package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"recondoc/internal/service"
)

// AnalyzeHandler handles document analysis endpoints.
type AnalyzeHandler struct {
	analysisService service.AnalysisService
}

// NewAnalyzeHandler creates a new AnalyzeHandler.
func NewAnalyzeHandler(analysisService service.AnalysisService) *AnalyzeHandler {
	return &AnalyzeHandler{analysisService: analysisService}
}

// Analyze handles POST /api/v1/documents/analyze. It accepts a multipart
// upload under the "file" field and returns the full analysis result.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		log.Printf("analyzeHandler.Analyze: reading upload %s: %v", header.Filename, err)
		RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
		return
	}

	analysis, err := h.analysisService.AnalyzeDocument(c.Request.Context(), header.Filename, content)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, analysis)
}
