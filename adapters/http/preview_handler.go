package http

import (
	"github.com/gin-gonic/gin"

	previewUC "github.com/khoahotran/folio/internal/application/usecase/preview"
	"github.com/khoahotran/folio/pkg/logger"
)

type PreviewHandler struct {
	fetchUC *previewUC.FetchPreviewUseCase
	logger  logger.Logger
}

func NewPreviewHandler(fetchUC *previewUC.FetchPreviewUseCase, log logger.Logger) *PreviewHandler {
	return &PreviewHandler{fetchUC: fetchUC, logger: log}
}

func (h *PreviewHandler) FetchPreview(c *gin.Context) {
	var req LinkPreviewRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.fetchUC.Execute(c.Request.Context(), previewUC.FetchPreviewInput{URL: req.URL})
	if err != nil {
		c.Error(err)
		return
	}
	respondOK(c, output.Preview)
}
