package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	portfolioUC "github.com/khoahotran/folio/internal/application/usecase/portfolio"
	"github.com/khoahotran/folio/pkg/logger"
)

// PublicHandler serves visitor pages. No authentication.
type PublicHandler struct {
	getPublicUC *portfolioUC.GetPublicPortfolioUseCase
	resumeUC    *portfolioUC.DownloadResumeUseCase
	logger      logger.Logger
}

func NewPublicHandler(getPublicUC *portfolioUC.GetPublicPortfolioUseCase, resumeUC *portfolioUC.DownloadResumeUseCase, log logger.Logger) *PublicHandler {
	return &PublicHandler{getPublicUC: getPublicUC, resumeUC: resumeUC, logger: log}
}

func (h *PublicHandler) GetPortfolio(c *gin.Context) {
	output, err := h.getPublicUC.Execute(c.Request.Context(), portfolioUC.GetPublicPortfolioInput{Slug: c.Param("slug")})
	if err != nil {
		c.Error(err)
		return
	}
	respondOK(c, output.Portfolio)
}

func (h *PublicHandler) DownloadResume(c *gin.Context) {
	output, err := h.resumeUC.Execute(c.Request.Context(), portfolioUC.DownloadResumeInput{Slug: c.Param("slug")})
	if err != nil {
		c.Error(err)
		return
	}
	defer output.File.Body.Close()

	contentType := output.File.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}

	c.DataFromReader(http.StatusOK, output.File.ContentLength, contentType, output.File.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", output.Filename),
	})
}
