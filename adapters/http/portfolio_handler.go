package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	portfolioUC "github.com/khoahotran/folio/internal/application/usecase/portfolio"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

// PortfolioHandler serves the owner's dashboard endpoints.
type PortfolioHandler struct {
	getUC      *portfolioUC.GetMyPortfolioUseCase
	createUC   *portfolioUC.CreatePortfolioUseCase
	deleteUC   *portfolioUC.DeletePortfolioUseCase
	exportUC   *portfolioUC.ExportPortfolioUseCase
	profileUC  *portfolioUC.UpdateProfileUseCase
	contentUC  *portfolioUC.ContentUseCase
	settingsUC *portfolioUC.SettingsUseCase
	allocator  *portfolioUC.SlugAllocator
	logger     logger.Logger
}

func NewPortfolioHandler(
	getUC *portfolioUC.GetMyPortfolioUseCase,
	createUC *portfolioUC.CreatePortfolioUseCase,
	deleteUC *portfolioUC.DeletePortfolioUseCase,
	exportUC *portfolioUC.ExportPortfolioUseCase,
	profileUC *portfolioUC.UpdateProfileUseCase,
	contentUC *portfolioUC.ContentUseCase,
	settingsUC *portfolioUC.SettingsUseCase,
	allocator *portfolioUC.SlugAllocator,
	log logger.Logger,
) *PortfolioHandler {
	return &PortfolioHandler{
		getUC:      getUC,
		createUC:   createUC,
		deleteUC:   deleteUC,
		exportUC:   exportUC,
		profileUC:  profileUC,
		contentUC:  contentUC,
		settingsUC: settingsUC,
		allocator:  allocator,
		logger:     log,
	}
}

func mustUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		_ = c.Error(apperror.NewPermissionDenied("userID not found in context"))
	}
	return userID, ok
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(apperror.NewInvalidInput("invalid JSON body", err))
		return false
	}
	return true
}

func (h *PortfolioHandler) GetMine(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	output, err := h.getUC.Execute(c.Request.Context(), portfolioUC.GetMyPortfolioInput{UserID: userID})
	if err != nil {
		c.Error(err)
		return
	}
	respondOK(c, ToPortfolioDTO(output.Portfolio))
}

func (h *PortfolioHandler) Create(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req CreatePortfolioRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.createUC.Execute(c.Request.Context(), portfolioUC.CreatePortfolioInput{
		UserID:      userID,
		Slug:        req.Slug,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		c.Error(err)
		return
	}
	respond(c, http.StatusCreated, ToPortfolioDTO(output.Portfolio))
}

func (h *PortfolioHandler) Delete(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	if err := h.deleteUC.Execute(c.Request.Context(), portfolioUC.DeletePortfolioInput{UserID: userID}); err != nil {
		c.Error(err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

// Export downloads the raw document, hidden items included.
func (h *PortfolioHandler) Export(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	output, err := h.exportUC.Execute(c.Request.Context(), portfolioUC.ExportPortfolioInput{UserID: userID})
	if err != nil {
		c.Error(err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", output.Filename))
	c.JSON(http.StatusOK, output.Document)
}

func (h *PortfolioHandler) CheckSlug(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	output, err := h.allocator.Check(c.Request.Context(), portfolioUC.CheckSlugInput{
		UserID: userID,
		Slug:   c.Query("slug"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	respondOK(c, output)
}

func (h *PortfolioHandler) UpdateProfile(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.profileUC.Execute(c.Request.Context(), portfolioUC.UpdateProfileInput{
		UserID:      userID,
		Slug:        req.Slug,
		DisplayName: req.DisplayName,
		Headline:    req.Headline,
		Bio:         req.Bio,
		Skills:      req.Skills,
		SocialLinks: req.SocialLinks,
	})
	if err != nil {
		c.Error(err)
		return
	}

	status := http.StatusOK
	if output.Created {
		status = http.StatusCreated
	}
	respond(c, status, ToPortfolioDTO(output.Portfolio))
}

func (h *PortfolioHandler) UpdateExperience(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req UpdateExperienceRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.contentUC.ExecuteUpdateExperience(c.Request.Context(), portfolioUC.UpdateExperienceInput{UserID: userID, Items: req.Items})
	if err != nil {
		c.Error(err)
		return
	}
	respondOK(c, ToPortfolioDTO(output.Portfolio))
}

func (h *PortfolioHandler) UpdateProjects(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req UpdateProjectsRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.contentUC.ExecuteUpdateProjects(c.Request.Context(), portfolioUC.UpdateProjectsInput{UserID: userID, Items: req.Items})
	if err != nil {
		c.Error(err)
		return
	}
	respondOK(c, ToPortfolioDTO(output.Portfolio))
}

func (h *PortfolioHandler) UpdateCertifications(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req UpdateCertificationsRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.contentUC.ExecuteUpdateCertifications(c.Request.Context(), portfolioUC.UpdateCertificationsInput{UserID: userID, Items: req.Items})
	if err != nil {
		c.Error(err)
		return
	}
	respondOK(c, ToPortfolioDTO(output.Portfolio))
}

func (h *PortfolioHandler) UpdateAvatar(c *gin.Context) {
	h.updateAsset(c, h.contentUC.ExecuteUpdateAvatar)
}

func (h *PortfolioHandler) UpdateResume(c *gin.Context) {
	h.updateAsset(c, h.contentUC.ExecuteUpdateResume)
}

func (h *PortfolioHandler) updateAsset(c *gin.Context, exec func(ctx context.Context, in portfolioUC.UpdateAssetInput) (*portfolioUC.UpdateContentOutput, error)) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req UpdateAssetRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := exec(c.Request.Context(), portfolioUC.UpdateAssetInput{UserID: userID, URL: req.URL})
	if err != nil {
		c.Error(err)
		return
	}
	respondOK(c, ToPortfolioDTO(output.Portfolio))
}

func (h *PortfolioHandler) UpdateTheme(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var theme portfolio.ThemeConfig
	if !bindJSON(c, &theme) {
		return
	}

	output, err := h.settingsUC.ExecuteUpdateTheme(c.Request.Context(), portfolioUC.UpdateThemeInput{UserID: userID, Theme: theme})
	if err != nil {
		c.Error(err)
		return
	}
	respondOK(c, ToPortfolioDTO(output.Portfolio))
}

func (h *PortfolioHandler) UpdateSectionVisibility(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var vis portfolio.SectionVisibility
	if !bindJSON(c, &vis) {
		return
	}

	output, err := h.settingsUC.ExecuteUpdateSectionVisibility(c.Request.Context(), portfolioUC.UpdateSectionVisibilityInput{UserID: userID, Visibility: vis})
	if err != nil {
		c.Error(err)
		return
	}
	respondOK(c, ToPortfolioDTO(output.Portfolio))
}

func (h *PortfolioHandler) UpdateHiddenItems(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req UpdateHiddenItemsRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.settingsUC.ExecuteUpdateHiddenItems(c.Request.Context(), portfolioUC.UpdateHiddenItemsInput{UserID: userID, Hidden: req.HiddenItems})
	if err != nil {
		c.Error(err)
		return
	}
	respondOK(c, ToPortfolioDTO(output.Portfolio))
}

func (h *PortfolioHandler) TogglePublish(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	output, err := h.settingsUC.ExecuteTogglePublish(c.Request.Context(), portfolioUC.TogglePublishInput{UserID: userID})
	if err != nil {
		c.Error(err)
		return
	}
	respondOK(c, ToPortfolioDTO(output.Portfolio))
}
