package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mediaUC "github.com/khoahotran/folio/internal/application/usecase/media"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type UploadHandler struct {
	uploadUC *mediaUC.UploadAssetUseCase
	logger   logger.Logger
}

func NewUploadHandler(uploadUC *mediaUC.UploadAssetUseCase, log logger.Logger) *UploadHandler {
	return &UploadHandler{uploadUC: uploadUC, logger: log}
}

// Upload stores one asset and returns its CDN URL. Attaching the URL to
// the portfolio is a separate call.
func (h *UploadHandler) Upload(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	kind, err := mediaUC.ParseKind(c.Param("kind"))
	if err != nil {
		c.Error(err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apperror.NewValidation("file", "No file uploaded"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInternal("failed to open file", err))
		return
	}
	defer file.Close()

	output, err := h.uploadUC.Execute(c.Request.Context(), mediaUC.UploadAssetInput{
		OwnerID: userID,
		Kind:    kind,
		File:    file,
		Size:    fileHeader.Size,
	})
	if err != nil {
		c.Error(err)
		return
	}
	respond(c, http.StatusCreated, output)
}
