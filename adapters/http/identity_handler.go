package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	identityUC "github.com/khoahotran/folio/internal/application/usecase/identity"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const maxWebhookBytes = 1 << 20

// WebhookVerifier checks the provider's signature headers against the raw
// body. *svix.Webhook satisfies it.
type WebhookVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

type IdentityHandler struct {
	verifier WebhookVerifier
	syncUC   *identityUC.SyncUserUseCase
	logger   logger.Logger
}

func NewIdentityHandler(verifier WebhookVerifier, syncUC *identityUC.SyncUserUseCase, log logger.Logger) *IdentityHandler {
	return &IdentityHandler{verifier: verifier, syncUC: syncUC, logger: log}
}

func (h *IdentityHandler) Me(c *gin.Context) {
	u, ok := GetUserFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("user not found in context"))
		return
	}
	respondOK(c, ToUserDTO(u))
}

// Webhook applies user.created, user.updated and user.deleted events.
// Other event types are acknowledged and ignored.
func (h *IdentityHandler) Webhook(c *gin.Context) {
	if c.GetHeader("svix-id") == "" || c.GetHeader("svix-timestamp") == "" || c.GetHeader("svix-signature") == "" {
		c.Error(apperror.NewInvalidInput("missing svix headers", nil))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.Error(apperror.NewInvalidInput("cannot read webhook body", err))
		return
	}

	if err := h.verifier.Verify(payload, c.Request.Header); err != nil {
		h.logger.Warn("Rejected webhook signature", zap.Error(err))
		c.Error(apperror.NewInvalidInput("error verifying webhook", err))
		return
	}

	var evt identityWebhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		c.Error(apperror.NewInvalidInput("webhook body is not valid JSON", err))
		return
	}

	err = h.syncUC.Execute(c.Request.Context(), identityUC.SyncUserInput{
		EventType:  evt.Type,
		ExternalID: evt.Data.ID,
		Email:      evt.primaryEmail(),
		FirstName:  evt.Data.FirstName,
		LastName:   evt.Data.LastName,
		ImageURL:   evt.Data.ImageURL,
	})
	if err != nil {
		c.Error(err)
		return
	}

	status := http.StatusOK
	if evt.Type == identityUC.EventUserCreated {
		status = http.StatusCreated
	}
	respond(c, status, gin.H{"received": true, "type": evt.Type})
}
