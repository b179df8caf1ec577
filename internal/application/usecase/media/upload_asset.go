package media

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/metrics"
)

type Kind string

const (
	KindAvatar             Kind = "avatar"
	KindProjectImage       Kind = "project-image"
	KindCertificationImage Kind = "certification-image"
	KindResume             Kind = "resume"
)

const (
	maxImageBytes  = 5 << 20
	maxResumeBytes = 10 << 20
	imageMaxWidth  = 1200
)

var imageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type policy struct {
	types        []string
	maxBytes     int64
	resourceType service.ResourceType
	maxWidth     int
	label        string
}

var policies = map[Kind]policy{
	KindAvatar:             {types: imageTypes, maxBytes: maxImageBytes, resourceType: service.ResourceImage, maxWidth: imageMaxWidth, label: "Images"},
	KindProjectImage:       {types: imageTypes, maxBytes: maxImageBytes, resourceType: service.ResourceImage, maxWidth: imageMaxWidth, label: "Images"},
	KindCertificationImage: {types: imageTypes, maxBytes: maxImageBytes, resourceType: service.ResourceImage, maxWidth: imageMaxWidth, label: "Images"},
	KindResume:             {types: []string{"application/pdf"}, maxBytes: maxResumeBytes, resourceType: service.ResourceRaw, label: "Resumes"},
}

func ParseKind(raw string) (Kind, error) {
	k := Kind(raw)
	if _, ok := policies[k]; !ok {
		return "", apperror.NewValidation("kind", fmt.Sprintf("Unknown upload kind '%s'", raw))
	}
	return k, nil
}

type UploadAssetUseCase struct {
	uploader service.Uploader
	metrics  metrics.Recorder
	logger   logger.Logger
}

func NewUploadAssetUseCase(u service.Uploader, rec metrics.Recorder, log logger.Logger) *UploadAssetUseCase {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &UploadAssetUseCase{uploader: u, metrics: rec, logger: log}
}

type UploadAssetInput struct {
	OwnerID uuid.UUID
	Kind    Kind
	File    io.Reader
	// Size is the client-declared length; zero means unknown.
	Size int64
}

type UploadAssetOutput struct {
	URL         string `json:"url"`
	PublicID    string `json:"publicId"`
	Kind        Kind   `json:"kind"`
	ContentType string `json:"contentType"`
	Bytes       int64  `json:"bytes"`
}

// Execute checks the file against the policy for its kind, sniffing the
// content rather than trusting the client's content type, and stores it
// under portfolios/<owner>/<kind>.
func (uc *UploadAssetUseCase) Execute(ctx context.Context, input UploadAssetInput) (*UploadAssetOutput, error) {
	pol, ok := policies[input.Kind]
	if !ok {
		return nil, apperror.NewValidation("kind", fmt.Sprintf("Unknown upload kind '%s'", input.Kind))
	}
	if input.Size > pol.maxBytes {
		return nil, uc.reject(input.Kind, tooLarge(pol))
	}

	data, err := io.ReadAll(io.LimitReader(input.File, pol.maxBytes+1))
	if err != nil {
		return nil, apperror.NewInvalidInput("failed to read uploaded file", err)
	}
	if len(data) == 0 {
		return nil, uc.reject(input.Kind, "File is empty")
	}
	if int64(len(data)) > pol.maxBytes {
		return nil, uc.reject(input.Kind, tooLarge(pol))
	}

	mtype := mimetype.Detect(data)
	if !allowed(mtype, pol.types) {
		return nil, uc.reject(input.Kind, fmt.Sprintf("File type %s is not allowed for %s", mtype.String(), input.Kind))
	}

	result, err := uc.uploader.Upload(ctx, bytes.NewReader(data), service.UploadParams{
		Folder:       fmt.Sprintf("portfolios/%s/%s", input.OwnerID, input.Kind),
		PublicID:     uuid.NewString(),
		ResourceType: pol.resourceType,
		MaxWidth:     pol.maxWidth,
	})
	if err != nil {
		return nil, apperror.NewInternal("failed to upload file", err)
	}

	uc.logger.Info("Asset uploaded",
		zap.String("owner_id", input.OwnerID.String()),
		zap.String("kind", string(input.Kind)),
		zap.String("public_id", result.PublicID),
	)
	return &UploadAssetOutput{
		URL:         result.URL,
		PublicID:    result.PublicID,
		Kind:        input.Kind,
		ContentType: mtype.String(),
		Bytes:       int64(len(data)),
	}, nil
}

func (uc *UploadAssetUseCase) reject(kind Kind, msg string) error {
	uc.metrics.UploadRejected(string(kind))
	return apperror.NewUploadRejected(msg)
}

func allowed(m *mimetype.MIME, types []string) bool {
	for _, t := range types {
		if m.Is(t) {
			return true
		}
	}
	return false
}

func tooLarge(p policy) string {
	return fmt.Sprintf("%s must be %d MB or smaller", p.label, p.maxBytes>>20)
}
