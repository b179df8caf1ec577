package media_storage

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
)

type cloudinaryAdapter struct {
	cld    *cloudinary.Cloudinary
	logger logger.Logger
}

func NewCloudinaryAdapter(cfg config.Config, log logger.Logger) (service.Uploader, error) {

	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name has not config")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}

	log.Info("Connect Cloudinary successfully.", zap.String("cloud_name", cfg.Cloudinary.CloudName))
	return &cloudinaryAdapter{cld: cld, logger: log}, nil
}

func (a *cloudinaryAdapter) Upload(ctx context.Context, file io.Reader, params service.UploadParams) (*service.UploadResult, error) {
	uploadParams := uploader.UploadParams{
		PublicID:     params.PublicID,
		Folder:       params.Folder,
		ResourceType: string(params.ResourceType),
	}
	if params.MaxWidth > 0 && params.ResourceType == service.ResourceImage {
		uploadParams.Transformation = "c_limit,w_" + strconv.Itoa(params.MaxWidth)
	}

	result, err := a.cld.Upload.Upload(ctx, file, uploadParams)
	if err != nil {
		return nil, fmt.Errorf("failed to upload cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}

	a.logger.Debug("Uploaded asset", zap.String("public_id", result.PublicID), zap.Int("bytes", result.Bytes))
	return &service.UploadResult{
		URL:      result.SecureURL,
		PublicID: result.PublicID,
		Bytes:    result.Bytes,
	}, nil
}

func (a *cloudinaryAdapter) Delete(ctx context.Context, publicID string, resourceType service.ResourceType) error {
	_, err := a.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: string(resourceType),
	})
	if err != nil {
		return fmt.Errorf("failed to delete cloudinary: %w", err)
	}
	return nil
}
