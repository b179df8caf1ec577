package service

import (
	"context"
	"io"
)

type ResourceType string

const (
	ResourceImage ResourceType = "image"
	ResourceRaw   ResourceType = "raw"
)

type UploadParams struct {
	Folder       string
	PublicID     string
	ResourceType ResourceType
	// MaxWidth downsizes images wider than this; zero keeps the original.
	MaxWidth int
}

type UploadResult struct {
	URL      string
	PublicID string
	Bytes    int
}

type Uploader interface {
	Upload(ctx context.Context, file io.Reader, params UploadParams) (*UploadResult, error)
	Delete(ctx context.Context, publicID string, resourceType ResourceType) error
}
