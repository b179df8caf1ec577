package service

import (
	"context"
	"io"
)

type LinkPreview struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Favicon     string `json:"favicon,omitempty"`
}

type LinkPreviewFetcher interface {
	FetchPreview(ctx context.Context, url string) (*LinkPreview, error)
}

type FetchedFile struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// FileFetcher streams a remote file; callers close Body.
type FileFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedFile, error)
}
