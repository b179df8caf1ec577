package webfetch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/pkg/apperror"
)

type fileFetcher struct {
	client *http.Client
}

func NewFileFetcher(client *http.Client) service.FileFetcher {
	return &fileFetcher{client: client}
}

func (f *fileFetcher) Fetch(ctx context.Context, target string) (*service.FetchedFile, error) {
	req, err := newRequest(ctx, target)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, mapTransportError(target, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		resp.Body.Close()
		return nil, apperror.NewNotFound("file", target)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, apperror.NewInternal(fmt.Sprintf("GET %s returned %d", target, resp.StatusCode), nil)
	}

	return &service.FetchedFile{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}
