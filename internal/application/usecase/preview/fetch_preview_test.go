package preview_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/application/usecase/preview"
	"github.com/khoahotran/folio/internal/testutil"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

func TestFetchPreview_ReturnsScrapedPreview(t *testing.T) {
	fetcher := testutil.PreviewFetcher{Fn: func(_ context.Context, url string) (*service.LinkPreview, error) {
		return &service.LinkPreview{Title: "Folio", Image: "https://example.com/og.png"}, nil
	}}
	uc := preview.NewFetchPreviewUseCase(fetcher, time.Second, nil, logger.NewNop())

	out, err := uc.Execute(context.Background(), preview.FetchPreviewInput{URL: " https://example.com/work "})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/work", out.Preview.URL)
	assert.Equal(t, "Folio", out.Preview.Title)
}

func TestFetchPreview_DegradesOnTimeout(t *testing.T) {
	fetcher := testutil.PreviewFetcher{Fn: func(ctx context.Context, _ string) (*service.LinkPreview, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	m := testutil.NewMetrics()
	uc := preview.NewFetchPreviewUseCase(fetcher, 20*time.Millisecond, m, logger.NewNop())

	out, err := uc.Execute(context.Background(), preview.FetchPreviewInput{URL: "https://slow.example.com"})
	require.NoError(t, err)
	assert.Equal(t, &service.LinkPreview{URL: "https://slow.example.com"}, out.Preview)
	assert.Equal(t, 1, m.PreviewFailures["timeout"])
}

func TestFetchPreview_DegradesOnFetchError(t *testing.T) {
	fetcher := testutil.PreviewFetcher{Fn: func(context.Context, string) (*service.LinkPreview, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	m := testutil.NewMetrics()
	uc := preview.NewFetchPreviewUseCase(fetcher, time.Second, m, logger.NewNop())

	out, err := uc.Execute(context.Background(), preview.FetchPreviewInput{URL: "https://down.example.com"})
	require.NoError(t, err)
	assert.Empty(t, out.Preview.Title)
	assert.Equal(t, 1, m.PreviewFailures["fetch"])
}

func TestFetchPreview_RejectsInvalidURL(t *testing.T) {
	called := false
	fetcher := testutil.PreviewFetcher{Fn: func(context.Context, string) (*service.LinkPreview, error) {
		called = true
		return nil, nil
	}}
	uc := preview.NewFetchPreviewUseCase(fetcher, time.Second, nil, logger.NewNop())

	for _, raw := range []string{"", "not a url", "ftp://example.com/file", "javascript:alert(1)"} {
		_, err := uc.Execute(context.Background(), preview.FetchPreviewInput{URL: raw})
		require.ErrorIs(t, err, apperror.ErrInvalidInput, raw)
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "url", appErr.Field)
	}
	assert.False(t, called)
}
