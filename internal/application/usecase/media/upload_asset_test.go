package media_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/application/usecase/media"
	"github.com/khoahotran/folio/internal/testutil"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newUploadUseCase() (*media.UploadAssetUseCase, *testutil.Uploader, *testutil.Metrics) {
	up := &testutil.Uploader{}
	m := testutil.NewMetrics()
	return media.NewUploadAssetUseCase(up, m, logger.NewNop()), up, m
}

func TestUploadAsset_StoresImageUnderOwnerFolder(t *testing.T) {
	uc, up, _ := newUploadUseCase()
	owner := uuid.New()

	out, err := uc.Execute(context.Background(), media.UploadAssetInput{
		OwnerID: owner,
		Kind:    media.KindProjectImage,
		File:    bytes.NewReader(pngHeader),
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.ContentType)
	assert.NotEmpty(t, out.URL)

	require.Len(t, up.Calls, 1)
	assert.Equal(t, "portfolios/"+owner.String()+"/project-image", up.Calls[0].Folder)
	assert.Equal(t, service.ResourceImage, up.Calls[0].ResourceType)
	assert.Equal(t, 1200, up.Calls[0].MaxWidth)
}

func TestUploadAsset_ResumeIsRawPDF(t *testing.T) {
	uc, up, _ := newUploadUseCase()

	out, err := uc.Execute(context.Background(), media.UploadAssetInput{
		OwnerID: uuid.New(),
		Kind:    media.KindResume,
		File:    bytes.NewReader([]byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n")),
	})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.ContentType)
	require.Len(t, up.Calls, 1)
	assert.Equal(t, service.ResourceRaw, up.Calls[0].ResourceType)
	assert.Zero(t, up.Calls[0].MaxWidth)
}

func TestUploadAsset_RejectsWrongType(t *testing.T) {
	uc, up, m := newUploadUseCase()

	_, err := uc.Execute(context.Background(), media.UploadAssetInput{
		OwnerID: uuid.New(),
		Kind:    media.KindAvatar,
		File:    bytes.NewReader([]byte("%PDF-1.7\n")),
	})
	require.ErrorIs(t, err, apperror.ErrUploadRejected)
	assert.Empty(t, up.Calls)
	assert.Equal(t, 1, m.Rejected["avatar"])

	_, err = uc.Execute(context.Background(), media.UploadAssetInput{
		OwnerID: uuid.New(),
		Kind:    media.KindResume,
		File:    bytes.NewReader(pngHeader),
	})
	assert.ErrorIs(t, err, apperror.ErrUploadRejected)
}

func TestUploadAsset_RejectsOversizedFiles(t *testing.T) {
	uc, up, m := newUploadUseCase()

	_, err := uc.Execute(context.Background(), media.UploadAssetInput{
		OwnerID: uuid.New(),
		Kind:    media.KindAvatar,
		File:    bytes.NewReader(pngHeader),
		Size:    6 << 20,
	})
	require.ErrorIs(t, err, apperror.ErrUploadRejected)

	big := append(append([]byte{}, pngHeader...), make([]byte, 5<<20)...)
	_, err = uc.Execute(context.Background(), media.UploadAssetInput{
		OwnerID: uuid.New(),
		Kind:    media.KindAvatar,
		File:    bytes.NewReader(big),
	})
	require.ErrorIs(t, err, apperror.ErrUploadRejected)

	assert.Empty(t, up.Calls)
	assert.Equal(t, 2, m.Rejected["avatar"])
}

func TestUploadAsset_RejectsEmptyFile(t *testing.T) {
	uc, _, _ := newUploadUseCase()

	_, err := uc.Execute(context.Background(), media.UploadAssetInput{
		OwnerID: uuid.New(),
		Kind:    media.KindCertificationImage,
		File:    bytes.NewReader(nil),
	})
	assert.ErrorIs(t, err, apperror.ErrUploadRejected)
}

func TestParseKind(t *testing.T) {
	k, err := media.ParseKind("resume")
	require.NoError(t, err)
	assert.Equal(t, media.KindResume, k)

	_, err = media.ParseKind("video")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}
