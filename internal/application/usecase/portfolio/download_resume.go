package portfolio

import (
	"context"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
)

const ResumeFilename = "resume.pdf"

// DownloadResumeUseCase proxies the resume of a published portfolio so
// visitors get it as an attachment from our origin.
type DownloadResumeUseCase struct {
	repo    portfolio.Repository
	fetcher service.FileFetcher
}

func NewDownloadResumeUseCase(repo portfolio.Repository, fetcher service.FileFetcher) *DownloadResumeUseCase {
	return &DownloadResumeUseCase{repo: repo, fetcher: fetcher}
}

type DownloadResumeInput struct {
	Slug string
}

type DownloadResumeOutput struct {
	File     *service.FetchedFile
	Filename string
}

func (uc *DownloadResumeUseCase) Execute(ctx context.Context, input DownloadResumeInput) (*DownloadResumeOutput, error) {
	slug, err := portfolio.NormalizeSlug(input.Slug)
	if err != nil {
		return nil, apperror.NewNotFound("portfolio", input.Slug)
	}

	p, err := uc.repo.GetPublic(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p.Content.Resume == "" {
		return nil, apperror.NewNotFound("resume", slug)
	}

	file, err := uc.fetcher.Fetch(ctx, p.Content.Resume)
	if err != nil {
		return nil, err
	}
	return &DownloadResumeOutput{File: file, Filename: ResumeFilename}, nil
}
