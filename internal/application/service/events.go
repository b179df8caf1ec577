package service

import (
	"context"
	"time"

	"github.com/khoahotran/folio/internal/domain/portfolio"
)

type PortfolioEventType string

const (
	PortfolioCreated     PortfolioEventType = "portfolio.created"
	PortfolioUpdated     PortfolioEventType = "portfolio.updated"
	PortfolioPublished   PortfolioEventType = "portfolio.published"
	PortfolioUnpublished PortfolioEventType = "portfolio.unpublished"
	PortfolioDeleted     PortfolioEventType = "portfolio.deleted"
)

// PortfolioEvent tells consumers that the public page for the listed slugs
// may have changed.
type PortfolioEvent struct {
	EventType  PortfolioEventType `json:"event_type"`
	UserID     string             `json:"user_id"`
	Slugs      []string           `json:"slugs"`
	Section    string             `json:"section,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

type ViewEvent struct {
	Slug       string    `json:"slug"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	PublishPortfolioEvent(ctx context.Context, evt PortfolioEvent) error
}

// ViewRecorder records one public page view. Implementations must not block
// the caller on storage and never report failures to it.
type ViewRecorder interface {
	RecordView(ctx context.Context, slug string)
}

// PortfolioCache stores rendered public views keyed by slug.
//
// Every Invalidate bumps the slug's version. A reader takes Version before
// loading from storage and hands it to Set, which stores the view only if no
// invalidation happened in between.
type PortfolioCache interface {
	Get(ctx context.Context, slug string) (*PublicPortfolio, bool)
	Version(ctx context.Context, slug string) (int64, error)
	Set(ctx context.Context, slug string, version int64, view *PublicPortfolio) (bool, error)
	Invalidate(ctx context.Context, slugs ...string) error
}

// PublicPortfolio is the visitor-facing document for one slug.
type PublicPortfolio struct {
	Slug        string                `json:"slug"`
	ThemeConfig portfolio.ThemeConfig `json:"themeConfig"`
	Content     portfolio.Content     `json:"content"`
	OwnerName   string                `json:"ownerName,omitempty"`
	OwnerImage  string                `json:"ownerImage,omitempty"`
	Views       int64                 `json:"views"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}
