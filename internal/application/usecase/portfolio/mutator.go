package portfolio

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/metrics"
)

const (
	publishTimeout = 5 * time.Second

	invalidateAttempts = 5
	invalidateBackoff  = 200 * time.Millisecond
)

// Mutator runs the load, change, persist, refresh cycle shared by every
// owner-side write. Cache and publisher are optional.
type Mutator struct {
	repo      portfolio.Repository
	cache     service.PortfolioCache
	publisher service.EventPublisher
	metrics   metrics.Recorder
	logger    logger.Logger
}

func NewMutator(
	repo portfolio.Repository,
	cache service.PortfolioCache,
	publisher service.EventPublisher,
	rec metrics.Recorder,
	log logger.Logger,
) *Mutator {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Mutator{repo: repo, cache: cache, publisher: publisher, metrics: rec, logger: log}
}

// changeFunc edits the freshly loaded p in place and returns the matching
// partial write.
type changeFunc func(p *portfolio.Portfolio) (portfolio.Changes, error)

func (m *Mutator) apply(ctx context.Context, userID uuid.UUID, section string, change changeFunc) (*portfolio.Portfolio, error) {
	p, err := m.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	oldSlug := p.Slug

	ch, err := change(p)
	if err != nil {
		return nil, err
	}
	updated, err := m.repo.Update(ctx, userID, ch)
	if err != nil {
		if errors.Is(err, apperror.ErrSlugTaken) {
			m.metrics.SlugConflict()
		}
		return nil, err
	}

	evt := service.PortfolioUpdated
	if ch.IsPublished != nil {
		evt = service.PortfolioUnpublished
		if *ch.IsPublished {
			evt = service.PortfolioPublished
		}
	}
	m.refresh(ctx, evt, userID, section, oldSlug, updated.Slug)
	return updated, nil
}

// refresh drops cached public views for the given slugs and announces the
// change. Neither step can fail the write that triggered it.
func (m *Mutator) refresh(ctx context.Context, evtType service.PortfolioEventType, userID uuid.UUID, section string, slugs ...string) {
	slugs = uniqueSlugs(slugs)
	if len(slugs) == 0 {
		return
	}

	if m.cache != nil {
		if err := m.cache.Invalidate(ctx, slugs...); err != nil {
			m.logger.Warn("Failed to invalidate public cache, retrying", zap.Strings("slugs", slugs), zap.Error(err))
			go m.retryInvalidate(context.WithoutCancel(ctx), slugs)
		}
	}

	if m.publisher == nil {
		return
	}
	evt := service.PortfolioEvent{
		EventType:  evtType,
		UserID:     userID.String(),
		Slugs:      slugs,
		Section:    section,
		OccurredAt: time.Now().UTC(),
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := m.publisher.PublishPortfolioEvent(pubCtx, evt); err != nil {
			m.logger.Error("Failed to publish portfolio event", err, zap.String("event_type", string(evtType)), zap.String("user_id", evt.UserID))
		}
	}()
}

// retryInvalidate keeps trying to drop views the write made stale. Until it
// succeeds visitors may see the previous page for up to the cache TTL.
func (m *Mutator) retryInvalidate(ctx context.Context, slugs []string) {
	var err error
	for attempt := 1; attempt <= invalidateAttempts; attempt++ {
		time.Sleep(time.Duration(attempt) * invalidateBackoff)
		if err = m.cache.Invalidate(ctx, slugs...); err == nil {
			return
		}
	}
	m.logger.Error("Gave up invalidating public cache", err, zap.Strings("slugs", slugs))
}

func uniqueSlugs(slugs []string) []string {
	out := make([]string, 0, len(slugs))
	seen := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
