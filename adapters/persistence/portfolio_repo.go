package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

const (
	constraintSlug   = "portfolios_slug_key"
	constraintUserID = "portfolios_user_id_key"
)

var portfolioColumns = []string{
	"id", "user_id", "slug", "content", "theme_config", "section_visibility",
	"hidden_items", "is_published", "views", "created_at", "updated_at",
}

type postgresPortfolioRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresPortfolioRepo(db *pgxpool.Pool, log logger.Logger) portfolio.Repository {
	return &postgresPortfolioRepo{db: db, logger: log}
}

func scanPortfolio(row pgx.Row, log logger.Logger) (*portfolio.Portfolio, error) {
	p := &portfolio.Portfolio{}
	var contentBytes, themeBytes, visibilityBytes, hiddenBytes []byte

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Slug,
		&contentBytes,
		&themeBytes,
		&visibilityBytes,
		&hiddenBytes,
		&p.IsPublished,
		&p.Views,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(contentBytes, &p.Content); err != nil {
		return nil, fmt.Errorf("decode portfolio content: %w", err)
	}
	p.ThemeConfig = portfolio.DefaultThemeConfig()
	if err := json.Unmarshal(themeBytes, &p.ThemeConfig); err != nil {
		log.Warn("Corrupt theme_config, using defaults", zap.String("portfolio_id", p.ID.String()), zap.Error(err))
		p.ThemeConfig = portfolio.DefaultThemeConfig()
	}
	if err := json.Unmarshal(visibilityBytes, &p.SectionVisibility); err != nil {
		log.Warn("Corrupt section_visibility, showing every section", zap.String("portfolio_id", p.ID.String()), zap.Error(err))
		p.SectionVisibility = portfolio.DefaultSectionVisibility()
	}
	if err := json.Unmarshal(hiddenBytes, &p.HiddenItems); err != nil {
		log.Warn("Corrupt hidden_items, ignoring", zap.String("portfolio_id", p.ID.String()), zap.Error(err))
		p.HiddenItems = portfolio.HiddenItems{}
	}
	return p, nil
}

func (r *postgresPortfolioRepo) Create(ctx context.Context, p *portfolio.Portfolio) error {
	content, err := json.Marshal(p.Content)
	if err != nil {
		return apperror.NewInternal("failed to marshal portfolio content", err)
	}
	theme, err := json.Marshal(p.ThemeConfig)
	if err != nil {
		return apperror.NewInternal("failed to marshal theme config", err)
	}
	visibility, err := json.Marshal(p.SectionVisibility)
	if err != nil {
		return apperror.NewInternal("failed to marshal section visibility", err)
	}
	hidden, err := json.Marshal(hiddenOrEmpty(p.HiddenItems))
	if err != nil {
		return apperror.NewInternal("failed to marshal hidden items", err)
	}

	query, args, err := psql.Insert("portfolios").
		Columns(portfolioColumns...).
		Values(p.ID, p.UserID, p.Slug, content, theme, visibility, hidden, p.IsPublished, p.Views, p.CreatedAt, p.UpdatedAt).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build portfolio insert", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return r.mapWriteError(err, p.UserID, p.Slug)
	}
	return nil
}

func (r *postgresPortfolioRepo) findOne(ctx context.Context, where sq.Sqlizer, identifier string) (*portfolio.Portfolio, error) {
	query, args, err := psql.Select(portfolioColumns...).From("portfolios").Where(where).ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build portfolio query", err)
	}

	p, err := scanPortfolio(r.db.QueryRow(ctx, query, args...), r.logger)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("portfolio", identifier)
		}
		r.logger.Error("Failed to query portfolio", err, zap.String("identifier", identifier))
		return nil, apperror.NewInternal("failed to query portfolio", err)
	}
	return p, nil
}

func (r *postgresPortfolioRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*portfolio.Portfolio, error) {
	return r.findOne(ctx, sq.Eq{"user_id": userID}, userID.String())
}

func (r *postgresPortfolioRepo) FindBySlug(ctx context.Context, slug string) (*portfolio.Portfolio, error) {
	return r.findOne(ctx, sq.Eq{"slug": slug}, slug)
}

func (r *postgresPortfolioRepo) GetPublic(ctx context.Context, slug string) (*portfolio.Portfolio, error) {
	return r.findOne(ctx, sq.Eq{"slug": slug, "is_published": true}, slug)
}

// Update merges content keys into the stored document with the jsonb ||
// operator, so concurrent writes to different sections do not clobber each
// other.
func (r *postgresPortfolioRepo) Update(ctx context.Context, userID uuid.UUID, ch portfolio.Changes) (*portfolio.Portfolio, error) {
	b := psql.Update("portfolios").Set("updated_at", sq.Expr("NOW()"))

	if ch.Slug != nil {
		b = b.Set("slug", *ch.Slug)
	}
	if len(ch.Content) > 0 {
		patch, err := json.Marshal(ch.Content)
		if err != nil {
			return nil, apperror.NewInternal("failed to marshal content patch", err)
		}
		b = b.Set("content", sq.Expr("content || ?::jsonb", string(patch)))
	}
	if ch.ThemeConfig != nil {
		theme, err := json.Marshal(ch.ThemeConfig)
		if err != nil {
			return nil, apperror.NewInternal("failed to marshal theme config", err)
		}
		b = b.Set("theme_config", theme)
	}
	if ch.SectionVisibility != nil {
		vis, err := json.Marshal(ch.SectionVisibility)
		if err != nil {
			return nil, apperror.NewInternal("failed to marshal section visibility", err)
		}
		b = b.Set("section_visibility", vis)
	}
	if ch.HiddenItems != nil {
		hidden, err := json.Marshal(ch.HiddenItems)
		if err != nil {
			return nil, apperror.NewInternal("failed to marshal hidden items", err)
		}
		b = b.Set("hidden_items", hidden)
	}
	if ch.IsPublished != nil {
		b = b.Set("is_published", *ch.IsPublished)
	}

	query, args, err := b.Where(sq.Eq{"user_id": userID}).
		Suffix("RETURNING " + joinColumns(portfolioColumns)).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build portfolio update", err)
	}

	p, err := scanPortfolio(r.db.QueryRow(ctx, query, args...), r.logger)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("portfolio", userID.String())
		}
		slug := ""
		if ch.Slug != nil {
			slug = *ch.Slug
		}
		return nil, r.mapWriteError(err, userID, slug)
	}
	return p, nil
}

func (r *postgresPortfolioRepo) IncrementViews(ctx context.Context, slug string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE portfolios SET views = views + 1 WHERE slug = $1 AND is_published = TRUE`, slug)
	if err != nil {
		return apperror.NewInternal("failed to increment views", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("portfolio", slug)
	}
	return nil
}

func (r *postgresPortfolioRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	query, args, err := psql.Delete("portfolios").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build portfolio delete", err)
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return apperror.NewInternal("failed to delete portfolio", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("portfolio", userID.String())
	}
	return nil
}

func (r *postgresPortfolioRepo) mapWriteError(err error, userID uuid.UUID, slug string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505" && pgErr.ConstraintName == constraintSlug:
			return apperror.NewSlugTaken(slug)
		case pgErr.Code == "23505" && pgErr.ConstraintName == constraintUserID:
			return apperror.NewConflict("portfolio", "user_id", userID.String())
		case pgErr.Code == "23514":
			return apperror.NewValidation("slug", "Username must be 3-30 characters of lowercase letters, numbers and hyphens")
		}
	}
	r.logger.Error("Failed to write portfolio", err, zap.String("user_id", userID.String()))
	return apperror.NewInternal("failed to write portfolio", err)
}

func hiddenOrEmpty(h portfolio.HiddenItems) portfolio.HiddenItems {
	if h == nil {
		return portfolio.HiddenItems{}
	}
	return h
}
