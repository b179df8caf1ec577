package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

// visibilityDoc keeps toggles as pointers so documents written before a
// section existed decode as visible.
type visibilityDoc struct {
	Experience     *bool `bson:"showExperience,omitempty"`
	Projects       *bool `bson:"showProjects,omitempty"`
	Certifications *bool `bson:"showCertifications,omitempty"`
	Skills         *bool `bson:"showSkills,omitempty"`
	SocialLinks    *bool `bson:"showSocialLinks,omitempty"`
}

func toVisibilityDoc(v portfolio.SectionVisibility) visibilityDoc {
	b := func(x bool) *bool { return &x }
	return visibilityDoc{
		Experience:     b(v.Experience),
		Projects:       b(v.Projects),
		Certifications: b(v.Certifications),
		Skills:         b(v.Skills),
		SocialLinks:    b(v.SocialLinks),
	}
}

func (d visibilityDoc) domain() portfolio.SectionVisibility {
	or := func(p *bool) bool { return p == nil || *p }
	return portfolio.SectionVisibility{
		Experience:     or(d.Experience),
		Projects:       or(d.Projects),
		Certifications: or(d.Certifications),
		Skills:         or(d.Skills),
		SocialLinks:    or(d.SocialLinks),
	}
}

type portfolioDoc struct {
	ID                string                 `bson:"_id"`
	UserID            string                 `bson:"user_id"`
	Slug              string                 `bson:"slug"`
	Content           portfolio.Content      `bson:"content"`
	ThemeConfig       *portfolio.ThemeConfig `bson:"theme_config,omitempty"`
	SectionVisibility visibilityDoc          `bson:"section_visibility"`
	HiddenItems       map[string][]string    `bson:"hidden_items"`
	IsPublished       bool                   `bson:"is_published"`
	Views             int64                  `bson:"views"`
	CreatedAt         time.Time              `bson:"created_at"`
	UpdatedAt         time.Time              `bson:"updated_at"`
}

func toPortfolioDoc(p *portfolio.Portfolio) portfolioDoc {
	theme := p.ThemeConfig
	return portfolioDoc{
		ID:                p.ID.String(),
		UserID:            p.UserID.String(),
		Slug:              p.Slug,
		Content:           p.Content,
		ThemeConfig:       &theme,
		SectionVisibility: toVisibilityDoc(p.SectionVisibility),
		HiddenItems:       hiddenToDoc(p.HiddenItems),
		IsPublished:       p.IsPublished,
		Views:             p.Views,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func (d portfolioDoc) domain() (*portfolio.Portfolio, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, err
	}
	theme := portfolio.DefaultThemeConfig()
	if d.ThemeConfig != nil {
		theme = *d.ThemeConfig
	}
	hidden := make(portfolio.HiddenItems, len(d.HiddenItems))
	for s, keys := range d.HiddenItems {
		hidden[portfolio.Section(s)] = keys
	}
	return &portfolio.Portfolio{
		ID:                id,
		UserID:            userID,
		Slug:              d.Slug,
		Content:           d.Content,
		ThemeConfig:       theme,
		SectionVisibility: d.SectionVisibility.domain(),
		HiddenItems:       hidden,
		IsPublished:       d.IsPublished,
		Views:             d.Views,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}, nil
}

func hiddenToDoc(h portfolio.HiddenItems) map[string][]string {
	out := make(map[string][]string, len(h))
	for s, keys := range h {
		out[string(s)] = keys
	}
	return out
}

type mongoPortfolioRepo struct {
	c      *mongo.Collection
	logger logger.Logger
}

func NewMongoPortfolioRepo(db *mongo.Database, log logger.Logger) portfolio.Repository {
	return &mongoPortfolioRepo{c: db.Collection(collPortfolios), logger: log}
}

func (r *mongoPortfolioRepo) Create(ctx context.Context, p *portfolio.Portfolio) error {
	if _, err := r.c.InsertOne(ctx, toPortfolioDoc(p)); err != nil {
		return r.mapWriteError(err, p.UserID, p.Slug)
	}
	return nil
}

func (r *mongoPortfolioRepo) findOne(ctx context.Context, filter bson.M, identifier string) (*portfolio.Portfolio, error) {
	var doc portfolioDoc
	if err := r.c.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NewNotFound("portfolio", identifier)
		}
		r.logger.Error("Failed to query portfolio", err, zap.String("identifier", identifier))
		return nil, apperror.NewInternal("failed to query portfolio", err)
	}
	p, err := doc.domain()
	if err != nil {
		return nil, apperror.NewInternal("failed to decode portfolio", err)
	}
	return p, nil
}

func (r *mongoPortfolioRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*portfolio.Portfolio, error) {
	return r.findOne(ctx, bson.M{"user_id": userID.String()}, userID.String())
}

func (r *mongoPortfolioRepo) FindBySlug(ctx context.Context, slug string) (*portfolio.Portfolio, error) {
	return r.findOne(ctx, bson.M{"slug": slug}, slug)
}

func (r *mongoPortfolioRepo) GetPublic(ctx context.Context, slug string) (*portfolio.Portfolio, error) {
	return r.findOne(ctx, bson.M{"slug": slug, "is_published": true}, slug)
}

// Update sets only the touched fields; content keys are addressed one by
// one so other sections keep their stored values.
func (r *mongoPortfolioRepo) Update(ctx context.Context, userID uuid.UUID, ch portfolio.Changes) (*portfolio.Portfolio, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if ch.Slug != nil {
		set["slug"] = *ch.Slug
	}
	for key, value := range ch.Content {
		set["content."+key] = value
	}
	if ch.ThemeConfig != nil {
		set["theme_config"] = *ch.ThemeConfig
	}
	if ch.SectionVisibility != nil {
		set["section_visibility"] = toVisibilityDoc(*ch.SectionVisibility)
	}
	if ch.HiddenItems != nil {
		set["hidden_items"] = hiddenToDoc(ch.HiddenItems)
	}
	if ch.IsPublished != nil {
		set["is_published"] = *ch.IsPublished
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc portfolioDoc
	err := r.c.FindOneAndUpdate(ctx, bson.M{"user_id": userID.String()}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NewNotFound("portfolio", userID.String())
		}
		slug := ""
		if ch.Slug != nil {
			slug = *ch.Slug
		}
		return nil, r.mapWriteError(err, userID, slug)
	}
	p, err := doc.domain()
	if err != nil {
		return nil, apperror.NewInternal("failed to decode portfolio", err)
	}
	return p, nil
}

func (r *mongoPortfolioRepo) IncrementViews(ctx context.Context, slug string) error {
	res, err := r.c.UpdateOne(ctx,
		bson.M{"slug": slug, "is_published": true},
		bson.M{"$inc": bson.M{"views": 1}},
	)
	if err != nil {
		return apperror.NewInternal("failed to increment views", err)
	}
	if res.MatchedCount == 0 {
		return apperror.NewNotFound("portfolio", slug)
	}
	return nil
}

func (r *mongoPortfolioRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"user_id": userID.String()})
	if err != nil {
		return apperror.NewInternal("failed to delete portfolio", err)
	}
	if res.DeletedCount == 0 {
		return apperror.NewNotFound("portfolio", userID.String())
	}
	return nil
}

func (r *mongoPortfolioRepo) mapWriteError(err error, userID uuid.UUID, slug string) error {
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), indexSlugUnique) {
			return apperror.NewSlugTaken(slug)
		}
		return apperror.NewConflict("portfolio", "user_id", userID.String())
	}
	r.logger.Error("Failed to write portfolio", err, zap.String("user_id", userID.String()))
	return apperror.NewInternal("failed to write portfolio", err)
}
