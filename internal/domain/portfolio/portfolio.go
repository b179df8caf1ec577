package portfolio

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Experience struct {
	ID          string `json:"id" bson:"id"`
	Title       string `json:"title" bson:"title" validate:"required,max=100"`
	Company     string `json:"company" bson:"company" validate:"required,max=100"`
	Location    string `json:"location,omitempty" bson:"location,omitempty" validate:"max=100"`
	StartDate   string `json:"startDate" bson:"startDate" validate:"required"`
	EndDate     string `json:"endDate,omitempty" bson:"endDate,omitempty"`
	Current     bool   `json:"current" bson:"current"`
	Description string `json:"description" bson:"description" validate:"min=10,max=2000"`
}

type Project struct {
	ID           string   `json:"id" bson:"id"`
	Title        string   `json:"title" bson:"title" validate:"required,max=100"`
	Description  string   `json:"description" bson:"description" validate:"min=10,max=2000"`
	Image        string   `json:"image,omitempty" bson:"image,omitempty" validate:"omitempty,url"`
	Technologies []string `json:"technologies" bson:"technologies" validate:"min=1,dive,required,max=50"`
	LiveURL      string   `json:"liveUrl,omitempty" bson:"liveUrl,omitempty" validate:"omitempty,url"`
	GithubURL    string   `json:"githubUrl,omitempty" bson:"githubUrl,omitempty" validate:"omitempty,url"`
	Featured     bool     `json:"featured" bson:"featured"`
}

type Certification struct {
	ID           string   `json:"id" bson:"id"`
	Title        string   `json:"title" bson:"title" validate:"required,max=100"`
	Image        string   `json:"image,omitempty" bson:"image,omitempty" validate:"omitempty,url"`
	Description  string   `json:"description" bson:"description" validate:"required,max=2000"`
	Technologies []string `json:"technologies" bson:"technologies" validate:"dive,required,max=50"`
	Date         string   `json:"date" bson:"date" validate:"required"`
}

// SocialLinks maps a platform key to a URL or handle.
type SocialLinks map[string]string

const (
	PlatformEmail     = "email"
	PlatformWhatsApp  = "whatsapp"
	PlatformTwitter   = "twitter"
	PlatformGithub    = "github"
	PlatformLinkedIn  = "linkedin"
	PlatformWebsite   = "website"
	PlatformInstagram = "instagram"
	PlatformYoutube   = "youtube"
)

// Platforms lists the accepted social link keys in display order.
var Platforms = []string{
	PlatformEmail,
	PlatformWhatsApp,
	PlatformTwitter,
	PlatformGithub,
	PlatformLinkedIn,
	PlatformWebsite,
	PlatformInstagram,
	PlatformYoutube,
}

type Content struct {
	DisplayName    string          `json:"displayName" bson:"displayName"`
	Headline       string          `json:"headline" bson:"headline"`
	Bio            string          `json:"bio" bson:"bio"`
	Avatar         string          `json:"avatar" bson:"avatar"`
	CoverImage     string          `json:"coverImage" bson:"coverImage"`
	Resume         string          `json:"resume" bson:"resume"`
	Experience     []Experience    `json:"experience" bson:"experience"`
	Projects       []Project       `json:"projects" bson:"projects"`
	Certifications []Certification `json:"certifications" bson:"certifications"`
	Skills         []string        `json:"skills" bson:"skills"`
	SocialLinks    SocialLinks     `json:"socialLinks" bson:"socialLinks"`
}

// Top-level content keys, used for partial writes.
const (
	FieldDisplayName    = "displayName"
	FieldHeadline       = "headline"
	FieldBio            = "bio"
	FieldAvatar         = "avatar"
	FieldCoverImage     = "coverImage"
	FieldResume         = "resume"
	FieldExperience     = "experience"
	FieldProjects       = "projects"
	FieldCertifications = "certifications"
	FieldSkills         = "skills"
	FieldSocialLinks    = "socialLinks"
)

const (
	ModeLight  = "light"
	ModeDark   = "dark"
	ModeSystem = "system"
)

type ThemeConfig struct {
	PrimaryColor   string `json:"primaryColor" bson:"primaryColor" validate:"required,hexrgb"`
	SecondaryColor string `json:"secondaryColor" bson:"secondaryColor" validate:"required,hexrgb"`
	FontFamily     string `json:"fontFamily" bson:"fontFamily" validate:"required,max=50"`
	Mode           string `json:"mode" bson:"mode" validate:"required,oneof=light dark system"`
}

func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		PrimaryColor:   "#8B5CF6",
		SecondaryColor: "#EC4899",
		FontFamily:     "Inter",
		Mode:           ModeSystem,
	}
}

type Portfolio struct {
	ID                uuid.UUID         `json:"id"`
	UserID            uuid.UUID         `json:"userId"`
	Slug              string            `json:"slug"`
	Content           Content           `json:"content"`
	ThemeConfig       ThemeConfig       `json:"themeConfig"`
	SectionVisibility SectionVisibility `json:"sectionVisibility"`
	HiddenItems       HiddenItems       `json:"hiddenItems"`
	IsPublished       bool              `json:"isPublished"`
	Views             int64             `json:"views"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// New returns an unpublished portfolio with default theme and every section visible.
func New(userID uuid.UUID, slug, displayName string) *Portfolio {
	now := time.Now().UTC()
	return &Portfolio{
		ID:     uuid.New(),
		UserID: userID,
		Slug:   slug,
		Content: Content{
			DisplayName:    displayName,
			Experience:     []Experience{},
			Projects:       []Project{},
			Certifications: []Certification{},
			Skills:         []string{},
			SocialLinks:    SocialLinks{},
		},
		ThemeConfig:       DefaultThemeConfig(),
		SectionVisibility: DefaultSectionVisibility(),
		HiddenItems:       HiddenItems{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Changes is a partial write. Nil fields are left untouched; Content keys
// replace the matching top-level content field wholesale.
type Changes struct {
	Slug              *string
	Content           map[string]any
	ThemeConfig       *ThemeConfig
	SectionVisibility *SectionVisibility
	HiddenItems       HiddenItems
	IsPublished       *bool
}

type Repository interface {
	// Create fails with a conflict when the user already owns a portfolio
	// and with ErrSlugTaken when the slug is held.
	Create(ctx context.Context, p *Portfolio) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Portfolio, error)
	// FindBySlug ignores publish state.
	FindBySlug(ctx context.Context, slug string) (*Portfolio, error)
	// GetPublic only returns published portfolios; unpublished ones are not found.
	GetPublic(ctx context.Context, slug string) (*Portfolio, error)
	Update(ctx context.Context, userID uuid.UUID, ch Changes) (*Portfolio, error)
	IncrementViews(ctx context.Context, slug string) error
	Delete(ctx context.Context, userID uuid.UUID) error
}
