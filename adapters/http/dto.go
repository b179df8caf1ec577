package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/internal/domain/user"
)

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondOK(c *gin.Context, data any) {
	respond(c, http.StatusOK, data)
}

// User DTOs

type UserDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToUserDTO(u *user.User) UserDTO {
	return UserDTO{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

// Portfolio DTOs

type PortfolioDTO struct {
	ID                string                      `json:"id"`
	Slug              string                      `json:"slug"`
	Content           portfolio.Content           `json:"content"`
	ThemeConfig       portfolio.ThemeConfig       `json:"themeConfig"`
	SectionVisibility portfolio.SectionVisibility `json:"sectionVisibility"`
	HiddenItems       portfolio.HiddenItems       `json:"hiddenItems"`
	IsPublished       bool                        `json:"isPublished"`
	Views             int64                       `json:"views"`
	CreatedAt         time.Time                   `json:"createdAt"`
	UpdatedAt         time.Time                   `json:"updatedAt"`
}

func ToPortfolioDTO(p *portfolio.Portfolio) PortfolioDTO {
	hidden := p.HiddenItems
	if hidden == nil {
		hidden = portfolio.HiddenItems{}
	}
	return PortfolioDTO{
		ID:                p.ID.String(),
		Slug:              p.Slug,
		Content:           p.Content,
		ThemeConfig:       p.ThemeConfig,
		SectionVisibility: p.SectionVisibility,
		HiddenItems:       hidden,
		IsPublished:       p.IsPublished,
		Views:             p.Views,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

type CreatePortfolioRequest struct {
	Slug        string `json:"slug"`
	DisplayName string `json:"displayName"`
}

type UpdateProfileRequest struct {
	Slug        string            `json:"slug"`
	DisplayName string            `json:"displayName"`
	Headline    string            `json:"headline"`
	Bio         string            `json:"bio"`
	Skills      []string          `json:"skills"`
	SocialLinks map[string]string `json:"socialLinks"`
}

type UpdateExperienceRequest struct {
	Items []portfolio.Experience `json:"items"`
}

type UpdateProjectsRequest struct {
	Items []portfolio.Project `json:"items"`
}

type UpdateCertificationsRequest struct {
	Items []portfolio.Certification `json:"items"`
}

type UpdateAssetRequest struct {
	URL string `json:"url"`
}

type UpdateHiddenItemsRequest struct {
	HiddenItems map[string][]string `json:"hiddenItems"`
}

type LinkPreviewRequest struct {
	URL string `json:"url"`
}

// Identity provider webhook payload (Clerk user.* events).
type identityWebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		ImageURL  string `json:"image_url"`
	} `json:"data"`
}

func (e identityWebhookEvent) primaryEmail() string {
	if len(e.Data.EmailAddresses) == 0 {
		return ""
	}
	return e.Data.EmailAddresses[0].EmailAddress
}
