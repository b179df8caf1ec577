package portfolio

import (
	"regexp"
	"strings"

	"github.com/khoahotran/folio/pkg/apperror"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]{3,30}$`)

const slugRules = "Username must be 3-30 characters and contain only lowercase letters, numbers, and hyphens"

// NormalizeSlug trims and lowercases raw and checks it against the slug
// grammar. Normalizing an already normalized slug returns it unchanged.
func NormalizeSlug(raw string) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(raw))
	if !slugPattern.MatchString(slug) {
		return "", apperror.NewValidation("slug", slugRules)
	}
	return slug, nil
}
