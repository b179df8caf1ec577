package portfolio

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/khoahotran/folio/pkg/apperror"
)

const maxItemsPerSection = 50

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("hexrgb", func(fl validator.FieldLevel) bool {
		return hexColorPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Profile holds the scalar fields edited on the profile form.
type Profile struct {
	DisplayName string   `json:"displayName" validate:"required,min=2,max=50"`
	Headline    string   `json:"headline" validate:"max=100"`
	Bio         string   `json:"bio" validate:"max=500"`
	Skills      []string `json:"skills" validate:"max=50,dive,max=50"`
}

func ValidateProfile(p Profile) error {
	return structError("", validate.Struct(p))
}

func ValidateTheme(t ThemeConfig) error {
	return structError("themeConfig", validate.Struct(t))
}

func ValidateExperience(items []Experience) error {
	return validateList(SectionExperience, items)
}

func ValidateProjects(items []Project) error {
	return validateList(SectionProjects, items)
}

func ValidateCertifications(items []Certification) error {
	return validateList(SectionCertifications, items)
}

func validateList[T any](section Section, items []T) error {
	if len(items) > maxItemsPerSection {
		return apperror.NewValidation(string(section), fmt.Sprintf("%s can hold at most %d items", section, maxItemsPerSection))
	}
	for i := range items {
		if err := structError(fmt.Sprintf("%s[%d]", section, i), validate.Struct(items[i])); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSocialLinks expects normalized links. Email must be an address,
// whatsapp is a free-form number or handle, every other platform a URL.
func ValidateSocialLinks(links SocialLinks) error {
	allowed := make(map[string]struct{}, len(Platforms))
	for _, p := range Platforms {
		allowed[p] = struct{}{}
	}

	unknown := make([]string, 0)
	for platform := range links {
		if _, ok := allowed[platform]; !ok {
			unknown = append(unknown, platform)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return apperror.NewValidation("socialLinks."+unknown[0], fmt.Sprintf("Unsupported platform '%s'", unknown[0]))
	}

	for _, platform := range Platforms {
		link, ok := links[platform]
		if !ok {
			continue
		}
		rule, msg := "url", "Must be a valid URL"
		switch platform {
		case PlatformEmail:
			rule, msg = "email", "Must be a valid email address"
		case PlatformWhatsApp:
			rule, msg = "max=30", "Must be at most 30 characters"
		}
		if err := validate.Var(link, rule); err != nil {
			return apperror.NewValidation("socialLinks."+platform, msg)
		}
	}
	return nil
}

func structError(prefix string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.NewInvalidInput("validation failed", err)
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	if prefix != "" {
		field = prefix + "." + field
	}
	return apperror.NewValidation(field, messageFor(fe))
}

func messageFor(fe validator.FieldError) string {
	name := fe.Field()
	isList := fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "min":
		if isList {
			return fmt.Sprintf("%s needs at least %s item(s)", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		if isList {
			return fmt.Sprintf("%s can hold at most %s items", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
	case "hexrgb":
		return fmt.Sprintf("%s must be a color like #8B5CF6", name)
	}
	return fmt.Sprintf("%s is invalid", name)
}

// ValidateAssetURL accepts an absolute URL, or the empty string to clear the asset.
func ValidateAssetURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	if err := validate.Var(raw, "url"); err != nil {
		return apperror.NewValidation(field, fmt.Sprintf("%s must be a valid URL", field))
	}
	return nil
}
