package portfolio

import "encoding/json"

type Section string

const (
	SectionExperience     Section = "experience"
	SectionProjects       Section = "projects"
	SectionCertifications Section = "certifications"
	SectionSkills         Section = "skills"
	SectionSocialLinks    Section = "socialLinks"
)

var Sections = []Section{
	SectionExperience,
	SectionProjects,
	SectionCertifications,
	SectionSkills,
	SectionSocialLinks,
}

func (s Section) Valid() bool {
	for _, known := range Sections {
		if s == known {
			return true
		}
	}
	return false
}

// SectionVisibility has one toggle per section. Missing toggles default to visible.
type SectionVisibility struct {
	Experience     bool `json:"showExperience" bson:"showExperience"`
	Projects       bool `json:"showProjects" bson:"showProjects"`
	Certifications bool `json:"showCertifications" bson:"showCertifications"`
	Skills         bool `json:"showSkills" bson:"showSkills"`
	SocialLinks    bool `json:"showSocialLinks" bson:"showSocialLinks"`
}

func DefaultSectionVisibility() SectionVisibility {
	return SectionVisibility{
		Experience:     true,
		Projects:       true,
		Certifications: true,
		Skills:         true,
		SocialLinks:    true,
	}
}

// UnmarshalJSON treats missing keys as visible.
func (v *SectionVisibility) UnmarshalJSON(data []byte) error {
	type plain SectionVisibility
	decoded := plain(DefaultSectionVisibility())
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*v = SectionVisibility(decoded)
	return nil
}

func (v SectionVisibility) Visible(s Section) bool {
	switch s {
	case SectionExperience:
		return v.Experience
	case SectionProjects:
		return v.Projects
	case SectionCertifications:
		return v.Certifications
	case SectionSkills:
		return v.Skills
	case SectionSocialLinks:
		return v.SocialLinks
	}
	return false
}

// HiddenItems holds, per section, the keys of items withheld from the
// public page: item ids for list sections, values for skills and platform
// keys for social links.
type HiddenItems map[Section][]string

func (h HiddenItems) Keys(s Section) []string {
	if h == nil {
		return nil
	}
	return h[s]
}

func (h HiddenItems) set(s Section) map[string]struct{} {
	keys := h.Keys(s)
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
