package portfolio

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const itemIDLength = 12

func newItemID() string {
	return gonanoid.Must(itemIDLength)
}

// assignIDs keeps an incoming id only when it names an item already stored
// in the section and has not been used earlier in the same payload. Every
// other item gets a fresh id.
func assignIDs[T keyed[T]](stored, incoming []T) []T {
	known := itemKeys(stored)
	used := make(map[string]struct{}, len(incoming))
	out := make([]T, 0, len(incoming))
	for _, item := range incoming {
		id := item.itemID()
		_, isKnown := known[id]
		_, isUsed := used[id]
		if id == "" || !isKnown || isUsed {
			id = newItemID()
		}
		used[id] = struct{}{}
		out = append(out, item.withID(id))
	}
	return out
}

func AssignExperienceIDs(stored, incoming []Experience) []Experience {
	return assignIDs(stored, incoming)
}

func AssignProjectIDs(stored, incoming []Project) []Project {
	return assignIDs(stored, incoming)
}

func AssignCertificationIDs(stored, incoming []Certification) []Certification {
	return assignIDs(stored, incoming)
}

func itemKeys[T keyed[T]](items []T) map[string]struct{} {
	keys := make(map[string]struct{}, len(items))
	for i, item := range items {
		keys[itemKey(item.itemID(), i)] = struct{}{}
	}
	return keys
}

func stampKeys[T keyed[T]](items []T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = item.withID(itemKey(item.itemID(), i))
	}
	return out
}

// WithItemKeys fills in positional keys for legacy items stored without an
// id so editors can send them back and keep their hidden state.
func (c Content) WithItemKeys() Content {
	c.Experience = stampKeys(c.Experience)
	c.Projects = stampKeys(c.Projects)
	c.Certifications = stampKeys(c.Certifications)
	return c
}

// PruneHiddenItems drops hidden keys that no longer match anything in c,
// duplicates, and sections that are not known.
func PruneHiddenItems(c Content, hidden HiddenItems) HiddenItems {
	present := map[Section]map[string]struct{}{
		SectionExperience:     itemKeys(c.Experience),
		SectionProjects:       itemKeys(c.Projects),
		SectionCertifications: itemKeys(c.Certifications),
		SectionSkills:         valueSet(c.Skills),
		SectionSocialLinks:    platformSet(c.SocialLinks),
	}

	out := HiddenItems{}
	for _, s := range Sections {
		seen := make(map[string]struct{})
		for _, key := range hidden.Keys(s) {
			if _, ok := present[s][key]; !ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out[s] = append(out[s], key)
		}
	}
	return out
}

func valueSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func platformSet(links SocialLinks) map[string]struct{} {
	set := make(map[string]struct{}, len(links))
	for platform, link := range links {
		if link != "" {
			set[platform] = struct{}{}
		}
	}
	return set
}

// NormalizeSkills trims each skill and drops blanks and repeats, keeping
// first occurrences in order.
func NormalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// NormalizeSocialLinks lowercases platform keys, trims values and drops empty links.
func NormalizeSocialLinks(links map[string]string) SocialLinks {
	out := make(SocialLinks, len(links))
	for platform, link := range links {
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(platform))] = link
	}
	return out
}
