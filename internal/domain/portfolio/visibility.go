package portfolio

import "strconv"

// keyed is implemented by list items that can be hidden individually.
type keyed[T any] interface {
	itemID() string
	withID(id string) T
}

func (e Experience) itemID() string { return e.ID }

func (e Experience) withID(id string) Experience {
	e.ID = id
	return e
}

func (p Project) itemID() string { return p.ID }

func (p Project) withID(id string) Project {
	p.ID = id
	return p
}

func (c Certification) itemID() string { return c.ID }

func (c Certification) withID(id string) Certification {
	c.ID = id
	return c
}

// itemKey is the key hiddenItems refers to: the item id, or the item's
// position for legacy items stored without one.
func itemKey(id string, index int) string {
	if id != "" {
		return id
	}
	return strconv.Itoa(index)
}

// PublicView projects owner content onto what visitors may see.
//
// A hidden section yields an empty list regardless of hiddenItems. Visible
// list sections drop items whose key is in hiddenItems and keep the rest in
// their stored order. Legacy items without an id are keyed by position and
// come back carrying that key as their id, so applying PublicView to its own
// output changes nothing. Unknown keys in hiddenItems are ignored.
func PublicView(c Content, vis SectionVisibility, hidden HiddenItems) Content {
	out := c
	out.Experience = filterItems(c.Experience, vis.Experience, hidden.set(SectionExperience))
	out.Projects = filterItems(c.Projects, vis.Projects, hidden.set(SectionProjects))
	out.Certifications = filterItems(c.Certifications, vis.Certifications, hidden.set(SectionCertifications))
	out.Skills = filterValues(c.Skills, vis.Skills, hidden.set(SectionSkills))
	out.SocialLinks = filterLinks(c.SocialLinks, vis.SocialLinks, hidden.set(SectionSocialLinks))
	return out
}

func filterItems[T keyed[T]](items []T, visible bool, hidden map[string]struct{}) []T {
	out := make([]T, 0, len(items))
	if !visible {
		return out
	}
	for i, item := range items {
		key := itemKey(item.itemID(), i)
		if _, ok := hidden[key]; ok {
			continue
		}
		out = append(out, item.withID(key))
	}
	return out
}

func filterValues(values []string, visible bool, hidden map[string]struct{}) []string {
	out := make([]string, 0, len(values))
	if !visible {
		return out
	}
	for _, v := range values {
		if _, ok := hidden[v]; ok {
			continue
		}
		out = append(out, v)
	}
	return out
}

func filterLinks(links SocialLinks, visible bool, hidden map[string]struct{}) SocialLinks {
	out := make(SocialLinks, len(links))
	if !visible {
		return out
	}
	for platform, link := range links {
		if link == "" {
			continue
		}
		if _, ok := hidden[platform]; ok {
			continue
		}
		out[platform] = link
	}
	return out
}
