package portfolio

import (
	"encoding/json"
	"fmt"
	"time"
)

// Apply writes ch onto p the way storage does: content keys replace whole
// top-level fields and untouched fields keep their values.
func (p *Portfolio) Apply(ch Changes) error {
	if ch.Slug != nil {
		p.Slug = *ch.Slug
	}
	if len(ch.Content) > 0 {
		content, err := mergeContent(p.Content, ch.Content)
		if err != nil {
			return err
		}
		p.Content = content
	}
	if ch.ThemeConfig != nil {
		p.ThemeConfig = *ch.ThemeConfig
	}
	if ch.SectionVisibility != nil {
		p.SectionVisibility = *ch.SectionVisibility
	}
	if ch.HiddenItems != nil {
		p.HiddenItems = ch.HiddenItems
	}
	if ch.IsPublished != nil {
		p.IsPublished = *ch.IsPublished
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func mergeContent(c Content, fields map[string]any) (Content, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return c, err
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return c, err
	}
	for key, value := range fields {
		encoded, err := json.Marshal(value)
		if err != nil {
			return c, fmt.Errorf("encode content field %s: %w", key, err)
		}
		doc[key] = encoded
	}

	raw, err = json.Marshal(doc)
	if err != nil {
		return c, err
	}
	var merged Content
	if err := json.Unmarshal(raw, &merged); err != nil {
		return c, err
	}
	return merged, nil
}
