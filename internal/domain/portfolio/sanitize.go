package portfolio

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all markup from free text. Entities escaped by the
// policy are turned back into characters since values are stored as text.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func SanitizeExperience(items []Experience) []Experience {
	out := make([]Experience, len(items))
	for i, e := range items {
		e.Title = SanitizeText(e.Title)
		e.Company = SanitizeText(e.Company)
		e.Location = SanitizeText(e.Location)
		e.Description = SanitizeText(e.Description)
		out[i] = e
	}
	return out
}

func SanitizeProjects(items []Project) []Project {
	out := make([]Project, len(items))
	for i, p := range items {
		p.Title = SanitizeText(p.Title)
		p.Description = SanitizeText(p.Description)
		p.Technologies = NormalizeSkills(p.Technologies)
		p.Image = strings.TrimSpace(p.Image)
		p.LiveURL = strings.TrimSpace(p.LiveURL)
		p.GithubURL = strings.TrimSpace(p.GithubURL)
		out[i] = p
	}
	return out
}

func SanitizeCertifications(items []Certification) []Certification {
	out := make([]Certification, len(items))
	for i, c := range items {
		c.Title = SanitizeText(c.Title)
		c.Description = SanitizeText(c.Description)
		c.Technologies = NormalizeSkills(c.Technologies)
		c.Image = strings.TrimSpace(c.Image)
		out[i] = c
	}
	return out
}
