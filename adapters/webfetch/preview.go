package webfetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

// Only the head matters; pages larger than this are cut off.
const maxPreviewBytes = 1 << 20

type linkPreviewFetcher struct {
	client *http.Client
	logger logger.Logger
}

func NewLinkPreviewFetcher(client *http.Client, log logger.Logger) service.LinkPreviewFetcher {
	return &linkPreviewFetcher{client: client, logger: log}
}

func (f *linkPreviewFetcher) FetchPreview(ctx context.Context, target string) (*service.LinkPreview, error) {
	req, err := newRequest(ctx, target)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, mapTransportError(target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperror.NewInternal(fmt.Sprintf("GET %s returned %d", target, resp.StatusCode), nil)
	}

	base := resp.Request.URL
	preview := &service.LinkPreview{URL: target}
	if !isHTML(resp.Header.Get("Content-Type")) {
		f.logger.Debug("Skipping non-HTML preview target", zap.String("url", target))
		return preview, nil
	}

	meta := parseHead(io.LimitReader(resp.Body, maxPreviewBytes))

	preview.Title = firstNonEmpty(meta.ogTitle, meta.metaTitle, meta.title)
	preview.Description = firstNonEmpty(meta.ogDescription, meta.description)
	preview.Image = resolve(base, firstNonEmpty(meta.ogImage, meta.twitterImage))
	preview.Favicon = resolve(base, meta.icon)
	if preview.Favicon == "" {
		preview.Favicon = resolve(base, "/favicon.ico")
	}
	return preview, nil
}

type headMeta struct {
	title         string
	metaTitle     string
	ogTitle       string
	description   string
	ogDescription string
	ogImage       string
	twitterImage  string
	icon          string
}

// parseHead walks tokens until <body> and keeps the first value seen for
// every field.
func parseHead(r io.Reader) headMeta {
	var m headMeta
	z := html.NewTokenizer(r)
	inTitle := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			return m

		case html.TextToken:
			if inTitle && m.title == "" {
				m.title = strings.TrimSpace(string(z.Text()))
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				inTitle = false
			case "head":
				return m
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "body":
				return m
			case "title":
				inTitle = true
			case "meta":
				if hasAttr {
					m.applyMeta(attrs(z))
				}
			case "link":
				if hasAttr {
					a := attrs(z)
					if m.icon == "" && isIconRel(a["rel"]) && a["href"] != "" {
						m.icon = a["href"]
					}
				}
			}
		}
	}
}

func (m *headMeta) applyMeta(a map[string]string) {
	key := a["property"]
	if key == "" {
		key = a["name"]
	}
	content := strings.TrimSpace(a["content"])
	if content == "" {
		return
	}

	set := func(dst *string) {
		if *dst == "" {
			*dst = content
		}
	}
	switch strings.ToLower(key) {
	case "og:title":
		set(&m.ogTitle)
	case "title":
		set(&m.metaTitle)
	case "og:description":
		set(&m.ogDescription)
	case "description":
		set(&m.description)
	case "og:image":
		set(&m.ogImage)
	case "twitter:image":
		set(&m.twitterImage)
	}
}

func attrs(z *html.Tokenizer) map[string]string {
	out := make(map[string]string)
	for {
		key, val, more := z.TagAttr()
		out[strings.ToLower(string(key))] = string(val)
		if !more {
			return out
		}
	}
}

func isIconRel(rel string) bool {
	for _, token := range strings.Fields(strings.ToLower(rel)) {
		if token == "icon" {
			return true
		}
	}
	return false
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func resolve(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
