package preview

import (
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/crosspost/crosspost/internal/core"
)

var textPolicy = bluemonday.StrictPolicy()

// pageMeta is what a single pass over the document collects.
type pageMeta struct {
	title string
	meta  map[string]string
}

// Extract parses an HTML document and builds a preview using these
// fallbacks:
//
//	title       og:title, <title>, ""
//	description og:description, <meta name="description">, ""
//	image       og:image, ""
//
// Image dimensions are set only when og:image:width and og:image:height
// are both positive integers. A relative og:image is resolved against
// sourceURL.
func Extract(r io.Reader, sourceURL string) (core.LinkPreview, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return core.LinkPreview{}, err
	}

	page := pageMeta{meta: make(map[string]string)}
	collect(doc, &page)

	preview := core.LinkPreview{
		Title:       firstNonEmpty(page.meta["og:title"], page.title),
		Description: firstNonEmpty(page.meta["og:description"], page.meta["description"]),
		Image:       resolveImage(clean(page.meta["og:image"]), sourceURL),
		SiteName:    clean(page.meta["og:site_name"]),
		Type:        clean(page.meta["og:type"]),
		URL:         sourceURL,
	}

	width := positiveInt(page.meta["og:image:width"])
	height := positiveInt(page.meta["og:image:height"])
	if width > 0 && height > 0 {
		preview.ImageDimensions = &core.ImageDimensions{Width: width, Height: height}
	}

	return preview, nil
}

func collect(n *html.Node, page *pageMeta) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Title:
			if strings.TrimSpace(page.title) == "" {
				page.title = textContent(n)
			}
		case atom.Meta:
			key := strings.ToLower(strings.TrimSpace(firstNonEmptyAttr(n, "property", "name")))
			content := attr(n, "content")
			if key != "" && strings.TrimSpace(content) != "" {
				if _, seen := page.meta[key]; !seen {
					page.meta[key] = content
				}
			}
		case atom.Svg:
			// <title> inside inline SVG is not the page title.
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, page)
	}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func firstNonEmptyAttr(n *html.Node, keys ...string) string {
	for _, key := range keys {
		if v := attr(n, key); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// clean strips markup and collapses whitespace runs to single spaces.
func clean(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(textPolicy.Sanitize(value))), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if c := clean(v); c != "" {
			return c
		}
	}
	return ""
}

func positiveInt(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func resolveImage(image, sourceURL string) string {
	if image == "" || sourceURL == "" {
		return image
	}
	ref, err := url.Parse(image)
	if err != nil || ref.IsAbs() {
		return image
	}
	base, err := url.Parse(sourceURL)
	if err != nil {
		return image
	}
	return base.ResolveReference(ref).String()
}
