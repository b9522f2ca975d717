package crawler

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LinkSelector picks the links a crawl should follow, by CSS selector
// and/or URL regex.
type LinkSelector struct {
	CSSSelector string
	URLPattern  *regexp.Regexp
}

// NewLinkSelector compiles a link selector. An empty cssSelector matches
// every anchor; an empty urlPattern matches every URL.
func NewLinkSelector(cssSelector, urlPattern string) (*LinkSelector, error) {
	ls := &LinkSelector{CSSSelector: cssSelector}
	if urlPattern != "" {
		pattern, err := regexp.Compile(urlPattern)
		if err != nil {
			return nil, err
		}
		ls.URLPattern = pattern
	}
	return ls, nil
}

// ExtractLinks returns the absolute, deduplicated URLs matching the
// selector within the document.
func (ls *LinkSelector) ExtractLinks(html string, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	selector := ls.CSSSelector
	if selector == "" {
		selector = "a[href]"
	}

	var links []string
	seen := make(map[string]struct{})
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		full, ok := resolveHref(base, s.AttrOr("href", ""))
		if !ok {
			return
		}
		if ls.URLPattern != nil && !ls.URLPattern.MatchString(full) {
			return
		}
		if _, dup := seen[full]; dup {
			return
		}
		seen[full] = struct{}{}
		links = append(links, full)
	})

	return links, nil
}

// PaginationSelector locates the "next page" link of a listing.
type PaginationSelector struct {
	NextSelector string
}

// NewPaginationSelector creates a pagination selector.
func NewPaginationSelector(nextSelector string) *PaginationSelector {
	return &PaginationSelector{NextSelector: nextSelector}
}

// FindNextPage returns the absolute URL of the next page, if the document
// has one.
func (ps *PaginationSelector) FindNextPage(html string, baseURL string) (string, bool) {
	if ps.NextSelector == "" {
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", false
	}

	href := doc.Find(ps.NextSelector).First().AttrOr("href", "")
	return resolveHref(base, href)
}

// resolveHref turns one href attribute into an absolute, fragment-free URL.
// Empty, fragment-only and javascript: hrefs resolve to nothing.
func resolveHref(base *url.URL, href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return "", false
	}
	linkURL, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if !linkURL.IsAbs() {
		linkURL = base.ResolveReference(linkURL)
	}
	linkURL.Fragment = ""
	return linkURL.String(), true
}
