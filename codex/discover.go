package codex

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DiscoverLinks extracts the crawl frontier from the overview page: all
// same-origin anchor targets whose path starts with the overview's path
// prefix, excluding the overview itself. Relative hrefs resolve against the
// overview URL; malformed hrefs are skipped. The result is deduplicated and
// sorted lexicographically. No network calls.
func DiscoverLinks(overviewURL, pageHTML string) ([]string, error) {
	base, err := url.Parse(overviewURL)
	if err != nil {
		return nil, fmt.Errorf("parse overview url: %w", err)
	}
	prefix := strings.TrimSuffix(base.Path, "/")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse overview html: %w", err)
	}

	seen := map[string]struct{}{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		u := base.ResolveReference(ref)
		if u.Scheme != base.Scheme || u.Host != base.Host {
			return
		}
		path := strings.TrimSuffix(u.Path, "/")
		if path == prefix || !strings.HasPrefix(path, prefix+"/") {
			return
		}
		u.Path = path
		u.Fragment = ""
		u.RawQuery = ""
		seen[u.String()] = struct{}{}
	})

	links := make([]string, 0, len(seen))
	for u := range seen {
		links = append(links, u)
	}
	sort.Strings(links)
	return links, nil
}

// ClassNameFromURL derives the class name from a page URL's final path
// segment, capitalized: ".../combat/warrior" → "Warrior". Distinct URLs
// mapping to the same name overwrite each other's metadata.
func ClassNameFromURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	path := strings.TrimSuffix(u.Path, "/")
	seg := path[strings.LastIndex(path, "/")+1:]
	if seg == "" {
		return ""
	}
	seg = strings.ToLower(seg)
	return strings.ToUpper(seg[:1]) + seg[1:]
}
