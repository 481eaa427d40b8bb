// Package page turns fetched HTML bytes into structured documents: a
// title, a map of division names to their text, and the absolute links
// discovered on the page. Documents are transient; only the postings
// derived from them outlive a worker iteration.
package page

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"termcrawl/pkg/errors"
)

// Divisions extracted per document, in scoring-weight order.
var divisionSelectors = []string{"title", "h1", "h2", "p"}

// Document is the parsed form of one fetched location.
type Document struct {
	Location  string
	Title     string
	Divisions map[string]string
	Links     []string
}

// Parse builds a Document from raw HTML. Relative links are resolved
// against location; non-http(s) and intra-page links are discarded.
func Parse(location string, body []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrParse, err)
	}
	base, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid location %q: %v", errors.ErrParse, location, err)
	}

	divisions := make(map[string]string, len(divisionSelectors))
	for _, sel := range divisionSelectors {
		var parts []string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		if len(parts) > 0 {
			divisions[sel] = strings.Join(parts, " ")
		}
	}

	var links []string
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(u)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		abs.Fragment = ""
		link := abs.String()
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})

	return &Document{
		Location:  location,
		Title:     strings.TrimSpace(doc.Find("title").First().Text()),
		Divisions: divisions,
		Links:     links,
	}, nil
}
