package duckduckgo

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/provider"
)

// TextSearch scrapes the HTML-only results page.
type TextSearch struct {
	c *Client
}

var _ provider.Provider = (*TextSearch)(nil)

// Name implements provider.Provider.
func (s *TextSearch) Name() string { return provider.DDGText }

// Search returns web results parsed from the markup.
func (s *TextSearch) Search(ctx context.Context, req provider.Request) ([]domain.RawResult, error) {
	body, err := s.c.get(ctx, s.c.htmlURL, url.Values{"q": {req.Query}})
	if err != nil {
		return nil, err
	}
	results, err := parseTextResults(body, req.MaxResults)
	if err != nil {
		return nil, err
	}
	s.c.debug("text results parsed", "count", len(results))
	return results, nil
}

func parseTextResults(body []byte, max int) ([]domain.RawResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var results []domain.RawResult
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if max > 0 && len(results) >= max {
			return false
		}
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a").First()
		href := resultLink(link.AttrOr("href", ""))
		if href == "" {
			return true
		}
		results = append(results, domain.RawResult{
			URL:         href,
			Title:       strings.TrimSpace(link.Text()),
			Description: strings.Join(strings.Fields(s.Find(".result__snippet").First().Text()), " "),
			SourceName:  sourceName,
			MediaType:   domain.MediaText,
			Provider:    provider.DDGText,
		})
		return true
	})
	return results, nil
}

// resultLink unwraps the /l/?uddg= redirect used by the HTML endpoint.
func resultLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}
