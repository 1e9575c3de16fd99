package fetch

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/ports"
)

// MaxTextRunes bounds the body text handed to the text scorer.
const MaxTextRunes = 20000

// Extracted holds the page parts used for scoring.
type Extracted struct {
	Title       string
	Description string
	Body        string
	ImageURL    string
}

// Text joins title, description and body for the text scorer.
func (e Extracted) Text() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Title, e.Description, e.Body} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Extract parses page markup. ImageURL is the first img[src] that is not an
// inline data URI, falling back to og:image, resolved against the page URL.
func Extract(page ports.Page) (Extracted, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.HTML))
	if err != nil {
		return Extracted{}, fmt.Errorf("parse html: %w", err)
	}

	out := Extracted{
		Title:       collapse(doc.Find("title").First().Text()),
		Description: metaContent(doc, "description"),
	}

	doc.Find("script, style, noscript").Remove()
	out.Body = domain.Truncate(collapse(doc.Find("body").Text()), MaxTextRunes)

	var src string
	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v := strings.TrimSpace(s.AttrOr("src", ""))
		if v == "" || strings.HasPrefix(strings.ToLower(v), "data:") {
			return true
		}
		src = v
		return false
	})
	if src == "" {
		src = metaContent(doc, "og:image")
	}
	if src != "" {
		out.ImageURL = resolve(page.URL, src)
	}
	return out, nil
}

func metaContent(doc *goquery.Document, name string) string {
	sel := fmt.Sprintf(`meta[name=%q], meta[property=%q]`, name, name)
	return collapse(doc.Find(sel).First().AttrOr("content", ""))
}

func resolve(base, ref string) string {
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil || base == "" {
		return refURL.String()
	}
	return baseURL.ResolveReference(refURL).String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
