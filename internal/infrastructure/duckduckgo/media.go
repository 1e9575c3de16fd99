package duckduckgo

import (
	"context"
	"net/url"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/provider"
)

// ImageSearch queries the i.js endpoint.
type ImageSearch struct {
	c *Client
}

var _ provider.Provider = (*ImageSearch)(nil)

// Name implements provider.Provider.
func (s *ImageSearch) Name() string { return provider.DDGImages }

type imageResponse struct {
	Results []struct {
		Title     string `json:"title"`
		Image     string `json:"image"`
		Thumbnail string `json:"thumbnail"`
		URL       string `json:"url"`
		Source    string `json:"source"`
	} `json:"results"`
}

// Search returns image results. The item URL is the image itself; the page
// hosting it is kept as the description.
func (s *ImageSearch) Search(ctx context.Context, req provider.Request) ([]domain.RawResult, error) {
	vqd, err := s.c.token(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	var payload imageResponse
	params := url.Values{
		"l":   {"us-en"},
		"o":   {"json"},
		"q":   {req.Query},
		"vqd": {vqd},
		"f":   {",,,,,"},
		"p":   {"1"},
	}
	if err := s.c.getJSON(ctx, s.c.baseURL+"/i.js", params, &payload); err != nil {
		return nil, err
	}

	results := make([]domain.RawResult, 0, limit(len(payload.Results), req.MaxResults))
	for _, r := range payload.Results {
		if len(results) == cap(results) {
			break
		}
		link := r.Image
		if link == "" {
			link = r.URL
		}
		if link == "" {
			continue
		}
		img := r.Image
		if img == "" {
			img = r.Thumbnail
		}
		results = append(results, domain.RawResult{
			URL:         link,
			Title:       r.Title,
			Description: r.URL,
			SourceName:  sourceName,
			ImageURL:    img,
			MediaType:   domain.MediaImage,
			Provider:    provider.DDGImages,
		})
	}
	return results, nil
}

// VideoSearch queries the v.js endpoint.
type VideoSearch struct {
	c *Client
}

var _ provider.Provider = (*VideoSearch)(nil)

// Name implements provider.Provider.
func (s *VideoSearch) Name() string { return provider.DDGVideos }

type videoResponse struct {
	Results []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		Publisher   string `json:"publisher"`
		Images      struct {
			Large  string `json:"large"`
			Medium string `json:"medium"`
			Small  string `json:"small"`
		} `json:"images"`
	} `json:"results"`
}

// Search returns video results with their thumbnail as ImageURL.
func (s *VideoSearch) Search(ctx context.Context, req provider.Request) ([]domain.RawResult, error) {
	vqd, err := s.c.token(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	var payload videoResponse
	params := url.Values{
		"l":   {"us-en"},
		"o":   {"json"},
		"q":   {req.Query},
		"vqd": {vqd},
		"f":   {",,,"},
		"p":   {"1"},
	}
	if err := s.c.getJSON(ctx, s.c.baseURL+"/v.js", params, &payload); err != nil {
		return nil, err
	}

	results := make([]domain.RawResult, 0, limit(len(payload.Results), req.MaxResults))
	for _, r := range payload.Results {
		if len(results) == cap(results) {
			break
		}
		if r.Content == "" {
			continue
		}
		thumb := r.Images.Medium
		if thumb == "" {
			thumb = r.Images.Large
		}
		if thumb == "" {
			thumb = r.Images.Small
		}
		source := r.Publisher
		if source == "" {
			source = sourceName
		}
		results = append(results, domain.RawResult{
			URL:         r.Content,
			Title:       r.Title,
			Description: r.Description,
			SourceName:  source,
			ImageURL:    thumb,
			MediaType:   domain.MediaVideo,
			Provider:    provider.DDGVideos,
		})
	}
	return results, nil
}
