package embed

import "unfurl/internal/extractor"

// OEmbed is the response envelope defined by the oEmbed 1.0 specification.
type OEmbed struct {
	Type            string `json:"type"`
	Version         string `json:"version"`
	Title           string `json:"title,omitempty"`
	AuthorName      string `json:"author_name,omitempty"`
	AuthorURL       string `json:"author_url,omitempty"`
	ProviderName    string `json:"provider_name,omitempty"`
	ProviderURL     string `json:"provider_url,omitempty"`
	CacheAge        int    `json:"cache_age"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	ThumbnailWidth  int    `json:"thumbnail_width,omitempty"`
	ThumbnailHeight int    `json:"thumbnail_height,omitempty"`
	HTML            string `json:"html"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
}

// oembedType maps the internal content type onto the oEmbed type set.
// The mapping is total; anything unmapped is a link.
func oembedType(t extractor.ContentType) string {
	switch t {
	case extractor.TypeVideo:
		return "video"
	case extractor.TypeImage:
		return "photo"
	case extractor.TypeArticle, extractor.TypeAudio:
		return "rich"
	default:
		return "link"
	}
}

func (s *Service) envelope(meta extractor.Metadata, html string, width, height int) OEmbed {
	oe := OEmbed{
		Type:     oembedType(meta.Type),
		Version:  "1.0",
		Title:    meta.Title,
		CacheAge: s.cacheMaxAge,
		HTML:     html,
		Width:    width,
		Height:   height,
	}
	if meta.Author != nil {
		oe.AuthorName = meta.Author.Name
		oe.AuthorURL = meta.Author.URL
	}
	if meta.Provider != nil {
		oe.ProviderName = meta.Provider.Name
		oe.ProviderURL = meta.Provider.URL
	}
	// Thumbnails are meaningful only for visual content.
	if meta.Type == extractor.TypeVideo || meta.Type == extractor.TypeImage {
		oe.ThumbnailURL = meta.Image
		if meta.Image != "" && meta.Width > 0 && meta.Height > 0 {
			oe.ThumbnailWidth = meta.Width
			oe.ThumbnailHeight = meta.Height
		}
	}
	return oe
}
