package extractor

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"unfurl/internal/fetch"
	"unfurl/internal/platform"
)

const (
	vimeoOEmbedEndpoint = "https://vimeo.com/api/oembed.json?url="
	vimeoEmbedBase      = "https://player.vimeo.com/video/"
	vimeoVideoBase      = "https://vimeo.com/"
)

// Vimeo mirrors the YouTube strategy against the Vimeo oEmbed endpoint.
// Vimeo has no deterministic thumbnail URL scheme, so the degrade record
// carries no image.
type Vimeo struct {
	client *fetch.Client

	endpoint string
}

func NewVimeo(client *fetch.Client) *Vimeo {
	return &Vimeo{client: client, endpoint: vimeoOEmbedEndpoint}
}

func (v *Vimeo) Name() platform.Platform { return platform.Vimeo }

func (v *Vimeo) CanHandle(rawURL string) bool {
	return platform.Detect(rawURL) == platform.Vimeo
}

func (v *Vimeo) Extract(ctx context.Context, rawURL string) (Metadata, error) {
	id, ok := platform.VideoID(platform.Vimeo, rawURL)
	if !ok {
		return Metadata{}, &Error{Platform: platform.Vimeo, Stage: "classify", Err: ErrUnsupportedURL}
	}

	meta := Metadata{
		Type:     TypeVideo,
		Platform: platform.Vimeo,
		URL:      rawURL,
		Provider: &Entity{Name: "Vimeo", URL: "https://vimeo.com"},
		EmbedData: &EmbedData{
			VideoID:  id,
			EmbedURL: vimeoEmbedBase + id,
		},
	}

	body, err := v.client.JSON(ctx, v.endpoint+url.QueryEscape(vimeoVideoBase+id))
	if err != nil {
		slog.WarnContext(ctx, "vimeo oembed failed, degrading", "url", rawURL, "error", err)
		meta.Title = "Vimeo video"
		meta.Description = "Watch this video on Vimeo"
		return meta, nil
	}

	var oe oEmbedResponse
	if err := json.Unmarshal(body, &oe); err != nil {
		slog.WarnContext(ctx, "vimeo oembed unmarshal failed, degrading", "url", rawURL, "error", err)
		meta.Title = "Vimeo video"
		return meta, nil
	}

	meta.Title = firstNonEmpty(oe.Title, "Vimeo video")
	meta.Image = oe.ThumbnailURL
	meta.Width, meta.Height = oe.Width, oe.Height
	if oe.AuthorName != "" {
		meta.Author = &Entity{Name: oe.AuthorName, URL: oe.AuthorURL}
	}
	if oe.ProviderName != "" {
		meta.Provider = &Entity{Name: oe.ProviderName, URL: oe.ProviderURL}
	}
	return meta, nil
}

func (v *Vimeo) RenderHTML(meta Metadata, opts RenderOptions) string {
	if meta.EmbedData == nil {
		return renderCard(meta, opts)
	}

	width, height := embedSize(meta, opts)
	params := url.Values{}
	if opts.Autoplay {
		params.Set("autoplay", "1")
	}
	if !opts.Controls {
		params.Set("controls", "0")
	}
	src := meta.EmbedData.EmbedURL
	if encoded := params.Encode(); encoded != "" {
		src += "?" + encoded
	}

	data := vimeoFrameData{
		Title:      meta.Title,
		Src:        src,
		Width:      width,
		PaddingPct: paddingPct(width, height),
		Dark:       opts.Theme == "dark",
	}

	var b strings.Builder
	if err := vimeoFrameTmpl.Execute(&b, data); err != nil {
		slog.Error("vimeo template failed", "videoId", meta.EmbedData.VideoID, "error", err)
		return renderCard(meta, opts)
	}
	return b.String()
}

type vimeoFrameData struct {
	Title      string
	Src        string
	Width      int
	PaddingPct string
	Dark       bool
}

var vimeoFrameTmpl = template.Must(template.New("vimeo").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
  body{margin:0;background:{{if .Dark}}#000{{else}}#fff{{end}}}
  .wrap{max-width:{{.Width}}px;margin:0 auto}
  .frame{position:relative;width:100%;padding-bottom:{{.PaddingPct}}%;background:#000;overflow:hidden;border-radius:8px}
  .frame iframe{position:absolute;top:0;left:0;width:100%;height:100%;border:0}
</style>
</head>
<body>
<div class="wrap">
  <div class="frame">
    <iframe src="{{.Src}}" title="{{.Title}}" allow="autoplay; fullscreen; picture-in-picture" allowfullscreen></iframe>
  </div>
</div>
</body>
</html>`))
