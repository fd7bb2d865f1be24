package extractor

import (
	"html/template"
	"log/slog"
	"strings"
)

// renderCard produces the bordered link-preview card used by the generic
// extractor and by platform extractors when no embed data is available.
func renderCard(meta Metadata, opts RenderOptions) string {
	data := cardData{
		Meta:  meta,
		Width: opts.Width,
		Dark:  opts.Theme == "dark",
	}
	if data.Width <= 0 {
		data.Width = meta.Width
	}
	if data.Width <= 0 {
		data.Width = 500
	}
	if meta.Provider != nil {
		data.ProviderName = meta.Provider.Name
	}
	if meta.Author != nil {
		data.AuthorName = meta.Author.Name
	}
	data.Favicon = meta.Favicon
	if data.Favicon == "" {
		data.Favicon = origin(meta.URL) + "/favicon.ico"
	}

	var b strings.Builder
	if err := cardTmpl.Execute(&b, data); err != nil {
		slog.Error("card template failed", "url", meta.URL, "error", err)
		return ""
	}
	return b.String()
}

func (g *Generic) RenderHTML(meta Metadata, opts RenderOptions) string {
	return renderCard(meta, opts)
}

type cardData struct {
	Meta         Metadata
	Width        int
	Dark         bool
	ProviderName string
	AuthorName   string
	Favicon      string
}

var cardTmpl = template.Must(template.New("card").Parse(`<div style="max-width:{{.Width}}px;border:1px solid {{if .Dark}}#3a3a3c{{else}}#d0d0d5{{end}};border-radius:8px;overflow:hidden;font-family:-apple-system,'Segoe UI',Roboto,sans-serif;background:{{if .Dark}}#1c1c1e{{else}}#ffffff{{end}};color:{{if .Dark}}#f2f2f7{{else}}#1c1c1e{{end}}">
{{- if .Meta.Image}}
  <a href="{{.Meta.URL}}" target="_blank" rel="noopener noreferrer"><img src="{{.Meta.Image}}" alt="{{.Meta.Title}}" style="width:100%;max-height:260px;object-fit:cover;display:block"></a>
{{- end}}
  <div style="padding:12px 14px">
    <a href="{{.Meta.URL}}" target="_blank" rel="noopener noreferrer" style="color:inherit;text-decoration:none"><strong style="font-size:15px;line-height:1.3">{{.Meta.Title}}</strong></a>
{{- if .Meta.Description}}
    <p style="margin:6px 0 0;font-size:13px;line-height:1.4;color:{{if .Dark}}#aeaeb2{{else}}#6e6e73{{end}};display:-webkit-box;-webkit-line-clamp:3;-webkit-box-orient:vertical;overflow:hidden">{{.Meta.Description}}</p>
{{- end}}
    <div style="margin-top:10px;display:flex;align-items:center;gap:6px;font-size:12px;color:{{if .Dark}}#8e8e93{{else}}#86868b{{end}}">
      <img src="{{.Favicon}}" alt="" width="16" height="16" style="border-radius:3px" onerror="this.style.display='none'">
{{- if .ProviderName}}
      <span>{{.ProviderName}}</span>
{{- end}}
{{- if .AuthorName}}
      <span>&middot; {{.AuthorName}}</span>
{{- end}}
    </div>
  </div>
</div>`))
