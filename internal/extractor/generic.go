package extractor

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"unfurl/internal/fetch"
	"unfurl/internal/platform"
)

// Generic is the fallback extractor. It fetches the page and probes
// OpenGraph, Twitter Card, bare HTML and JSON-LD metadata in that order.
// It never returns an error: any fetch or parse failure degrades to a
// minimal record derived from the URL.
type Generic struct {
	client *fetch.Client

	// MergeTwitterImage lets Twitter Card supply the image even when
	// OpenGraph produced a title. Off by default, matching the
	// gaps-only merge policy.
	MergeTwitterImage bool
}

func NewGeneric(client *fetch.Client) *Generic {
	return &Generic{client: client}
}

func (g *Generic) Name() platform.Platform { return platform.Generic }

func (g *Generic) CanHandle(string) bool { return true }

func (g *Generic) Extract(ctx context.Context, rawURL string) (Metadata, error) {
	meta := Minimal(rawURL)

	body, err := g.client.Page(ctx, rawURL)
	if err != nil {
		slog.WarnContext(ctx, "page fetch failed, degrading", "url", rawURL, "error", err)
		return meta, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		slog.WarnContext(ctx, "html parse failed, degrading", "url", rawURL, "error", err)
		return meta, nil
	}

	g.populate(&meta, doc, rawURL)
	return meta, nil
}

// Minimal is the degrade-path record: domain-derived title, link type.
func Minimal(rawURL string) Metadata {
	title := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		title = strings.TrimPrefix(u.Host, "www.")
	}
	return Metadata{
		Title:    title,
		Type:     TypeLink,
		Platform: platform.Generic,
		URL:      rawURL,
	}
}

func (g *Generic) populate(meta *Metadata, doc *goquery.Document, pageURL string) {
	og := openGraph(doc)
	tw := twitterCard(doc)

	meta.Title = firstNonEmpty(og.title, doc.Find("title").First().Text())
	meta.Description = firstNonEmpty(og.description, metaContent(doc, `meta[name="description"]`))

	// Twitter Card fills gaps only when OpenGraph came up short.
	mergedTwitter := false
	if meta.Title == "" || meta.Description == "" {
		meta.Title = firstNonEmpty(meta.Title, tw.title)
		meta.Description = firstNonEmpty(meta.Description, tw.description)
		mergedTwitter = true
	}

	meta.Image = og.image
	if meta.Image == "" && (mergedTwitter || g.MergeTwitterImage) {
		meta.Image = tw.image
	}

	// JSON-LD backstop for publishers that skip social meta tags.
	if meta.Title == "" || meta.Description == "" || meta.Image == "" {
		ld := jsonLD(doc)
		meta.Title = firstNonEmpty(meta.Title, ld.title)
		meta.Description = firstNonEmpty(meta.Description, ld.description)
		meta.Image = firstNonEmpty(meta.Image, ld.image)
		if meta.Author == nil && ld.author != "" {
			meta.Author = &Entity{Name: ld.author}
		}
	}

	meta.Title = strings.TrimSpace(meta.Title)
	meta.Description = strings.TrimSpace(meta.Description)
	if meta.Title == "" {
		meta.Title = Minimal(pageURL).Title
	}

	meta.Type = mapOGType(og.ogType)
	meta.Width, meta.Height = og.width, og.height
	meta.Image = resolveRef(pageURL, meta.Image)
	meta.Favicon = favicon(doc, pageURL)

	if meta.Author == nil {
		if name := firstNonEmpty(metaContent(doc, `meta[name="author"]`), metaContent(doc, `meta[property="article:author"]`)); name != "" {
			meta.Author = &Entity{Name: name}
		}
	}

	site := firstNonEmpty(og.siteName, metaContent(doc, `meta[name="twitter:site"]`))
	if site == "" {
		site = Minimal(pageURL).Title
	}
	meta.Provider = &Entity{Name: site, URL: origin(pageURL)}
}

type ogTags struct {
	title, description, image, ogType, siteName string
	width, height                               int
}

func openGraph(doc *goquery.Document) ogTags {
	t := ogTags{
		title:       metaContent(doc, `meta[property="og:title"]`),
		description: metaContent(doc, `meta[property="og:description"]`),
		image:       firstNonEmpty(metaContent(doc, `meta[property="og:image:secure_url"]`), metaContent(doc, `meta[property="og:image"]`)),
		ogType:      metaContent(doc, `meta[property="og:type"]`),
		siteName:    metaContent(doc, `meta[property="og:site_name"]`),
	}
	t.width, _ = strconv.Atoi(firstNonEmpty(metaContent(doc, `meta[property="og:video:width"]`), metaContent(doc, `meta[property="og:image:width"]`)))
	t.height, _ = strconv.Atoi(firstNonEmpty(metaContent(doc, `meta[property="og:video:height"]`), metaContent(doc, `meta[property="og:image:height"]`)))
	return t
}

type twTags struct {
	title, description, image string
}

func twitterCard(doc *goquery.Document) twTags {
	// Publishers use name= and property= interchangeably for twitter:* keys.
	get := func(key string) string {
		return firstNonEmpty(
			metaContent(doc, `meta[name="twitter:`+key+`"]`),
			metaContent(doc, `meta[property="twitter:`+key+`"]`),
		)
	}
	return twTags{
		title:       get("title"),
		description: get("description"),
		image:       get("image"),
	}
}

type ldTags struct {
	title, description, image, author string
}

func jsonLD(doc *goquery.Document) ldTags {
	var out ldTags
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := s.Text()
		if !gjson.Valid(raw) {
			return true
		}
		nodes := flattenLD(gjson.Parse(raw))
		for _, node := range nodes {
			out.title = firstNonEmpty(out.title, node.Get("headline").String(), node.Get("name").String())
			out.description = firstNonEmpty(out.description, node.Get("description").String())
			out.image = firstNonEmpty(out.image,
				node.Get("image.url").String(),
				node.Get("image.0.url").String(),
				node.Get("image.0").String(),
				node.Get("image").String(),
			)
			out.author = firstNonEmpty(out.author,
				node.Get("author.name").String(),
				node.Get("author.0.name").String(),
			)
		}
		return out.title == "" || out.description == ""
	})
	return out
}

// flattenLD unwraps top-level arrays and @graph containers into a flat list
// of candidate nodes.
func flattenLD(root gjson.Result) []gjson.Result {
	var nodes []gjson.Result
	add := func(r gjson.Result) {
		if graph := r.Get("@graph"); graph.IsArray() {
			nodes = append(nodes, graph.Array()...)
			return
		}
		nodes = append(nodes, r)
	}
	if root.IsArray() {
		for _, r := range root.Array() {
			add(r)
		}
		return nodes
	}
	add(root)
	return nodes
}

func mapOGType(ogType string) ContentType {
	t := strings.ToLower(strings.TrimSpace(ogType))
	switch {
	case strings.HasPrefix(t, "video"):
		return TypeVideo
	case strings.HasPrefix(t, "music"):
		return TypeAudio
	case t == "article" || t == "blog" || t == "news":
		return TypeArticle
	default:
		return TypeLink
	}
}

func favicon(doc *goquery.Document, pageURL string) string {
	for _, sel := range []string{`link[rel="icon"]`, `link[rel="shortcut icon"]`, `link[rel="apple-touch-icon"]`} {
		if href, ok := doc.Find(sel).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			return resolveRef(pageURL, strings.TrimSpace(href))
		}
	}
	return origin(pageURL) + "/favicon.ico"
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

// resolveRef rewrites a possibly relative reference against the page URL.
func resolveRef(pageURL, ref string) string {
	if ref == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ref
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(rel).String()
}

func origin(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
