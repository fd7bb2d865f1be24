package extractor_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unfurl/internal/extractor"
	"unfurl/internal/fetch"
	"unfurl/internal/platform"
)

func servePage(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGeneric() *extractor.Generic {
	return extractor.NewGeneric(fetch.NewClient(fetch.Options{}))
}

func TestGeneric_OpenGraph(t *testing.T) {
	srv := servePage(t, `<html><head>
		<meta property="og:title" content="An Article">
		<meta property="og:description" content="Something happened.">
		<meta property="og:image" content="https://cdn.example.com/img.png">
		<meta property="og:type" content="article">
		<meta property="og:site_name" content="Example News">
		<title>fallback title</title>
	</head><body></body></html>`)

	meta, err := newGeneric().Extract(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "An Article", meta.Title)
	assert.Equal(t, "Something happened.", meta.Description)
	assert.Equal(t, "https://cdn.example.com/img.png", meta.Image)
	assert.Equal(t, extractor.TypeArticle, meta.Type)
	assert.Equal(t, platform.Generic, meta.Platform)
	assert.Equal(t, srv.URL, meta.URL)
	require.NotNil(t, meta.Provider)
	assert.Equal(t, "Example News", meta.Provider.Name)
}

func TestGeneric_RelativeImageResolved(t *testing.T) {
	srv := servePage(t, `<html><head>
		<meta property="og:title" content="Pics">
		<meta property="og:image" content="/static/cover.jpg">
	</head></html>`)

	meta, err := newGeneric().Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/static/cover.jpg", meta.Image)
}

func TestGeneric_TwitterCardFillsGaps(t *testing.T) {
	srv := servePage(t, `<html><head>
		<meta name="twitter:title" content="Tweet Title">
		<meta name="twitter:description" content="Tweet description.">
		<meta name="twitter:image" content="https://cdn.example.com/tw.png">
	</head></html>`)

	meta, err := newGeneric().Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Tweet Title", meta.Title)
	assert.Equal(t, "Tweet description.", meta.Description)
	assert.Equal(t, "https://cdn.example.com/tw.png", meta.Image)
}

func TestGeneric_OpenGraphWinsOverTwitter(t *testing.T) {
	srv := servePage(t, `<html><head>
		<meta property="og:title" content="OG Title">
		<meta property="og:description" content="OG description.">
		<meta property="og:image" content="https://cdn.example.com/og.png">
		<meta name="twitter:title" content="Tweet Title">
		<meta name="twitter:image" content="https://cdn.example.com/tw.png">
	</head></html>`)

	meta, err := newGeneric().Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "OG Title", meta.Title)
	assert.Equal(t, "https://cdn.example.com/og.png", meta.Image)
}

func TestGeneric_MergeTwitterImagePolicy(t *testing.T) {
	page := `<html><head>
		<meta property="og:title" content="OG Title">
		<meta property="og:description" content="OG description.">
		<meta name="twitter:image" content="https://cdn.example.com/tw.png">
	</head></html>`

	srv := servePage(t, page)

	// Default policy: OpenGraph was complete, so the Twitter image is ignored.
	meta, err := newGeneric().Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, meta.Image)

	// Opt-in partial merge takes the Twitter image.
	g := newGeneric()
	g.MergeTwitterImage = true
	meta, err = g.Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/tw.png", meta.Image)
}

func TestGeneric_OGTypeMapping(t *testing.T) {
	tests := []struct {
		ogType string
		want   extractor.ContentType
	}{
		{"video.movie", extractor.TypeVideo},
		{"video", extractor.TypeVideo},
		{"music.song", extractor.TypeAudio},
		{"article", extractor.TypeArticle},
		{"blog", extractor.TypeArticle},
		{"news", extractor.TypeArticle},
		{"website", extractor.TypeLink},
		{"", extractor.TypeLink},
	}

	for _, tt := range tests {
		t.Run("og:type "+tt.ogType, func(t *testing.T) {
			srv := servePage(t, fmt.Sprintf(`<html><head>
				<meta property="og:title" content="x">
				<meta property="og:type" content="%s">
			</head></html>`, tt.ogType))

			meta, err := newGeneric().Extract(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, meta.Type)
		})
	}
}

func TestGeneric_JSONLDBackstop(t *testing.T) {
	srv := servePage(t, `<html><head>
		<script type="application/ld+json">
		{"@context":"https://schema.org","@type":"NewsArticle","headline":"LD Headline","description":"LD description.","image":{"url":"https://cdn.example.com/ld.png"},"author":{"@type":"Person","name":"Jo Writer"}}
		</script>
	</head></html>`)

	meta, err := newGeneric().Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "LD Headline", meta.Title)
	assert.Equal(t, "LD description.", meta.Description)
	assert.Equal(t, "https://cdn.example.com/ld.png", meta.Image)
	require.NotNil(t, meta.Author)
	assert.Equal(t, "Jo Writer", meta.Author.Name)
}

func TestGeneric_JSONLDGraph(t *testing.T) {
	srv := servePage(t, `<html><head>
		<script type="application/ld+json">
		{"@context":"https://schema.org","@graph":[{"@type":"WebSite","name":"Site"},{"@type":"Article","headline":"Graph Headline","description":"From the graph."}]}
		</script>
	</head></html>`)

	meta, err := newGeneric().Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Site", meta.Title)
	assert.Equal(t, "From the graph.", meta.Description)
}

func TestGeneric_BareHTMLFallback(t *testing.T) {
	srv := servePage(t, `<html><head>
		<title>Plain Old Title</title>
		<meta name="description" content="Plain description.">
	</head></html>`)

	meta, err := newGeneric().Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Plain Old Title", meta.Title)
	assert.Equal(t, "Plain description.", meta.Description)
	assert.Equal(t, extractor.TypeLink, meta.Type)
}

func TestGeneric_DegradeOnUnreachableHost(t *testing.T) {
	g := newGeneric()

	meta, err := g.Extract(context.Background(), "https://definitely-not-a-real-host.invalid/page")
	require.NoError(t, err)
	assert.Equal(t, "definitely-not-a-real-host.invalid", meta.Title)
	assert.Equal(t, extractor.TypeLink, meta.Type)
	assert.Equal(t, platform.Generic, meta.Platform)
}

func TestGeneric_FaviconDiscovery(t *testing.T) {
	srv := servePage(t, `<html><head>
		<meta property="og:title" content="x">
		<link rel="icon" href="/assets/icon.svg">
	</head></html>`)

	meta, err := newGeneric().Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/assets/icon.svg", meta.Favicon)
}

func TestGeneric_FaviconGuess(t *testing.T) {
	srv := servePage(t, `<html><head><meta property="og:title" content="x"></head></html>`)

	meta, err := newGeneric().Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/favicon.ico", meta.Favicon)
}

func TestGeneric_CanHandleEverything(t *testing.T) {
	g := newGeneric()
	assert.True(t, g.CanHandle("https://example.com"))
	assert.True(t, g.CanHandle("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.Equal(t, platform.Generic, g.Name())
}

func TestGeneric_RenderCard(t *testing.T) {
	meta := extractor.Metadata{
		Title:       "Card Title",
		Description: "Card description text.",
		Image:       "https://cdn.example.com/cover.png",
		Type:        extractor.TypeArticle,
		Platform:    platform.Generic,
		URL:         "https://example.com/post",
		Provider:    &extractor.Entity{Name: "Example", URL: "https://example.com"},
		Author:      &extractor.Entity{Name: "Jo Writer"},
	}

	html := newGeneric().RenderHTML(meta, extractor.RenderOptions{Width: 420})

	assert.Contains(t, html, "Card Title")
	assert.Contains(t, html, "Card description text.")
	assert.Contains(t, html, "https://cdn.example.com/cover.png")
	assert.Contains(t, html, "max-width:420px")
	assert.Contains(t, html, "-webkit-line-clamp:3")
	assert.Contains(t, html, "Example")
	assert.Contains(t, html, "Jo Writer")
}

func TestGeneric_RenderCardEscapesMarkup(t *testing.T) {
	meta := extractor.Metadata{
		Title:    `<script>alert("x")</script>`,
		Type:     extractor.TypeLink,
		Platform: platform.Generic,
		URL:      "https://example.com",
	}

	html := newGeneric().RenderHTML(meta, extractor.RenderOptions{})
	assert.NotContains(t, html, "<script>alert")
}
