package extractor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unfurl/internal/fetch"
	"unfurl/internal/platform"
)

const watchURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestYouTube_CanHandle(t *testing.T) {
	y := NewYouTube(fetch.NewClient(fetch.Options{}))

	assert.True(t, y.CanHandle(watchURL))
	assert.True(t, y.CanHandle("https://youtu.be/dQw4w9WgXcQ"))
	assert.False(t, y.CanHandle("https://vimeo.com/76979871"))
	assert.False(t, y.CanHandle("https://example.com/article"))
	assert.Equal(t, platform.YouTube, y.Name())
}

func TestYouTube_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("url"), "dQw4w9WgXcQ")
		fmt.Fprint(w, `{
			"title": "Never Gonna Give You Up",
			"author_name": "Rick Astley",
			"author_url": "https://www.youtube.com/@RickAstley",
			"provider_name": "YouTube",
			"provider_url": "https://www.youtube.com/",
			"thumbnail_url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
			"width": 480,
			"height": 270
		}`)
	}))
	defer srv.Close()

	y := NewYouTube(fetch.NewClient(fetch.Options{}))
	y.endpoint = srv.URL + "/oembed?format=json&url="

	meta, err := y.Extract(context.Background(), watchURL)
	require.NoError(t, err)

	assert.Equal(t, "Never Gonna Give You Up", meta.Title)
	assert.Equal(t, TypeVideo, meta.Type)
	assert.Equal(t, platform.YouTube, meta.Platform)
	assert.Equal(t, "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg", meta.Image)
	assert.Equal(t, 480, meta.Width)
	assert.Equal(t, 270, meta.Height)
	require.NotNil(t, meta.Author)
	assert.Equal(t, "Rick Astley", meta.Author.Name)
	require.NotNil(t, meta.Provider)
	assert.Equal(t, "YouTube", meta.Provider.Name)
	require.NotNil(t, meta.EmbedData)
	assert.Equal(t, "dQw4w9WgXcQ", meta.EmbedData.VideoID)
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", meta.EmbedData.EmbedURL)
}

func TestYouTube_ExtractDegradesOnOEmbedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	y := NewYouTube(fetch.NewClient(fetch.Options{}))
	y.endpoint = srv.URL + "/oembed?format=json&url="

	meta, err := y.Extract(context.Background(), watchURL)
	require.NoError(t, err)

	assert.Equal(t, "YouTube video", meta.Title)
	assert.Equal(t, TypeVideo, meta.Type)
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg", meta.Image)
	require.NotNil(t, meta.EmbedData)
	assert.Equal(t, "dQw4w9WgXcQ", meta.EmbedData.VideoID)
}

func TestYouTube_ExtractRejectsNonVideoURL(t *testing.T) {
	y := NewYouTube(fetch.NewClient(fetch.Options{}))

	_, err := y.Extract(context.Background(), "https://www.youtube.com/@somechannel")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedURL)

	var exErr *Error
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, platform.YouTube, exErr.Platform)
	assert.Equal(t, "classify", exErr.Stage)
}

func TestYouTube_RenderPlayerDocument(t *testing.T) {
	meta := Metadata{
		Title:    "Some Video",
		Image:    "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
		Type:     TypeVideo,
		Platform: platform.YouTube,
		URL:      watchURL,
		Width:    480,
		Height:   270,
		EmbedData: &EmbedData{
			VideoID:  "dQw4w9WgXcQ",
			EmbedURL: "https://www.youtube.com/embed/dQw4w9WgXcQ",
		},
	}

	y := NewYouTube(fetch.NewClient(fetch.Options{}))
	html := y.RenderHTML(meta, RenderOptions{Controls: true})

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "dQw4w9WgXcQ")
	assert.Contains(t, html, "padding-bottom:56.25%")
	assert.Contains(t, html, "https://www.youtube.com/iframe_api")
	assert.Contains(t, html, "postMessage")
	// Host command surface
	for _, cmd := range []string{"'play'", "'pause'", "'stop'", "'seek'", "'setVolume'", "'getCurrentTime'", "'getDuration'", "'getState'"} {
		assert.Contains(t, html, cmd)
	}
	// Lifecycle states
	for _, state := range []string{"'uninitialized'", "'loading-api'", "'player-created'", "'ready'", "'playing'", "'paused'", "'ended'", "'error'"} {
		assert.Contains(t, html, state)
	}
}

func TestYouTube_RenderFallsBackToCard(t *testing.T) {
	meta := Metadata{
		Title:    "Just a link",
		Type:     TypeVideo,
		Platform: platform.YouTube,
		URL:      watchURL,
	}

	y := NewYouTube(fetch.NewClient(fetch.Options{}))
	html := y.RenderHTML(meta, RenderOptions{})

	assert.NotContains(t, html, "iframe_api")
	assert.Contains(t, html, "Just a link")
}

func TestEmbedSize(t *testing.T) {
	meta := Metadata{Width: 640, Height: 360}

	w, h := embedSize(meta, RenderOptions{Width: 800, Height: 450})
	assert.Equal(t, 800, w)
	assert.Equal(t, 450, h)

	w, h = embedSize(meta, RenderOptions{})
	assert.Equal(t, 640, w)
	assert.Equal(t, 360, h)

	w, h = embedSize(Metadata{}, RenderOptions{})
	assert.Equal(t, 500, w)
	assert.Equal(t, 300, h)
}
