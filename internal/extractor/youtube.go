package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"unfurl/internal/fetch"
	"unfurl/internal/platform"
)

const (
	youtubeOEmbedEndpoint = "https://www.youtube.com/oembed?format=json&url="
	youtubeEmbedBase      = "https://www.youtube.com/embed/"
	youtubeWatchBase      = "https://www.youtube.com/watch?v="
	// Fallback thumbnails use the hqdefault tier, which exists for every
	// video. Higher tiers 404 for older uploads.
	youtubeThumbFormat = "https://img.youtube.com/vi/%s/hqdefault.jpg"
)

// YouTube extracts video metadata via the public oEmbed endpoint and renders
// an interactive player document bound to the IFrame Player API.
type YouTube struct {
	client *fetch.Client

	// endpoint is the oEmbed endpoint prefix; tests point it at a fake.
	endpoint string
}

func NewYouTube(client *fetch.Client) *YouTube {
	return &YouTube{client: client, endpoint: youtubeOEmbedEndpoint}
}

func (y *YouTube) Name() platform.Platform { return platform.YouTube }

func (y *YouTube) CanHandle(rawURL string) bool {
	return platform.Detect(rawURL) == platform.YouTube
}

// oEmbedResponse is the subset of the oEmbed document the extractors map.
type oEmbedResponse struct {
	Title           string `json:"title"`
	AuthorName      string `json:"author_name"`
	AuthorURL       string `json:"author_url"`
	ProviderName    string `json:"provider_name"`
	ProviderURL     string `json:"provider_url"`
	ThumbnailURL    string `json:"thumbnail_url"`
	ThumbnailWidth  int    `json:"thumbnail_width"`
	ThumbnailHeight int    `json:"thumbnail_height"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
}

func (y *YouTube) Extract(ctx context.Context, rawURL string) (Metadata, error) {
	id, ok := platform.VideoID(platform.YouTube, rawURL)
	if !ok {
		return Metadata{}, &Error{Platform: platform.YouTube, Stage: "classify", Err: ErrUnsupportedURL}
	}

	meta := Metadata{
		Type:     TypeVideo,
		Platform: platform.YouTube,
		URL:      rawURL,
		Provider: &Entity{Name: "YouTube", URL: "https://www.youtube.com"},
		EmbedData: &EmbedData{
			VideoID:  id,
			EmbedURL: youtubeEmbedBase + id,
		},
	}

	body, err := y.client.JSON(ctx, y.endpoint+url.QueryEscape(youtubeWatchBase+id))
	if err != nil {
		// oEmbed outage degrades to a deterministic thumbnail record.
		slog.WarnContext(ctx, "youtube oembed failed, degrading", "url", rawURL, "error", err)
		meta.Title = "YouTube video"
		meta.Description = "Watch this video on YouTube"
		meta.Image = fmt.Sprintf(youtubeThumbFormat, id)
		return meta, nil
	}

	var oe oEmbedResponse
	if err := json.Unmarshal(body, &oe); err != nil {
		slog.WarnContext(ctx, "youtube oembed unmarshal failed, degrading", "url", rawURL, "error", err)
		meta.Title = "YouTube video"
		meta.Image = fmt.Sprintf(youtubeThumbFormat, id)
		return meta, nil
	}

	meta.Title = firstNonEmpty(oe.Title, "YouTube video")
	meta.Image = firstNonEmpty(oe.ThumbnailURL, fmt.Sprintf(youtubeThumbFormat, id))
	meta.Width, meta.Height = oe.Width, oe.Height
	if oe.AuthorName != "" {
		meta.Author = &Entity{Name: oe.AuthorName, URL: oe.AuthorURL}
	}
	if oe.ProviderName != "" {
		meta.Provider = &Entity{Name: oe.ProviderName, URL: oe.ProviderURL}
	}
	return meta, nil
}

// RenderHTML emits a self-contained player document when embed data is
// present, otherwise the link-preview card.
func (y *YouTube) RenderHTML(meta Metadata, opts RenderOptions) string {
	if meta.EmbedData == nil {
		return renderCard(meta, opts)
	}

	width, height := embedSize(meta, opts)
	data := playerData{
		VideoID:    meta.EmbedData.VideoID,
		Title:      meta.Title,
		Thumbnail:  meta.Image,
		Width:      width,
		PaddingPct: paddingPct(width, height),
		Autoplay:   opts.Autoplay,
		Controls:   boolToInt(opts.Controls),
		Dark:       opts.Theme == "dark",
	}

	var b strings.Builder
	if err := youtubePlayerTmpl.Execute(&b, data); err != nil {
		slog.Error("player template failed", "videoId", data.VideoID, "error", err)
		return renderCard(meta, opts)
	}
	return b.String()
}

// embedSize resolves dimensions: explicit option, then metadata, then the
// 500x300 default. Width and height fall back independently.
func embedSize(meta Metadata, opts RenderOptions) (int, int) {
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = meta.Width
	}
	if height <= 0 {
		height = meta.Height
	}
	if width <= 0 {
		width = 500
	}
	if height <= 0 {
		height = 300
	}
	return width, height
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// paddingPct converts dimensions into the padding-bottom percentage that
// preserves the aspect ratio in a responsive wrapper.
func paddingPct(width, height int) string {
	return fmt.Sprintf("%.2f", float64(height)/float64(width)*100)
}

type playerData struct {
	VideoID    string
	Title      string
	Thumbnail  string
	Width      int
	PaddingPct string
	Autoplay   bool
	Controls   int
	Dark       bool
}

// The generated document implements the player lifecycle
// uninitialized -> loading-api -> player-created -> ready -> playing/paused
// -> ended, with error reachable from any non-terminal state. Lifecycle
// events and command replies are forwarded to the embedding host via
// postMessage; host commands are no-ops until the player exists.
var youtubePlayerTmpl = template.Must(template.New("youtube").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
  body{margin:0;background:{{if .Dark}}#000{{else}}#fff{{end}}}
  .wrap{max-width:{{.Width}}px;margin:0 auto}
  .frame{position:relative;width:100%;padding-bottom:{{.PaddingPct}}%;background:#000;overflow:hidden;border-radius:8px}
  .frame iframe,.frame img{position:absolute;top:0;left:0;width:100%;height:100%;border:0}
  .frame img{object-fit:cover}
  .play{position:absolute;top:50%;left:50%;transform:translate(-50%,-50%);width:68px;height:48px;border:0;border-radius:10px;background:rgba(20,20,20,.8);cursor:pointer}
  .play:hover{background:#f00}
  .play::after{content:'';position:absolute;top:50%;left:50%;transform:translate(-40%,-50%);border-style:solid;border-width:10px 0 10px 17px;border-color:transparent transparent transparent #fff}
</style>
</head>
<body>
<div class="wrap">
  <div class="frame" id="shell">
{{- if .Thumbnail}}
    <img src="{{.Thumbnail}}" alt="{{.Title}}">
{{- end}}
    <button class="play" id="play" aria-label="Play"></button>
    <div id="player"></div>
  </div>
</div>
<script>
(function(){
  var videoId = {{.VideoID}};
  var state = 'uninitialized';
  var player = null;

  function post(event, extra) {
    if (window.parent === window) return;
    var msg = {source: 'unfurl-player', videoId: videoId, event: event, state: state};
    if (extra) for (var k in extra) msg[k] = extra[k];
    window.parent.postMessage(msg, '*');
  }

  function setState(next) {
    state = next;
    post('statechange');
  }

  function createPlayer() {
    setState('player-created');
    player = new YT.Player('player', {
      videoId: videoId,
      playerVars: {autoplay: {{if .Autoplay}}1{{else}}0{{end}}, controls: {{.Controls}}, rel: 0},
      events: {
        onReady: function() {
          setState('ready');
          post('ready');
          {{if .Autoplay}}player.playVideo();{{end}}
        },
        onStateChange: function(e) {
          if (e.data === YT.PlayerState.PLAYING) setState('playing');
          else if (e.data === YT.PlayerState.PAUSED) setState('paused');
          else if (e.data === YT.PlayerState.ENDED && state === 'playing') setState('ended');
        },
        onError: function(e) {
          if (state !== 'ended') setState('error');
          post('error', {code: e.data});
        }
      }
    });
  }

  function start() {
    if (state !== 'uninitialized') return;
    setState('loading-api');
    var btn = document.getElementById('play');
    if (btn) btn.style.display = 'none';
    if (window.YT && window.YT.Player) { createPlayer(); return; }
    window.onYouTubeIframeAPIReady = createPlayer;
    var tag = document.createElement('script');
    tag.src = 'https://www.youtube.com/iframe_api';
    tag.onerror = function() { setState('error'); post('error', {code: 'api-load'}); };
    document.head.appendChild(tag);
  }

  document.getElementById('play').addEventListener('click', start);
  {{if .Autoplay}}start();{{end}}

  window.addEventListener('message', function(e) {
    var m = e.data || {};
    if (m.target !== 'unfurl-player') return;
    if (m.command === 'getState') { post('state'); return; }
    if (!player || !player.playVideo) return;
    switch (m.command) {
      case 'play': player.playVideo(); break;
      case 'pause': player.pauseVideo(); break;
      case 'stop': player.stopVideo(); setState('player-created'); break;
      case 'seek': player.seekTo(Number(m.seconds) || 0, true); break;
      case 'setVolume': player.setVolume(Number(m.level) || 0); break;
      case 'getCurrentTime': post('currentTime', {value: player.getCurrentTime()}); break;
      case 'getDuration': post('duration', {value: player.getDuration()}); break;
    }
  });
})();
</script>
</body>
</html>`))
