package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/ppalone/ytsearch"
	"github.com/rs/zerolog"

	"quaver/internal/session"
	"quaver/pkg/retrylimit"
)

var (
	ErrNoResults = errors.New("no results for query")
	ErrNoAudio   = errors.New("no audio formats available")
)

const resolveAttempts = 3

// Resolver turns URLs and free-text queries into playable tracks. It does
// network I/O and must never be called under a session lock; callers
// resolve first and take the lock only to enqueue the finished track.
type Resolver struct {
	yt      *youtube.Client
	search  *ytsearch.Client
	limiter *retrylimit.AdaptiveLimiter
	log     zerolog.Logger
}

func New(proxyURL string, log zerolog.Logger) *Resolver {
	httpClient := newHTTPClient(proxyURL, log)
	return &Resolver{
		yt:      &youtube.Client{HTTPClient: httpClient},
		search:  ytsearch.NewClient(httpClient),
		limiter: retrylimit.NewAdaptiveLimiter(5, 1, 10, 1, 0.5),
		log:     log.With().Str("component", "resolver").Logger(),
	}
}

// ResolveURL resolves a page URL into a track carrying a direct audio
// stream URL. A failed resolution returns an error and no track; nothing
// half-resolved ever reaches a queue.
func (r *Resolver) ResolveURL(ctx context.Context, rawURL string) (session.Track, error) {
	var video *youtube.Video
	err := retrylimit.WithRetryMax(ctx, func() error {
		var err error
		video, err = r.yt.GetVideoContext(ctx, rawURL)
		return err
	}, r.limiter, resolveAttempts)
	if err != nil {
		return session.Track{}, fmt.Errorf("resolve %q: %w", rawURL, err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return session.Track{}, fmt.Errorf("resolve %q: %w", rawURL, ErrNoAudio)
	}

	var streamURL string
	err = retrylimit.WithRetryMax(ctx, func() error {
		var err error
		streamURL, err = r.yt.GetStreamURLContext(ctx, video, &formats[0])
		return err
	}, r.limiter, resolveAttempts)
	if err != nil {
		return session.Track{}, fmt.Errorf("stream url for %q: %w", video.ID, err)
	}

	track := session.Track{
		ID:        video.ID,
		Title:     video.Title,
		Artist:    video.Author,
		Duration:  video.Duration,
		SourceURL: "https://www.youtube.com/watch?v=" + video.ID,
		StreamURL: streamURL,
	}
	if len(video.Thumbnails) > 0 {
		track.Thumbnail = video.Thumbnails[0].URL
	}

	r.log.Debug().Str("id", track.ID).Str("title", track.Title).Msg("track resolved")
	return track, nil
}

// ResolveSearch runs a search and resolves the first hit like a URL.
func (r *Resolver) ResolveSearch(ctx context.Context, query string) (session.Track, error) {
	res, err := r.search.Search(ctx, query)
	if err != nil {
		return session.Track{}, fmt.Errorf("search %q: %w", query, err)
	}
	if len(res.Results) == 0 {
		return session.Track{}, fmt.Errorf("search %q: %w", query, ErrNoResults)
	}

	first := res.Results[0]
	r.log.Debug().Str("query", query).Str("id", first.VideoID).Msg("search hit")
	return r.ResolveURL(ctx, "https://www.youtube.com/watch?v="+first.VideoID)
}

// IsURL reports whether the input should be treated as a direct link
// rather than a search query.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
