package artwork

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Last.fm image sizes in descending preference; the first non-empty
// URL wins.
var lastfmImageSizes = []string{"extralarge", "large", "medium", "small"}

// LastFMProvider fetches album artwork from the Last.fm API. Last.fm
// only exposes images on the album endpoint, so when the album is
// unknown the track is looked up first to learn the album, then the
// album is fetched for its art.
type LastFMProvider struct {
	gate     *gate
	client   *http.Client
	endpoint string
	apiKey   string
	logger   zerolog.Logger
}

// NewLastFMProvider returns ErrMissingCredentials when no API key is
// configured; callers should treat that as the provider being disabled
// for the session.
func NewLastFMProvider(apiKey string, logger zerolog.Logger) (*LastFMProvider, error) {
	if apiKey == "" {
		return nil, ErrMissingCredentials
	}
	return &LastFMProvider{
		gate: newGate(),
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		endpoint: "https://ws.audioscrobbler.com/2.0/",
		apiKey:   apiKey,
		logger:   logger.With().Str("provider", "lastfm").Logger(),
	}, nil
}

func (p *LastFMProvider) Name() string { return "lastfm" }

type lastfmImage struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

type lastfmAlbumResponse struct {
	Album *struct {
		Name  string        `json:"name"`
		Image []lastfmImage `json:"image"`
	} `json:"album"`
}

type lastfmTrackResponse struct {
	Track *struct {
		Album *struct {
			Title string `json:"title"`
		} `json:"album"`
	} `json:"track"`
}

func (p *LastFMProvider) GetArt(ctx context.Context, artist, track, album string) *ArtInfo {
	if artist == "" || track == "" {
		return nil
	}

	return p.gate.lookup(ctx, cacheKey(artist, track, album), func(ctx context.Context) *ArtInfo {
		resolved := album
		if resolved == "" {
			resolved = p.albumForTrack(ctx, artist, track)
			if resolved == "" {
				return nil
			}
		}
		return p.albumInfo(ctx, artist, resolved)
	})
}

// albumForTrack resolves the album a track belongs to via track.getInfo.
func (p *LastFMProvider) albumForTrack(ctx context.Context, artist, track string) string {
	body := p.call(ctx, url.Values{
		"method": {"track.getInfo"},
		"artist": {artist},
		"track":  {track},
	})
	if body == nil {
		return ""
	}

	var result lastfmTrackResponse
	if err := json.Unmarshal(body, &result); err != nil {
		p.logger.Debug().Err(err).Msg("Failed to decode track response")
		return ""
	}
	if result.Track == nil || result.Track.Album == nil {
		return ""
	}
	return result.Track.Album.Title
}

// albumInfo fetches the album record and picks the largest image.
func (p *LastFMProvider) albumInfo(ctx context.Context, artist, album string) *ArtInfo {
	body := p.call(ctx, url.Values{
		"method": {"album.getInfo"},
		"artist": {artist},
		"album":  {album},
	})
	if body == nil {
		return nil
	}

	var result lastfmAlbumResponse
	if err := json.Unmarshal(body, &result); err != nil {
		p.logger.Debug().Err(err).Msg("Failed to decode album response")
		return nil
	}
	if result.Album == nil {
		return nil
	}

	for _, size := range lastfmImageSizes {
		for _, img := range result.Album.Image {
			if img.Size == size && img.URL != "" {
				return &ArtInfo{ImageURL: img.URL, AlbumTitle: result.Album.Name}
			}
		}
	}
	return nil
}

func (p *LastFMProvider) call(ctx context.Context, params url.Values) []byte {
	params.Set("api_key", p.apiKey)
	params.Set("format", "json")
	params.Set("autocorrect", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s?%s", p.endpoint, params.Encode()), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "resonance/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug().Err(err).Str("method", params.Get("method")).Msg("Request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Debug().Int("status", resp.StatusCode).Str("method", params.Get("method")).Msg("Unexpected status")
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Debug().Err(err).Msg("Failed to read response")
		return nil
	}
	return body
}
