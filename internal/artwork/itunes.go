package artwork

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ITunesProvider fetches album artwork URLs from the iTunes Search API.
// No credentials are required.
type ITunesProvider struct {
	gate     *gate
	client   *http.Client
	endpoint string
	logger   zerolog.Logger
}

func NewITunesProvider(logger zerolog.Logger) *ITunesProvider {
	return &ITunesProvider{
		gate: newGate(),
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		endpoint: "https://itunes.apple.com/search",
		logger:   logger.With().Str("provider", "itunes").Logger(),
	}
}

func (p *ITunesProvider) Name() string { return "itunes" }

type itunesResponse struct {
	Results []itunesResult `json:"results"`
}

type itunesResult struct {
	ArtworkURL100  string `json:"artworkUrl100"`
	CollectionName string `json:"collectionName"`
}

// GetArt resolves artwork for the given track. When the album is known
// it searches the album entity directly; otherwise it searches the song
// entity, which carries both the artwork and the implied album.
func (p *ITunesProvider) GetArt(ctx context.Context, artist, track, album string) *ArtInfo {
	if artist == "" || track == "" {
		return nil
	}

	return p.gate.lookup(ctx, cacheKey(artist, track, album), func(ctx context.Context) *ArtInfo {
		if album != "" {
			if info := p.search(ctx, artist+" "+album, "album"); info != nil {
				return info
			}
		}
		return p.search(ctx, artist+" "+track, "song")
	})
}

func (p *ITunesProvider) search(ctx context.Context, term, entity string) *ArtInfo {
	query := url.Values{
		"term":   {term},
		"entity": {entity},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s?%s", p.endpoint, query.Encode()), nil)
	if err != nil {
		return nil
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug().Err(err).Str("term", term).Msg("Search request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Debug().Int("status", resp.StatusCode).Str("term", term).Msg("Unexpected status")
		return nil
	}

	var result itunesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		p.logger.Debug().Err(err).Msg("Failed to decode response")
		return nil
	}
	if len(result.Results) == 0 || result.Results[0].ArtworkURL100 == "" {
		return nil
	}

	// Upscale from 100x100 to 600x600 for better quality
	return &ArtInfo{
		ImageURL:   strings.Replace(result.Results[0].ArtworkURL100, "100x100bb", "600x600bb", 1),
		AlbumTitle: result.Results[0].CollectionName,
	}
}
