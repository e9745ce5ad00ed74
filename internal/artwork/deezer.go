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

// DeezerProvider fetches album artwork from the Deezer search API.
// No credentials are required. Search results are track records with
// the album embedded, so both the album-known and album-unknown paths
// resolve in a single call.
type DeezerProvider struct {
	gate     *gate
	client   *http.Client
	endpoint string
	logger   zerolog.Logger
}

func NewDeezerProvider(logger zerolog.Logger) *DeezerProvider {
	return &DeezerProvider{
		gate: newGate(),
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		endpoint: "https://api.deezer.com/search",
		logger:   logger.With().Str("provider", "deezer").Logger(),
	}
}

func (p *DeezerProvider) Name() string { return "deezer" }

type deezerResponse struct {
	Data []struct {
		Album struct {
			Title       string `json:"title"`
			CoverXL     string `json:"cover_xl"`
			CoverBig    string `json:"cover_big"`
			CoverMedium string `json:"cover_medium"`
			CoverSmall  string `json:"cover_small"`
		} `json:"album"`
	} `json:"data"`
}

func (p *DeezerProvider) GetArt(ctx context.Context, artist, track, album string) *ArtInfo {
	if artist == "" || track == "" {
		return nil
	}

	return p.gate.lookup(ctx, cacheKey(artist, track, album), func(ctx context.Context) *ArtInfo {
		q := fmt.Sprintf(`artist:%s track:%s`, quoteTerm(artist), quoteTerm(track))
		if album != "" {
			q = fmt.Sprintf(`artist:%s album:%s`, quoteTerm(artist), quoteTerm(album))
		}
		return p.search(ctx, q)
	})
}

// quoteTerm wraps a search term for the advanced-search syntax. The
// syntax has no escape for embedded quotes, so they are stripped.
func quoteTerm(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "") + `"`
}

func (p *DeezerProvider) search(ctx context.Context, q string) *ArtInfo {
	query := url.Values{
		"q":     {q},
		"limit": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s?%s", p.endpoint, query.Encode()), nil)
	if err != nil {
		return nil
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug().Err(err).Msg("Search request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Debug().Int("status", resp.StatusCode).Msg("Unexpected status")
		return nil
	}

	var result deezerResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		p.logger.Debug().Err(err).Msg("Failed to decode response")
		return nil
	}
	if len(result.Data) == 0 {
		return nil
	}

	// Largest cover first.
	a := result.Data[0].Album
	for _, u := range []string{a.CoverXL, a.CoverBig, a.CoverMedium, a.CoverSmall} {
		if u != "" {
			return &ArtInfo{ImageURL: u, AlbumTitle: a.Title}
		}
	}
	return nil
}
