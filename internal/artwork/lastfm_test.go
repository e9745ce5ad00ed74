package artwork

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func newTestLastFM(t *testing.T, endpoint string) *LastFMProvider {
	t.Helper()
	p, err := NewLastFMProvider("test-key", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLastFMProvider: %v", err)
	}
	p.endpoint = endpoint
	return p
}

func lastfmAlbumJSON(name string, images map[string]string) string {
	imgs := ""
	for size, url := range images {
		imgs += fmt.Sprintf(`{"#text":%q,"size":%q},`, url, size)
	}
	if imgs != "" {
		imgs = imgs[:len(imgs)-1]
	}
	return fmt.Sprintf(`{"album":{"name":%q,"image":[%s]}}`, name, imgs)
}

func TestLastFM_RequiresAPIKey(t *testing.T) {
	_, err := NewLastFMProvider("", zerolog.Nop())
	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestLastFM_DirectAlbumLookup(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.URL.Query().Get("method"))
		fmt.Fprint(w, lastfmAlbumJSON("A Night at the Opera", map[string]string{
			"extralarge": "https://example.com/xl.jpg",
		}))
	}))
	defer srv.Close()

	p := newTestLastFM(t, srv.URL)

	got := p.GetArt(context.Background(), "Queen", "Bohemian Rhapsody", "A Night at the Opera")
	if got == nil || got.ImageURL != "https://example.com/xl.jpg" {
		t.Fatalf("GetArt() = %+v, want extralarge image", got)
	}
	if len(methods) != 1 || methods[0] != "album.getInfo" {
		t.Errorf("methods = %v, want a single album.getInfo when the album is known", methods)
	}
}

func TestLastFM_TwoHopWhenAlbumUnknown(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Query().Get("method")
		methods = append(methods, method)
		switch method {
		case "track.getInfo":
			fmt.Fprint(w, `{"track":{"album":{"title":"A Night at the Opera"}}}`)
		case "album.getInfo":
			if r.URL.Query().Get("album") != "A Night at the Opera" {
				t.Errorf("album lookup for %q, want album implied by the track", r.URL.Query().Get("album"))
			}
			fmt.Fprint(w, lastfmAlbumJSON("A Night at the Opera", map[string]string{
				"large": "https://example.com/l.jpg",
			}))
		}
	}))
	defer srv.Close()

	p := newTestLastFM(t, srv.URL)

	got := p.GetArt(context.Background(), "Queen", "Bohemian Rhapsody", "")
	if got == nil || got.ImageURL != "https://example.com/l.jpg" {
		t.Fatalf("GetArt() = %+v, want image from album hop", got)
	}
	if len(methods) != 2 || methods[0] != "track.getInfo" || methods[1] != "album.getInfo" {
		t.Errorf("methods = %v, want [track.getInfo album.getInfo]", methods)
	}
}

func TestLastFM_PrefersLargestImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, lastfmAlbumJSON("Album", map[string]string{
			"small":      "https://example.com/s.jpg",
			"medium":     "https://example.com/m.jpg",
			"extralarge": "https://example.com/xl.jpg",
		}))
	}))
	defer srv.Close()

	p := newTestLastFM(t, srv.URL)

	got := p.GetArt(context.Background(), "Artist", "Song", "Album")
	if got == nil || got.ImageURL != "https://example.com/xl.jpg" {
		t.Errorf("GetArt() = %+v, want extralarge preferred", got)
	}
}

func TestLastFM_SkipsEmptyImageSlots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, lastfmAlbumJSON("Album", map[string]string{
			"extralarge": "",
			"medium":     "https://example.com/m.jpg",
		}))
	}))
	defer srv.Close()

	p := newTestLastFM(t, srv.URL)

	got := p.GetArt(context.Background(), "Artist", "Song", "Album")
	if got == nil || got.ImageURL != "https://example.com/m.jpg" {
		t.Errorf("GetArt() = %+v, want first non-empty size", got)
	}
}

func TestLastFM_NilWhenTrackHasNoAlbum(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"track":{"name":"Song"}}`)
	}))
	defer srv.Close()

	p := newTestLastFM(t, srv.URL)

	if got := p.GetArt(context.Background(), "Artist", "Song", ""); got != nil {
		t.Errorf("expected nil when the track implies no album, got %+v", got)
	}
}

func TestForName(t *testing.T) {
	logger := zerolog.Nop()

	if _, err := ForName("itunes", Config{}, logger); err != nil {
		t.Errorf("itunes: %v", err)
	}
	if _, err := ForName("deezer", Config{}, logger); err != nil {
		t.Errorf("deezer: %v", err)
	}
	if _, err := ForName("lastfm", Config{LastFMAPIKey: "k"}, logger); err != nil {
		t.Errorf("lastfm with key: %v", err)
	}
	if _, err := ForName("lastfm", Config{}, logger); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("lastfm without key: expected ErrMissingCredentials, got %v", err)
	}
	if _, err := ForName("napster", Config{}, logger); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}
