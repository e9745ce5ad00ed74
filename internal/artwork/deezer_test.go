package artwork

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestDeezer(endpoint string) *DeezerProvider {
	p := NewDeezerProvider(zerolog.Nop())
	p.endpoint = endpoint
	return p
}

func TestDeezer_PicksLargestCover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"album":{
			"title":"Discovery",
			"cover_xl":"",
			"cover_big":"https://example.com/big.jpg",
			"cover_medium":"https://example.com/medium.jpg"
		}}]}`)
	}))
	defer srv.Close()

	p := newTestDeezer(srv.URL)

	got := p.GetArt(context.Background(), "Daft Punk", "One More Time", "Discovery")
	if got == nil {
		t.Fatal("expected art info")
	}
	if got.ImageURL != "https://example.com/big.jpg" {
		t.Errorf("ImageURL = %q, want the largest non-empty cover", got.ImageURL)
	}
	if got.AlbumTitle != "Discovery" {
		t.Errorf("AlbumTitle = %q", got.AlbumTitle)
	}
}

func TestDeezer_StripsQuotesFromQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, `{"data":[{"album":{"title":"Album","cover_xl":"https://example.com/xl.jpg"}}]}`)
	}))
	defer srv.Close()

	p := newTestDeezer(srv.URL)

	// Embedded quotes must not break out of the quoted search terms.
	p.GetArt(context.Background(), `The "Artist"`, `Say "Hello"`, "")

	if want := `artist:"The Artist" track:"Say Hello"`; gotQuery != want {
		t.Errorf("q = %q, want %q", gotQuery, want)
	}
	if n := strings.Count(gotQuery, `"`); n != 4 {
		t.Errorf("query has %d quote characters, want exactly the 4 wrapping ones", n)
	}
}

func TestDeezer_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	p := newTestDeezer(srv.URL)

	if got := p.GetArt(context.Background(), "Artist", "Song", ""); got != nil {
		t.Errorf("expected nil for empty results, got %+v", got)
	}
}
