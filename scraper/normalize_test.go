package scraper

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", name, err)
	}
	return data
}

func TestParseEnvelope(t *testing.T) {
	items, err := parseEnvelope("test", loadFixture(t, "search_page.json"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
}

func TestParseEnvelopeMalformed(t *testing.T) {
	_, err := parseEnvelope("test", []byte("<html>blocked</html>"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParseEnvelopeMissingList(t *testing.T) {
	items, err := parseEnvelope("test", []byte(`{"count":0}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
}

func TestNormalizeFullItem(t *testing.T) {
	items, err := parseEnvelope("test", loadFixture(t, "search_page.json"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	rec := Normalize(items[0])
	if rec.ID != 121001 {
		t.Fatalf("id = %d, want 121001", rec.ID)
	}
	if rec.URL != "https://www.immobiliare.it/annunci/121001/" {
		t.Fatalf("url = %q", rec.URL)
	}
	if rec.Title == nil || *rec.Title != "Trilocale via degli Agostiniani 12, Centro, Chieti" {
		t.Fatalf("title = %v", rec.Title)
	}
	if rec.Price == nil || *rec.Price != 125000 {
		t.Fatalf("price = %v", rec.Price)
	}
	if rec.City == nil || *rec.City != "Chieti" {
		t.Fatalf("city = %v", rec.City)
	}
	if rec.Province == nil || *rec.Province != "CH" {
		t.Fatalf("province = %v", rec.Province)
	}
}

func TestNormalizeMissingGeography(t *testing.T) {
	items, err := parseEnvelope("test", loadFixture(t, "search_page.json"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	rec := Normalize(items[2])
	if rec.ID != 121003 {
		t.Fatalf("id = %d, want 121003", rec.ID)
	}
	if rec.Price != nil {
		t.Fatalf("price = %v, want nil", rec.Price)
	}
	if rec.City != nil || rec.Province != nil {
		t.Fatalf("geography must stay absent, got city=%v province=%v", rec.City, rec.Province)
	}
}

func TestNormalizeNeverFails(t *testing.T) {
	for _, raw := range []string{
		`not json at all`,
		`{"id":"not-a-number"}`,
		`{"geography":{"municipality":null}}`,
		`null`,
		`[]`,
	} {
		rec := Normalize(json.RawMessage(raw))
		if rec.ID != 0 || rec.Title != nil || rec.City != nil {
			t.Errorf("malformed input %q produced partial fields: %+v", raw, rec)
		}
		if string(rec.Raw) != raw {
			t.Errorf("raw payload not preserved for %q", raw)
		}
	}
}

func TestListingURL(t *testing.T) {
	if got := ListingURL(99887766); got != "https://www.immobiliare.it/annunci/99887766/" {
		t.Fatalf("url = %q", got)
	}
}
