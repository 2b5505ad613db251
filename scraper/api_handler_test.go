package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/thewebalchemist76/immobiliare3/config"
	"github.com/thewebalchemist76/immobiliare3/models"
)

func testSearchConfig(listURL, geoURL, detailURL string) *config.SearchConfig {
	cfg := &config.SearchConfig{
		ID:      "test",
		Handler: "api",
		Endpoints: map[string]string{
			"list":   listURL,
			"geo":    geoURL,
			"detail": detailURL,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestAPIHandlerSendsRequiredHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"list":[]}`))
	}))
	defer srv.Close()

	h := NewAPIHandler(testSearchConfig(srv.URL, srv.URL, srv.URL), srv.Client())
	_, err := h.FetchPage(context.Background(), models.PageRequest{LocationID: 1})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	expect := map[string]string{
		"User-Agent":      "ImmobiliareIT/12.4.1 (Android 14; it_IT)",
		"X-Client-Id":     "android-app",
		"Accept-Language": "it-IT",
		"X-Currency":      "EUR",
		"X-Unit":          "mq",
	}
	for key, want := range expect {
		if got.Get(key) != want {
			t.Errorf("header %s = %q, want %q", key, got.Get(key), want)
		}
	}
	if got.Get("X-Session-Id") == "" {
		t.Error("missing X-Session-ID header")
	}
}

func TestAPIHandlerSessionIDStablePerSession(t *testing.T) {
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Session-Id"))
		w.Write([]byte(`{"list":[]}`))
	}))
	defer srv.Close()

	h := NewAPIHandler(testSearchConfig(srv.URL, srv.URL, srv.URL), srv.Client())
	for i := 0; i < 2; i++ {
		if _, err := h.FetchPage(context.Background(), models.PageRequest{LocationID: 1}); err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
	}

	other := NewAPIHandler(testSearchConfig(srv.URL, srv.URL, srv.URL), srv.Client())
	if _, err := other.FetchPage(context.Background(), models.PageRequest{LocationID: 1}); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if len(ids) != 3 {
		t.Fatalf("got %d requests, want 3", len(ids))
	}
	if ids[0] != ids[1] {
		t.Errorf("session id changed within a session: %q vs %q", ids[0], ids[1])
	}
	if ids[0] == ids[2] {
		t.Errorf("different sessions share id %q", ids[0])
	}
}

func TestAPIHandlerFetchPageParams(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write(loadFixture(t, "search_page.json"))
	}))
	defer srv.Close()

	h := NewAPIHandler(testSearchConfig(srv.URL, srv.URL, srv.URL), srv.Client())
	req := models.PageRequest{
		LocationID: 4617,
		Offset:     25,
		Filters: models.FilterSet{
			Operation: models.OperationSale,
			MinPrice:  50000,
			MaxPrice:  200000,
			Lift:      true,
		},
	}

	items, err := h.FetchPage(context.Background(), req)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}

	expect := map[string]string{
		"c":             "4617",
		"cat":           "1",
		"t":             "v",
		"o":             "25",
		"l":             "25",
		"pm":            "50000",
		"px":            "200000",
		"ac2_ascensore": "1",
	}
	for key, want := range expect {
		if query.Get(key) != want {
			t.Errorf("param %s = %q, want %q", key, query.Get(key), want)
		}
	}
}

func TestAPIHandlerNon200IsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	h := NewAPIHandler(testSearchConfig(srv.URL, srv.URL, srv.URL), srv.Client())
	_, err := h.FetchPage(context.Background(), models.PageRequest{LocationID: 1})

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", fe.StatusCode)
	}
}

func TestAPIHandlerAutocomplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "Chieti" {
			t.Errorf("query param = %q, want Chieti", got)
		}
		w.Write(loadFixture(t, "geo_chieti.json"))
	}))
	defer srv.Close()

	h := NewAPIHandler(testSearchConfig(srv.URL, srv.URL, srv.URL), srv.Client())
	candidates, err := h.Autocomplete(context.Background(), "Chieti")
	if err != nil {
		t.Fatalf("autocomplete failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].ID != 4617 || candidates[0].Type != "city" {
		t.Fatalf("candidate = %+v", candidates[0])
	}
	if len(candidates[0].Parents) == 0 || candidates[0].Parents[0].ID != "IT" {
		t.Fatalf("parents = %+v", candidates[0].Parents)
	}
}

func TestAPIHandlerFetchDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "121003" {
			t.Errorf("id param = %q, want 121003", got)
		}
		w.Write([]byte(`{"id":121003,"geography":{"municipality":{"name":"Chieti"},"province":{"name":"CH"}}}`))
	}))
	defer srv.Close()

	h := NewAPIHandler(testSearchConfig(srv.URL, srv.URL, srv.URL), srv.Client())
	raw, err := h.FetchDetail(context.Background(), 121003)
	if err != nil {
		t.Fatalf("detail failed: %v", err)
	}

	rec := Normalize(raw)
	if rec.City == nil || *rec.City != "Chieti" {
		t.Fatalf("city = %v", rec.City)
	}
}

// End-to-end over the API path: resolve a city by name, paginate with
// filters, stop on the empty second page.
func TestAPISessionEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/geo", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":4617,"label":"Chieti","type":"city","parents":[{"id":"IT"}]}]`))
	})
	var queries []url.Values
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query())
		if r.URL.Query().Get("o") == "0" {
			w.Write(loadFixture(t, "search_page.json"))
			return
		}
		w.Write([]byte(`{"list":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testSearchConfig(srv.URL+"/list", srv.URL+"/geo", srv.URL+"/detail")
	h := NewAPIHandler(cfg, srv.Client())
	p := NewPaginator(NewResolver(h), h, NoRetry())

	filters := models.FilterSet{
		LocationQuery: "Chieti",
		Operation:     models.OperationSale,
		MinPrice:      50000,
		MaxPrice:      200000,
		Lift:          true,
	}

	var got []models.ListingRecord
	summary, err := p.Run(context.Background(), filters, 0, func(rec models.ListingRecord) error {
		got = append(got, rec)
		return nil
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if summary.Location.ID != 4617 {
		t.Fatalf("resolved location = %+v", summary.Location)
	}
	if len(got) != 3 {
		t.Fatalf("emitted %d records, want 3", len(got))
	}
	for _, rec := range got {
		if rec.URL == "" || rec.URL != ListingURL(rec.ID) {
			t.Errorf("record %d has url %q", rec.ID, rec.URL)
		}
	}

	first := queries[0]
	expect := map[string]string{
		"c":             "4617",
		"cat":           "1",
		"t":             "v",
		"pm":            "50000",
		"px":            "200000",
		"ac2_ascensore": "1",
	}
	for key, want := range expect {
		if first.Get(key) != want {
			t.Errorf("param %s = %q, want %q", key, first.Get(key), want)
		}
	}
}
