package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/thewebalchemist76/immobiliare3/config"
	"github.com/thewebalchemist76/immobiliare3/models"
)

// Upstream-imposed headers. The mobile backend rejects requests without a
// client identifier, locale, and currency/unit hints.
const (
	apiUserAgent   = "ImmobiliareIT/12.4.1 (Android 14; it_IT)"
	apiClientID    = "android-app"
	apiLocale      = "it-IT"
	apiCurrency    = "EUR"
	apiMeasureUnit = "mq"
)

var errInvalidJSON = errors.New("invalid json body")

// APIHandler is the direct undocumented-API path: it queries the mobile
// backend with the built query parameters. One handler per session; the
// correlation id is fixed at construction and sent on every request.
type APIHandler struct {
	cfg       *config.SearchConfig
	client    *http.Client
	params    *ParamBuilder
	sessionID string
}

func NewAPIHandler(cfg *config.SearchConfig, client *http.Client) *APIHandler {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &APIHandler{
		cfg:       cfg,
		client:    client,
		params:    NewParamBuilder(DefaultParamTable()),
		sessionID: uuid.NewString(),
	}
}

func (h *APIHandler) ID() string { return h.cfg.ID }

func (h *APIHandler) decorate(req *http.Request) {
	req.Header.Set("User-Agent", apiUserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", apiLocale)
	req.Header.Set("X-Client-ID", apiClientID)
	req.Header.Set("X-Currency", apiCurrency)
	req.Header.Set("X-Unit", apiMeasureUnit)
	req.Header.Set("X-Session-ID", h.sessionID)
}

// FetchPage GETs one result page and returns the raw items of the listing
// envelope. An empty list signals end of results.
func (h *APIHandler) FetchPage(ctx context.Context, req models.PageRequest) ([]json.RawMessage, error) {
	params := h.params.Build(req.Filters, req.LocationID, req.Offset)
	u := h.cfg.Endpoints["list"] + "?" + params.Encode()

	body, err := h.get(ctx, u)
	if err != nil {
		return nil, err
	}
	return parseEnvelope(u, body)
}

// Autocomplete performs the geographic lookup used by the resolver.
func (h *APIHandler) Autocomplete(ctx context.Context, query string) ([]GeoCandidate, error) {
	q := url.Values{}
	q.Set("query", query)
	u := h.cfg.Endpoints["geo"] + "?" + q.Encode()

	body, err := h.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var candidates []GeoCandidate
	if err := json.Unmarshal(body, &candidates); err != nil {
		return nil, &ParseError{URL: u, Err: err}
	}
	return candidates, nil
}

// FetchDetail retrieves the full payload of a single ad, used by the
// enrichment worker for records the list call left incomplete.
func (h *APIHandler) FetchDetail(ctx context.Context, id int64) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("id", strconv.FormatInt(id, 10))
	u := h.cfg.Endpoints["detail"] + "?" + q.Encode()

	body, err := h.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &ParseError{URL: u, Err: errInvalidJSON}
	}
	return json.RawMessage(body), nil
}

func (h *APIHandler) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	h.decorate(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: u, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	return body, nil
}
