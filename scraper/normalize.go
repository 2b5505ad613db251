package scraper

import (
	"encoding/json"
	"fmt"

	"github.com/thewebalchemist76/immobiliare3/models"
)

const baseURL = "https://www.immobiliare.it"

type rawNamed struct {
	Name *string `json:"name"`
}

type rawGeography struct {
	Municipality *rawNamed `json:"municipality"`
	Province     *rawNamed `json:"province"`
}

type rawItem struct {
	ID        *int64        `json:"id"`
	Title     *string       `json:"title"`
	Price     *int64        `json:"price"`
	Geography *rawGeography `json:"geography"`
}

type searchEnvelope struct {
	List []json.RawMessage `json:"list"`
}

// parseEnvelope decodes the top-level listing envelope. An empty or absent
// list signals end of results; a malformed body is a ParseError.
func parseEnvelope(sourceURL string, body []byte) ([]json.RawMessage, error) {
	var env searchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ParseError{URL: sourceURL, Err: err}
	}
	return env.List, nil
}

// Normalize maps a raw upstream item into the stable output schema. Total
// function: anything missing or malformed becomes an absent field, never
// an error. The original payload rides along in Raw.
func Normalize(raw json.RawMessage) models.ListingRecord {
	rec := models.ListingRecord{Raw: raw}

	var item rawItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return rec
	}

	if item.ID != nil {
		rec.ID = *item.ID
		rec.URL = ListingURL(*item.ID)
	}
	rec.Title = item.Title
	rec.Price = item.Price

	if g := item.Geography; g != nil {
		if g.Municipality != nil {
			rec.City = g.Municipality.Name
		}
		if g.Province != nil {
			rec.Province = g.Province.Name
		}
	}

	return rec
}

// ListingURL synthesizes the canonical ad URL from the upstream id.
func ListingURL(id int64) string {
	return fmt.Sprintf("%s/annunci/%d/", baseURL, id)
}
