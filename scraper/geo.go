package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/thewebalchemist76/immobiliare3/models"
)

// countryIT is the ancestor code every admissible candidate must carry.
const countryIT = "IT"

// GeoCandidate is one suggestion from the geographic autocomplete lookup.
type GeoCandidate struct {
	ID      int64       `json:"id"`
	Label   string      `json:"label"`
	Type    string      `json:"type"`
	Parents []GeoParent `json:"parents"`
}

type GeoParent struct {
	ID string `json:"id"`
}

// GeoClient performs the autocomplete call.
type GeoClient interface {
	Autocomplete(ctx context.Context, query string) ([]GeoCandidate, error)
}

// Resolver turns a free-text place name (or explicit id) into the upstream
// location identifier.
type Resolver struct {
	geo GeoClient
}

func NewResolver(geo GeoClient) *Resolver {
	return &Resolver{geo: geo}
}

// Resolve selects the location for a session. An explicit LocationID
// bypasses the lookup entirely. Candidates outside Italy are discarded,
// labels must match the query exactly after trimming and lowercasing, and
// a city-type match wins over a neighborhood-type one.
func (r *Resolver) Resolve(ctx context.Context, filters models.FilterSet) (models.Location, error) {
	if filters.LocationID > 0 {
		return models.Location{ID: filters.LocationID}, nil
	}

	query := strings.TrimSpace(filters.LocationQuery)
	if query == "" {
		return models.Location{}, ErrInvalidFilter
	}

	candidates, err := r.geo.Autocomplete(ctx, query)
	if err != nil {
		return models.Location{}, err
	}

	want := strings.ToLower(query)
	var neighborhood *GeoCandidate

	for i := range candidates {
		c := &candidates[i]
		if !inItaly(c) {
			continue
		}
		if strings.ToLower(strings.TrimSpace(c.Label)) != want {
			continue
		}
		switch c.Type {
		case models.LocationTypeCity:
			// A city-type exact match wins outright.
			log.Printf("Resolved %q to %q (id %d, %s)", query, c.Label, c.ID, c.Type)
			return models.Location{ID: c.ID, Label: c.Label, Type: c.Type}, nil
		case models.LocationTypeNeighborhood:
			if neighborhood == nil {
				neighborhood = c
			}
		}
	}

	if neighborhood != nil {
		log.Printf("Resolved %q to %q (id %d, %s)", query, neighborhood.Label, neighborhood.ID, neighborhood.Type)
		return models.Location{ID: neighborhood.ID, Label: neighborhood.Label, Type: neighborhood.Type}, nil
	}

	return models.Location{}, fmt.Errorf("%w: no admissible candidate for %q", ErrLocationNotFound, query)
}

func inItaly(c *GeoCandidate) bool {
	for _, p := range c.Parents {
		if p.ID == countryIT {
			return true
		}
	}
	return false
}
