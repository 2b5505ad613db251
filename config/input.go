package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/thewebalchemist76/immobiliare3/models"
)

// actorInput is the flat key-value shape supplied by a hosting task-runner.
// Field names mirror what the runner sends; unknown keys are ignored and
// absent keys take the documented defaults.
type actorInput struct {
	Municipality string `json:"municipality"`
	LocationID   int64  `json:"location_id"`
	Operation    string `json:"operation"`

	MinPrice int `json:"min_price"`
	MaxPrice int `json:"max_price"`
	MinSize  int `json:"min_size"`
	MaxSize  int `json:"max_size"`
	MinRooms int `json:"min_rooms"`
	MaxRooms int `json:"max_rooms"`

	Bathrooms int `json:"bathrooms"`

	Lift        bool   `json:"lift"`
	Garden      string `json:"garden"`
	Terrace     bool   `json:"terrace"`
	Balcony     bool   `json:"balcony"`
	Pool        bool   `json:"pool"`
	Furnished   bool   `json:"furnished"`
	Garage      bool   `json:"garage"`
	Cellar      bool   `json:"cellar"`
	VirtualTour bool   `json:"virtual_tour"`

	ExcludeAuctions bool   `json:"exclude_auctions"`
	Keywords        string `json:"keywords"`
	Sort            string `json:"sort"`

	Handler  string `json:"handler"`
	MaxPages int    `json:"max_pages"`
}

// LoadInput reads a one-shot search from a task-runner input file and maps
// it into a canonical SearchConfig.
func LoadInput(path string) (*SearchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", path, err)
	}
	return ParseInput(data)
}

func ParseInput(data []byte) (*SearchConfig, error) {
	var in actorInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}

	search := &SearchConfig{
		ID:       "input",
		Name:     "task-runner input",
		Handler:  in.Handler,
		MaxPages: in.MaxPages,
		Filters: models.FilterSet{
			LocationQuery: in.Municipality,
			LocationID:    in.LocationID,
			Operation:     models.ParseOperation(in.Operation),

			MinPrice: in.MinPrice,
			MaxPrice: in.MaxPrice,
			MinSize:  in.MinSize,
			MaxSize:  in.MaxSize,
			MinRooms: in.MinRooms,
			MaxRooms: in.MaxRooms,

			MinBathrooms: in.Bathrooms,

			Lift:        in.Lift,
			Garden:      models.ParseGarden(in.Garden),
			Terrace:     in.Terrace,
			Balcony:     in.Balcony,
			Pool:        in.Pool,
			Furnished:   in.Furnished,
			Garage:      in.Garage,
			Cellar:      in.Cellar,
			VirtualTour: in.VirtualTour,

			ExcludeAuctions: in.ExcludeAuctions,
			Keywords:        in.Keywords,
			Sort:            models.ParseSortOrder(in.Sort),
		},
	}
	search.ApplyDefaults()
	return search, nil
}
