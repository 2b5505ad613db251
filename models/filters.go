package models

import "strings"

type Operation string

const (
	OperationSale Operation = "sale"
	OperationRent Operation = "rent"
)

// ParseOperation accepts both canonical values and the Italian labels
// used by the upstream site ("vendita"/"affitto").
func ParseOperation(s string) Operation {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rent", "affitto":
		return OperationRent
	default:
		return OperationSale
	}
}

type Garden string

const (
	GardenNone    Garden = ""
	GardenPrivate Garden = "private"
	GardenShared  Garden = "shared"
)

func ParseGarden(s string) Garden {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "private", "privato":
		return GardenPrivate
	case "shared", "comune":
		return GardenShared
	default:
		return GardenNone
	}
}

type SortOrder string

const (
	SortRecent SortOrder = "recent"
	SortOldest SortOrder = "oldest"
)

func ParseSortOrder(s string) SortOrder {
	if strings.ToLower(strings.TrimSpace(s)) == "oldest" {
		return SortOldest
	}
	return SortRecent
}

// FilterSet is the canonical search criteria for one scrape session.
// It is built once from external configuration and never mutated.
// Numeric fields use 0 as "not set".
type FilterSet struct {
	LocationQuery string    `yaml:"location_query" json:"location_query"`
	LocationID    int64     `yaml:"location_id" json:"location_id"`
	Operation     Operation `yaml:"operation" json:"operation"`

	MinPrice int `yaml:"min_price" json:"min_price"`
	MaxPrice int `yaml:"max_price" json:"max_price"`
	MinSize  int `yaml:"min_size" json:"min_size"`
	MaxSize  int `yaml:"max_size" json:"max_size"`
	MinRooms int `yaml:"min_rooms" json:"min_rooms"`
	MaxRooms int `yaml:"max_rooms" json:"max_rooms"`

	MinBathrooms int `yaml:"min_bathrooms" json:"min_bathrooms"`

	Lift      bool   `yaml:"lift" json:"lift"`
	Garden    Garden `yaml:"garden" json:"garden"`
	Terrace   bool   `yaml:"terrace" json:"terrace"`
	Balcony   bool   `yaml:"balcony" json:"balcony"`
	Pool      bool   `yaml:"pool" json:"pool"`
	Furnished bool   `yaml:"furnished" json:"furnished"`
	Garage    bool   `yaml:"garage" json:"garage"`
	Cellar    bool   `yaml:"cellar" json:"cellar"`

	VirtualTour     bool   `yaml:"virtual_tour" json:"virtual_tour"`
	ExcludeAuctions bool   `yaml:"exclude_auctions" json:"exclude_auctions"`
	Keywords        string `yaml:"keywords" json:"keywords"`

	Sort SortOrder `yaml:"sort" json:"sort"`
}

// HasLocation reports whether the filter set carries enough information
// to start a session.
func (f FilterSet) HasLocation() bool {
	return f.LocationID > 0 || strings.TrimSpace(f.LocationQuery) != ""
}
