package scraper

import (
	"net/url"
	"strconv"

	"github.com/thewebalchemist76/immobiliare3/models"
)

const pageSize = 25

// ParamTable maps filter fields to the upstream query codes. The codes are
// data, not logic: when the upstream renames one, only the table changes.
type ParamTable struct {
	Location string
	Category string
	Contract string
	Offset   string
	PageSize string
	SortBy   string
	SortDir  string

	PriceMin     string
	PriceMax     string
	SizeMin      string
	SizeMax      string
	RoomsMin     string
	RoomsMax     string
	BathroomsMin string
	Keywords     string

	CategoryResidential string
	ContractSale        string
	ContractRent        string
	SortByDate          string
	SortAscending       string
	SortDescending      string

	// Amenity flags, each encoded as <code>=1 when set.
	Lift            string
	GardenPrivate   string
	GardenShared    string
	Terrace         string
	Balcony         string
	Pool            string
	Furnished       string
	Garage          string
	Cellar          string
	VirtualTour     string
	ExcludeAuctions string
}

// DefaultParamTable carries the codes observed on the mobile backend.
func DefaultParamTable() ParamTable {
	return ParamTable{
		Location: "c",
		Category: "cat",
		Contract: "t",
		Offset:   "o",
		PageSize: "l",
		SortBy:   "ord",
		SortDir:  "dir",

		PriceMin:     "pm",
		PriceMax:     "px",
		SizeMin:      "sm",
		SizeMax:      "sx",
		RoomsMin:     "rm",
		RoomsMax:     "rx",
		BathroomsMin: "bm",
		Keywords:     "q",

		CategoryResidential: "1",
		ContractSale:        "v",
		ContractRent:        "a",
		SortByDate:          "data",
		SortAscending:       "asc",
		SortDescending:      "desc",

		Lift:            "ac2_ascensore",
		GardenPrivate:   "ac2_giardino_privato",
		GardenShared:    "ac2_giardino_comune",
		Terrace:         "ac2_terrazzo",
		Balcony:         "ac2_balcone",
		Pool:            "ac2_piscina",
		Furnished:       "ac2_arredato",
		Garage:          "ac2_box",
		Cellar:          "ac2_cantina",
		VirtualTour:     "vrt",
		ExcludeAuctions: "noAste",
	}
}

// ParamBuilder maps a FilterSet plus location id and offset into the
// upstream query-string parameter set. Pure mapping: numeric ranges are
// passed through unvalidated, the upstream is the source of truth for
// query legality.
type ParamBuilder struct {
	table    ParamTable
	pageSize int
}

func NewParamBuilder(table ParamTable) *ParamBuilder {
	return &ParamBuilder{table: table, pageSize: pageSize}
}

func (b *ParamBuilder) PageSize() int { return b.pageSize }

func (b *ParamBuilder) Build(f models.FilterSet, locationID int64, offset int) url.Values {
	t := b.table
	v := url.Values{}

	v.Set(t.Location, strconv.FormatInt(locationID, 10))
	v.Set(t.Category, t.CategoryResidential)

	contract := t.ContractSale
	if f.Operation == models.OperationRent {
		contract = t.ContractRent
	}
	v.Set(t.Contract, contract)

	v.Set(t.Offset, strconv.Itoa(offset))
	v.Set(t.PageSize, strconv.Itoa(b.pageSize))

	v.Set(t.SortBy, t.SortByDate)
	if f.Sort == models.SortOldest {
		v.Set(t.SortDir, t.SortAscending)
	} else {
		v.Set(t.SortDir, t.SortDescending)
	}

	// Price bounds only apply to sale listings. Mixing them into rental
	// queries produces undefined upstream behavior, so they are omitted
	// entirely for rent.
	if f.Operation != models.OperationRent {
		setPositive(v, t.PriceMin, f.MinPrice)
		setPositive(v, t.PriceMax, f.MaxPrice)
	}

	setPositive(v, t.SizeMin, f.MinSize)
	setPositive(v, t.SizeMax, f.MaxSize)
	setPositive(v, t.RoomsMin, f.MinRooms)
	setPositive(v, t.RoomsMax, f.MaxRooms)
	setPositive(v, t.BathroomsMin, f.MinBathrooms)

	setFlag(v, t.Lift, f.Lift)
	switch f.Garden {
	case models.GardenPrivate:
		setFlag(v, t.GardenPrivate, true)
	case models.GardenShared:
		setFlag(v, t.GardenShared, true)
	}
	setFlag(v, t.Terrace, f.Terrace)
	setFlag(v, t.Balcony, f.Balcony)
	setFlag(v, t.Pool, f.Pool)
	setFlag(v, t.Furnished, f.Furnished)
	setFlag(v, t.Garage, f.Garage)
	setFlag(v, t.Cellar, f.Cellar)
	setFlag(v, t.VirtualTour, f.VirtualTour)
	setFlag(v, t.ExcludeAuctions, f.ExcludeAuctions)

	if f.Keywords != "" {
		v.Set(t.Keywords, f.Keywords)
	}

	return v
}

func setPositive(v url.Values, key string, value int) {
	if value > 0 {
		v.Set(key, strconv.Itoa(value))
	}
}

func setFlag(v url.Values, key string, set bool) {
	if set {
		v.Set(key, "1")
	}
}
