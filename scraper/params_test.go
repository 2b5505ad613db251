package scraper

import (
	"reflect"
	"testing"

	"github.com/thewebalchemist76/immobiliare3/models"
)

func TestBuildSaleParams(t *testing.T) {
	b := NewParamBuilder(DefaultParamTable())
	f := models.FilterSet{
		Operation: models.OperationSale,
		MinPrice:  50000,
		MaxPrice:  200000,
		Lift:      true,
	}

	v := b.Build(f, 4617, 0)

	expect := map[string]string{
		"c":             "4617",
		"cat":           "1",
		"t":             "v",
		"o":             "0",
		"l":             "25",
		"ord":           "data",
		"dir":           "desc",
		"pm":            "50000",
		"px":            "200000",
		"ac2_ascensore": "1",
	}
	for key, want := range expect {
		if got := v.Get(key); got != want {
			t.Errorf("param %s = %q, want %q", key, got, want)
		}
	}
}

func TestBuildRentOmitsPriceBounds(t *testing.T) {
	b := NewParamBuilder(DefaultParamTable())
	f := models.FilterSet{
		Operation: models.OperationRent,
		MinPrice:  500,
		MaxPrice:  1200,
	}

	v := b.Build(f, 100, 0)

	if v.Get("t") != "a" {
		t.Fatalf("contract = %q, want a", v.Get("t"))
	}
	if v.Has("pm") || v.Has("px") {
		t.Fatalf("price bounds must be omitted for rent, got pm=%q px=%q", v.Get("pm"), v.Get("px"))
	}
}

func TestBuildAmenityFlags(t *testing.T) {
	b := NewParamBuilder(DefaultParamTable())
	f := models.FilterSet{
		Garden:          models.GardenPrivate,
		Terrace:         true,
		Balcony:         true,
		Pool:            true,
		Furnished:       true,
		Garage:          true,
		Cellar:          true,
		VirtualTour:     true,
		ExcludeAuctions: true,
	}

	v := b.Build(f, 1, 0)

	for _, code := range []string{
		"ac2_giardino_privato", "ac2_terrazzo", "ac2_balcone", "ac2_piscina",
		"ac2_arredato", "ac2_box", "ac2_cantina", "vrt", "noAste",
	} {
		if v.Get(code) != "1" {
			t.Errorf("flag %s = %q, want 1", code, v.Get(code))
		}
	}
	if v.Has("ac2_giardino_comune") {
		t.Errorf("private garden must not set the shared-garden code")
	}
	if v.Has("ac2_ascensore") {
		t.Errorf("unset lift flag must be absent")
	}
}

func TestBuildSharedGarden(t *testing.T) {
	b := NewParamBuilder(DefaultParamTable())
	v := b.Build(models.FilterSet{Garden: models.GardenShared}, 1, 0)

	if v.Get("ac2_giardino_comune") != "1" {
		t.Fatalf("shared garden code missing")
	}
	if v.Has("ac2_giardino_privato") {
		t.Fatalf("shared garden must not set the private code")
	}
}

func TestBuildOffsetAndRanges(t *testing.T) {
	b := NewParamBuilder(DefaultParamTable())
	f := models.FilterSet{
		MinSize:      60,
		MaxSize:      120,
		MinRooms:     2,
		MaxRooms:     4,
		MinBathrooms: 2,
		Keywords:     "terrazzo vista mare",
	}

	v := b.Build(f, 8042, 50)

	expect := map[string]string{
		"o":  "50",
		"sm": "60",
		"sx": "120",
		"rm": "2",
		"rx": "4",
		"bm": "2",
		"q":  "terrazzo vista mare",
	}
	for key, want := range expect {
		if got := v.Get(key); got != want {
			t.Errorf("param %s = %q, want %q", key, got, want)
		}
	}
}

func TestBuildSortAscending(t *testing.T) {
	b := NewParamBuilder(DefaultParamTable())
	v := b.Build(models.FilterSet{Sort: models.SortOldest}, 1, 0)

	if v.Get("ord") != "data" || v.Get("dir") != "asc" {
		t.Fatalf("sort = %s/%s, want data/asc", v.Get("ord"), v.Get("dir"))
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	b := NewParamBuilder(DefaultParamTable())
	f := models.FilterSet{MinPrice: 100000, Lift: true, Keywords: "giardino"}

	first := b.Build(f, 4617, 25)
	second := b.Build(f, 4617, 25)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same inputs produced different params:\n%v\n%v", first, second)
	}
}

func TestBuildZeroValuesOmitted(t *testing.T) {
	b := NewParamBuilder(DefaultParamTable())
	v := b.Build(models.FilterSet{}, 1, 0)

	for _, key := range []string{"pm", "px", "sm", "sx", "rm", "rx", "bm", "q"} {
		if v.Has(key) {
			t.Errorf("unset field leaked param %s=%q", key, v.Get(key))
		}
	}
}
