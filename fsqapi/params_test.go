package fsqapi

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

func TestSetLimitClamps(t *testing.T) {
	for _, tc := range []struct{ in, want int }{
		{-5, 1}, {0, 1}, {1, 1}, {25, 25}, {50, 50}, {51, 50}, {1000, 50},
	} {
		p := NewSearchParams()
		p.SetLimit(tc.in)
		if got := p.Limit(); got != tc.want {
			t.Errorf("SetLimit(%d): got %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSetRadiusClamps(t *testing.T) {
	for _, tc := range []struct{ in, want int }{
		{-1, 1}, {0, 1}, {50, 50}, {100000, 100000}, {100001, 100000},
	} {
		p := NewSearchParams()
		p.SetRadius(tc.in)
		if got := p.Radius(); got != tc.want {
			t.Errorf("SetRadius(%d): got %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSetLocationClampsCoordinates(t *testing.T) {
	for _, tc := range []struct{ lat, lng, wantLat, wantLng float64 }{
		{41.895513, -87.636626, 41.895513, -87.636626},
		{91, 181, 90, 180},
		{-100.5, -200, -90, -180},
		{0, 0, 0, 0},
	} {
		p := NewSearchParams()
		p.SetLocation(tc.lat, tc.lng)
		ll, ok := p.Location()
		if !ok {
			t.Fatalf("SetLocation(%v, %v): location not set", tc.lat, tc.lng)
		}
		if ll.Lat != tc.wantLat || ll.Lng != tc.wantLng {
			t.Errorf("SetLocation(%v, %v): got %v, want %v,%v", tc.lat, tc.lng, ll, tc.wantLat, tc.wantLng)
		}
	}
}

func TestLocationAndNameAreExclusive(t *testing.T) {
	p := NewSearchParams()
	p.SetLocationName("Chicago, IL")
	p.SetLocation(40.7, -74)
	m := p.ToMap()
	if _, ok := m["near"]; ok {
		t.Fatalf("near should be cleared by ll, got %v", m)
	}
	if m["ll"] != "40.7,-74" {
		t.Fatalf("unexpected ll: %q", m["ll"])
	}

	p.SetLocationName("Chicago, IL")
	m = p.ToMap()
	if _, ok := m["ll"]; ok {
		t.Fatalf("ll should be cleared by near, got %v", m)
	}
	if m["near"] != "Chicago, IL" {
		t.Fatalf("unexpected near: %q", m["near"])
	}
}

func TestEmptyLocationNameKeepsCoordinates(t *testing.T) {
	p := NewSearchParams()
	p.SetLocation(1, 2)
	p.SetLocationName("  ")
	if _, ok := p.Location(); !ok {
		t.Fatal("empty location name should not clear ll")
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *SearchParams)
		want  bool
	}{
		{"empty", func(p *SearchParams) {}, true},
		{"only optional", func(p *SearchParams) { p.SetLimit(10); p.SetIntent("browse") }, true},
		{"ll and query", func(p *SearchParams) { p.SetLocation(1, 2); p.SetQuery("donuts") }, true},
		{"near and query", func(p *SearchParams) { p.SetLocationName("Chicago"); p.SetQuery("donuts") }, true},
		{"query without location", func(p *SearchParams) { p.SetQuery("donuts") }, false},
		{"ll without query", func(p *SearchParams) { p.SetLocation(1, 2) }, false},
		{"near without query", func(p *SearchParams) { p.SetLocationName("Chicago") }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewSearchParams()
			tc.setup(p)
			if got := p.Valid(); got != tc.want {
				t.Fatalf("Valid() = %v, want %v (%v)", got, tc.want, p.ToMap())
			}
		})
	}
}

func TestSetIntentDefaultsToCheckin(t *testing.T) {
	p := NewSearchParams()
	p.SetIntent("BROWSE")
	if p.Intent() != IntentBrowse {
		t.Fatalf("expected browse, got %q", p.Intent())
	}
	p.SetIntent("shopping")
	if p.Intent() != IntentCheckin {
		t.Fatalf("expected fallback to checkin, got %q", p.Intent())
	}
}

func TestSetUrlAddsScheme(t *testing.T) {
	p := NewSearchParams()
	p.SetUrl("whittl.com")
	if v, _ := p.Get(ParamUrl); v != "http://whittl.com" {
		t.Fatalf("unexpected url %q", v)
	}
	p.SetUrl("https://whittl.com")
	if v, _ := p.Get(ParamUrl); v != "https://whittl.com" {
		t.Fatalf("unexpected url %q", v)
	}
	p.SetUrl("")
	if _, ok := p.Get(ParamUrl); ok {
		t.Fatal("empty url should remove the parameter")
	}
}

func TestSetCategoryIdsAndBoundingBox(t *testing.T) {
	p := NewSearchParams()
	p.SetCategoryIds("a", " ", "b")
	p.SetBoundingBox(LatLng{Lat: -95, Lng: 10}, LatLng{Lat: 45, Lng: 190})
	m := p.ToMap()
	if m["categoryId"] != "a,b" {
		t.Fatalf("unexpected categoryId %q", m["categoryId"])
	}
	if m["sw"] != "-90,10" || m["ne"] != "45,180" {
		t.Fatalf("unexpected bounding box sw=%q ne=%q", m["sw"], m["ne"])
	}
}

func TestToMapOnlyHasSetValuesAndIsACopy(t *testing.T) {
	p := NewSearchParams()
	p.SetQuery("")
	if len(p.ToMap()) != 0 {
		t.Fatalf("expected no parameters, got %v", p.ToMap())
	}

	p.SetQuery("donuts")
	m := p.ToMap()
	m["query"] = "tampered"
	m["near"] = "Nowhere"
	if p.Query() != "donuts" || p.LocationName() != "" {
		t.Fatalf("mutating the snapshot changed the parameters: %v", p.ToMap())
	}
}

func TestRemove(t *testing.T) {
	p := NewSearchParams()
	p.SetQuery("donuts")
	if err := p.Remove(ParamQuery); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if strings.Contains(p.String(), "donuts") {
		t.Fatalf("query still listed: %s", p)
	}
	if err := p.Remove(ParamQuery); !errors.Is(err, ErrParamNotSet) {
		t.Fatalf("expected ErrParamNotSet, got %v", err)
	}
}

func TestParseParams(t *testing.T) {
	q := url.Values{}
	q.Set("ll", "41.895513,-87.636626")
	q.Set("query", "Whittl")
	q.Set("limit", "500")
	q.Set("radius", "50")
	q.Set("intent", "nope")
	q.Set("categoryId", "x,y")

	p, err := ParseParams(q)
	if err != nil {
		t.Fatalf("ParseParams returned error: %v", err)
	}
	if p.Limit() != 50 || p.Radius() != 50 || p.Intent() != IntentCheckin {
		t.Fatalf("unexpected params: %v", p.ToMap())
	}
	if !p.Valid() {
		t.Fatalf("expected valid params: %v", p.ToMap())
	}

	for _, bad := range []url.Values{
		{"ll": {"abc"}},
		{"limit": {"ten"}},
		{"ll": {"1,2"}, "near": {"Chicago"}},
		{"sw": {"1,2"}},
	} {
		if _, err := ParseParams(bad); err == nil {
			t.Errorf("expected error for %v", bad)
		}
	}
}
