package fsqapi

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Param is a venue search query parameter name.
type Param string

const (
	ParamLL         Param = "ll"
	ParamNear       Param = "near"
	ParamQuery      Param = "query"
	ParamLimit      Param = "limit"
	ParamIntent     Param = "intent"
	ParamRadius     Param = "radius"
	ParamSW         Param = "sw"
	ParamNE         Param = "ne"
	ParamCategoryId Param = "categoryId"
	ParamUrl        Param = "url"
)

// Intent selects how Foursquare ranks and filters search results.
type Intent string

const (
	IntentCheckin Intent = "checkin"
	IntentBrowse  Intent = "browse"
	IntentGlobal  Intent = "global"
	IntentMatch   Intent = "match"
)

const (
	MinLimit  = 1
	MaxLimit  = 50
	MinRadius = 1
	MaxRadius = 100000
)

var ErrParamNotSet = errors.New("search parameter not set")

// LatLng is a coordinate pair in decimal degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// Clamp pulls the pair into [-90,90] x [-180,180].
func (p LatLng) Clamp() LatLng {
	return LatLng{Lat: clampFloat(p.Lat, -90, 90), Lng: clampFloat(p.Lng, -180, 180)}
}

func (p LatLng) String() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

// ParseLatLng reads a "lat,lng" pair. The values are not clamped.
func ParseLatLng(s string) (LatLng, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return LatLng{}, fmt.Errorf("expected \"lat,lng\", got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("invalid latitude %q: %w", parts[0], err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("invalid longitude %q: %w", parts[1], err)
	}
	return LatLng{Lat: lat, Lng: lng}, nil
}

// SearchParams accumulates venue search parameters. Numeric inputs and
// coordinates are clamped into range instead of being rejected. The zero
// value is not usable, create one with NewSearchParams.
type SearchParams struct {
	values map[Param]string
}

func NewSearchParams() *SearchParams {
	return &SearchParams{values: make(map[Param]string)}
}

func (p *SearchParams) set(name Param, value string) {
	if value == "" {
		delete(p.values, name)
		return
	}
	p.values[name] = value
}

// SetLocation searches around a coordinate and clears any location name.
func (p *SearchParams) SetLocation(lat, lng float64) {
	delete(p.values, ParamNear)
	p.set(ParamLL, LatLng{Lat: lat, Lng: lng}.Clamp().String())
}

// SetLocationName searches near a geocodable place name and clears any
// coordinate. An empty name only removes the current location name.
func (p *SearchParams) SetLocationName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		delete(p.values, ParamNear)
		return
	}
	delete(p.values, ParamLL)
	p.set(ParamNear, name)
}

func (p *SearchParams) SetQuery(q string) {
	p.set(ParamQuery, strings.TrimSpace(q))
}

func (p *SearchParams) SetLimit(n int) {
	p.set(ParamLimit, strconv.Itoa(clampInt(n, MinLimit, MaxLimit)))
}

// SetIntent falls back to IntentCheckin for anything Foursquare doesn't know.
func (p *SearchParams) SetIntent(intent string) {
	switch i := Intent(strings.ToLower(strings.TrimSpace(intent))); i {
	case IntentCheckin, IntentBrowse, IntentGlobal, IntentMatch:
		p.set(ParamIntent, string(i))
	default:
		p.set(ParamIntent, string(IntentCheckin))
	}
}

// SetRadius sets the search radius in meters.
func (p *SearchParams) SetRadius(meters int) {
	p.set(ParamRadius, strconv.Itoa(clampInt(meters, MinRadius, MaxRadius)))
}

// SetBoundingBox limits the search to the box between the south-west and
// north-east corners.
func (p *SearchParams) SetBoundingBox(sw, ne LatLng) {
	p.set(ParamSW, sw.Clamp().String())
	p.set(ParamNE, ne.Clamp().String())
}

func (p *SearchParams) SetCategoryIds(ids ...string) {
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			kept = append(kept, id)
		}
	}
	p.set(ParamCategoryId, strings.Join(kept, ","))
}

// SetUrl matches venues by their website, "http://" is assumed when the
// address carries no scheme.
func (p *SearchParams) SetUrl(u string) {
	u = strings.TrimSpace(u)
	if u != "" && !strings.Contains(u, "://") {
		u = "http://" + u
	}
	p.set(ParamUrl, u)
}

// Remove drops a parameter that was previously set.
func (p *SearchParams) Remove(name Param) error {
	if _, ok := p.values[name]; !ok {
		return fmt.Errorf("%w: %s", ErrParamNotSet, name)
	}
	delete(p.values, name)
	return nil
}

func (p *SearchParams) Get(name Param) (string, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Limit returns 0 when no limit was set.
func (p *SearchParams) Limit() int {
	n, _ := strconv.Atoi(p.values[ParamLimit])
	return n
}

// Radius returns 0 when no radius was set.
func (p *SearchParams) Radius() int {
	n, _ := strconv.Atoi(p.values[ParamRadius])
	return n
}

func (p *SearchParams) Location() (LatLng, bool) {
	v, ok := p.values[ParamLL]
	if !ok {
		return LatLng{}, false
	}
	ll, err := ParseLatLng(v)
	return ll, err == nil
}

func (p *SearchParams) LocationName() string { return p.values[ParamNear] }
func (p *SearchParams) Query() string        { return p.values[ParamQuery] }
func (p *SearchParams) Intent() Intent       { return Intent(p.values[ParamIntent]) }

// Valid reports whether a location (ll or near) and a query are set
// together, or none of the three is set. Foursquare itself accepts a query
// without a location; this client does not.
func (p *SearchParams) Valid() bool {
	_, hasLL := p.values[ParamLL]
	_, hasNear := p.values[ParamNear]
	_, hasQuery := p.values[ParamQuery]
	hasLocation := hasLL || hasNear
	return hasLocation == hasQuery
}

// ToMap returns a copy of the parameters that are set.
func (p *SearchParams) ToMap() map[string]string {
	m := make(map[string]string, len(p.values))
	for k, v := range p.values {
		m[string(k)] = v
	}
	return m
}

// Values returns the parameters as query values, escaping is left to
// url.Values.Encode.
func (p *SearchParams) Values() url.Values {
	q := make(url.Values, len(p.values))
	for k, v := range p.values {
		q.Set(string(k), v)
	}
	return q
}

func (p *SearchParams) String() string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("VENUE SEARCH with parameters:\n{\n")
	for _, k := range keys {
		fmt.Fprintf(&sb, "\t%q : %q\n", k, p.values[Param(k)])
	}
	sb.WriteString("}\n")
	return sb.String()
}

// ParseParams builds search parameters from request query values using the
// same clamping rules as the setters. Unknown keys are ignored.
func ParseParams(q url.Values) (*SearchParams, error) {
	p := NewSearchParams()

	if v := strings.TrimSpace(q.Get(string(ParamLL))); v != "" {
		ll, err := ParseLatLng(v)
		if err != nil {
			return nil, fmt.Errorf("ll: %w", err)
		}
		p.SetLocation(ll.Lat, ll.Lng)
	}
	if v := q.Get(string(ParamNear)); v != "" {
		if _, ok := p.values[ParamLL]; ok {
			return nil, errors.New("ll and near are mutually exclusive")
		}
		p.SetLocationName(v)
	}
	p.SetQuery(q.Get(string(ParamQuery)))

	for _, name := range []Param{ParamLimit, ParamRadius} {
		v := strings.TrimSpace(q.Get(string(name)))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: not a number: %q", name, v)
		}
		if name == ParamLimit {
			p.SetLimit(n)
		} else {
			p.SetRadius(n)
		}
	}

	if v := q.Get(string(ParamIntent)); v != "" {
		p.SetIntent(v)
	}

	sw, ne := strings.TrimSpace(q.Get(string(ParamSW))), strings.TrimSpace(q.Get(string(ParamNE)))
	if sw != "" || ne != "" {
		swLL, err := ParseLatLng(sw)
		if err != nil {
			return nil, fmt.Errorf("sw: %w", err)
		}
		neLL, err := ParseLatLng(ne)
		if err != nil {
			return nil, fmt.Errorf("ne: %w", err)
		}
		p.SetBoundingBox(swLL, neLL)
	}

	if v := q.Get(string(ParamCategoryId)); v != "" {
		p.SetCategoryIds(strings.Split(v, ",")...)
	}
	p.SetUrl(q.Get(string(ParamUrl)))

	return p, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
