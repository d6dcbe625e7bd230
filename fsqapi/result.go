package fsqapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

var (
	ErrMalformedJSON    = errors.New("malformed JSON")
	ErrUnexpectedFormat = errors.New("unexpected response format")
	ErrOutOfRange       = errors.New("result index out of range")
	ErrMissingField     = errors.New("required field missing")
)

// ParseError describes why a response body could not be read as a venue
// search response. Found lists the keys present where Expected was missing.
type ParseError struct {
	Kind     error
	Path     string
	Expected string
	Found    []string
	Err      error
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Expected != "" {
		where := e.Path
		if where == "" {
			where = "top level"
		}
		fmt.Fprintf(&sb, ": expected %s at %s, found keys [%s]", e.Expected, where, strings.Join(e.Found, " "))
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// SkippedVenue records a venues element that could not be mapped. Index is
// zero based, in encounter order.
type SkippedVenue struct {
	Index int
	Err   error
}

// SearchResult is the immutable outcome of parsing one venue search response.
// An empty result is a normal outcome; Err tells apart "nothing found" from a
// body that wasn't understood.
type SearchResult struct {
	businesses []Business
	skipped    []SkippedVenue
	err        error
}

func (r *SearchResult) Count() int {
	return len(r.businesses)
}

// ResultAt returns the nth business, counting from 1.
func (r *SearchResult) ResultAt(n int) (Business, error) {
	if n < 1 || n > len(r.businesses) {
		return Business{}, fmt.Errorf("%w: %d not in [1, %d]", ErrOutOfRange, n, len(r.businesses))
	}
	return r.businesses[n-1], nil
}

// Businesses returns a copy of all mapped businesses in response order.
func (r *SearchResult) Businesses() []Business {
	out := make([]Business, len(r.businesses))
	copy(out, r.businesses)
	return out
}

func (r *SearchResult) Skipped() []SkippedVenue {
	out := make([]SkippedVenue, len(r.skipped))
	copy(out, r.skipped)
	return out
}

// Err returns the *ParseError when the body was malformed or not shaped like
// a venue search response, nil otherwise.
func (r *SearchResult) Err() error {
	return r.err
}

// Parser turns venue search response bodies into SearchResults.
type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse reads body with the default logger.
func Parse(body string) *SearchResult {
	return NewParser(nil).Parse(body)
}

// Parse never fails: shape problems are logged and reported through
// SearchResult.Err, venues that don't map are skipped and the rest kept.
func (p *Parser) Parse(body string) *SearchResult {
	res := &SearchResult{}
	if strings.TrimSpace(body) == "" {
		return res
	}

	venues, err := venuesOf([]byte(body))
	if err != nil {
		p.logger.Warn("venue search response not understood", "error", err)
		res.err = err
		return res
	}

	res.businesses = make([]Business, 0, len(venues))
	for i, raw := range venues {
		b, err := decodeVenue(raw)
		if err != nil {
			p.logger.Warn("skipping venue", "index", i, "error", err)
			res.skipped = append(res.skipped, SkippedVenue{Index: i, Err: err})
			continue
		}
		res.businesses = append(res.businesses, b)
	}

	if len(res.skipped) > 0 {
		p.logger.Info("venue search parsed with skips",
			"expected", len(venues), "mapped", len(res.businesses), "skipped", len(res.skipped))
	}
	return res
}

// venuesOf walks response.venues and hands back the raw elements.
func venuesOf(body []byte) ([]json.RawMessage, error) {
	if !json.Valid(body) {
		var probe interface{}
		err := json.Unmarshal(body, &probe)
		return nil, &ParseError{Kind: ErrMalformedJSON, Err: err}
	}

	top, err := objectOf(body, "")
	if err != nil {
		return nil, err
	}
	rawResponse, ok := top["response"]
	if !ok {
		return nil, &ParseError{Kind: ErrUnexpectedFormat, Expected: `"response"`, Found: keysOf(top)}
	}

	response, err := objectOf(rawResponse, "response")
	if err != nil {
		return nil, err
	}
	rawVenues, ok := response["venues"]
	if !ok {
		return nil, &ParseError{Kind: ErrUnexpectedFormat, Path: "response", Expected: `"venues"`, Found: keysOf(response)}
	}

	var venues []json.RawMessage
	if trimmed := bytes.TrimSpace(rawVenues); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &ParseError{Kind: ErrUnexpectedFormat, Path: "response.venues", Err: errors.New("venues is not an array")}
	}
	if err := json.Unmarshal(rawVenues, &venues); err != nil {
		return nil, &ParseError{Kind: ErrUnexpectedFormat, Path: "response.venues", Err: err}
	}
	return venues, nil
}

func objectOf(raw []byte, path string) (map[string]json.RawMessage, error) {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		where := path
		if where == "" {
			where = "top level"
		}
		return nil, &ParseError{Kind: ErrUnexpectedFormat, Path: path, Err: fmt.Errorf("%s is not an object", where)}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &ParseError{Kind: ErrUnexpectedFormat, Path: path, Err: err}
	}
	return obj, nil
}

func keysOf(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func decodeVenue(raw json.RawMessage) (Business, error) {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		return Business{}, errors.New("venue is not an object")
	}
	var b Business
	if err := json.Unmarshal(raw, &b); err != nil {
		return Business{}, err
	}
	if b.Id == "" {
		return Business{}, fmt.Errorf("%w: id", ErrMissingField)
	}
	if b.Name == "" {
		return Business{}, fmt.Errorf("%w: name (venue %s)", ErrMissingField, b.Id)
	}
	return b, nil
}
