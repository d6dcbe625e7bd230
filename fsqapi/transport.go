package fsqapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var defaultHTTPClient = &http.Client{
	Timeout: 15 * time.Second,
}

const (
	fsqBase       = "https://api.foursquare.com/v2"
	fsqSearch     = "/venues/search"
	fsqCategories = "/venues/categories"

	DefaultVersion = "20131016"

	maxErrorBody = 4096
)

// FailureKind classifies a failed search.
type FailureKind int

const (
	Unauthenticated FailureKind = iota + 1
	InvalidParameters
	RemoteError
	TransportFailure
)

var (
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrInvalidParameters = errors.New("invalid search parameters")
	ErrRemote            = errors.New("remote error")
	ErrTransport         = errors.New("transport failure")
)

func (k FailureKind) sentinel() error {
	switch k {
	case Unauthenticated:
		return ErrUnauthenticated
	case InvalidParameters:
		return ErrInvalidParameters
	case RemoteError:
		return ErrRemote
	default:
		return ErrTransport
	}
}

func (k FailureKind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case InvalidParameters:
		return "invalid_parameters"
	case RemoteError:
		return "remote_error"
	case TransportFailure:
		return "transport_failure"
	}
	return "unknown"
}

// SearchError is returned for every failed request. StatusCode and Body are
// only set for RemoteError; ErrorType and ErrorDetail come from the meta
// block of the body when Foursquare sent one.
type SearchError struct {
	Kind        FailureKind
	StatusCode  int
	Body        string
	ErrorType   string
	ErrorDetail string
	Err         error
}

func (e *SearchError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.sentinel().Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, ": HTTP %d", e.StatusCode)
	}
	if e.ErrorType != "" {
		fmt.Fprintf(&sb, " %s", e.ErrorType)
	}
	if e.ErrorDetail != "" {
		fmt.Fprintf(&sb, ": %s", e.ErrorDetail)
	} else if e.Body != "" && e.Kind == RemoteError {
		fmt.Fprintf(&sb, ": %s", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *SearchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

type Config struct {
	// BaseURL defaults to the public v2 API.
	BaseURL string
	// Version is the "v" API date, DefaultVersion when empty.
	Version    string
	Auth       Authenticator
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client issues venue searches. Every call performs exactly one request.
type Client struct {
	base    string
	version string
	auth    Authenticator
	http    *http.Client
	logger  *slog.Logger
	parser  *Parser
}

func NewClient(cfg Config) *Client {
	c := &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		version: cfg.Version,
		auth:    cfg.Auth,
		http:    cfg.HTTPClient,
		logger:  cfg.Logger,
	}
	if c.base == "" {
		c.base = fsqBase
	}
	if c.version == "" {
		c.version = DefaultVersion
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.parser = NewParser(c.logger)
	return c
}

func (c *Client) httpClient() *http.Client {
	if c.http != nil {
		return c.http
	}
	return defaultHTTPClient
}

func (c *Client) commonQuery(ctx context.Context) (url.Values, error) {
	if c.auth == nil {
		return nil, &SearchError{Kind: Unauthenticated, Err: ErrNoToken}
	}
	q := url.Values{}
	if err := c.auth.Authenticate(ctx, q); err != nil {
		return nil, &SearchError{Kind: Unauthenticated, Err: err}
	}
	q.Set("v", c.version)
	return q, nil
}

// Search runs one venue search and returns the raw response body. Invalid
// parameters are rejected before anything is sent.
func (c *Client) Search(ctx context.Context, params *SearchParams) ([]byte, error) {
	if params == nil || !params.Valid() {
		return nil, &SearchError{
			Kind: InvalidParameters,
			Err:  errors.New("a location (ll or near) and a query must be set together"),
		}
	}

	q, err := c.commonQuery(ctx)
	if err != nil {
		return nil, err
	}
	for k, v := range params.Values() {
		q[k] = v
	}

	return c.get(ctx, fsqSearch, q)
}

// SearchVenues runs Search and parses the body.
func (c *Client) SearchVenues(ctx context.Context, params *SearchParams) (*SearchResult, error) {
	body, err := c.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return c.parser.Parse(string(body)), nil
}

// Categories fetches the global venue category tree.
func (c *Client) Categories(ctx context.Context) ([]GlobalCategory, error) {
	q, err := c.commonQuery(ctx)
	if err != nil {
		return nil, err
	}

	content, err := c.get(ctx, fsqCategories, q)
	if err != nil {
		return nil, err
	}

	var fsq fsqCategory
	if err := json.Unmarshal(content, &fsq); err != nil {
		return nil, &ParseError{Kind: ErrMalformedJSON, Path: "response.categories", Err: err}
	}
	return fsq.Response.Categories, nil
}

type fsqMeta struct {
	Meta struct {
		Code        int    `json:"code"`
		ErrorType   string `json:"errorType"`
		ErrorDetail string `json:"errorDetail"`
	} `json:"meta"`
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	urlStr := c.base + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &SearchError{Kind: TransportFailure, Err: err}
	}

	start := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.logger.Error("foursquare request failed", "path", path, "error", err)
		return nil, &SearchError{Kind: TransportFailure, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		content, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serr := &SearchError{
			Kind:       RemoteError,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(content)),
		}
		var meta fsqMeta
		if json.Unmarshal(content, &meta) == nil {
			serr.ErrorType = meta.Meta.ErrorType
			serr.ErrorDetail = meta.Meta.ErrorDetail
		}
		c.logger.Warn("foursquare returned an error",
			"path", path, "status", resp.StatusCode, "errorType", serr.ErrorType)
		return nil, serr
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SearchError{Kind: TransportFailure, Err: err}
	}
	c.logger.Debug("foursquare request done", "path", path, "bytes", len(content), "elapsed", time.Since(start))
	return content, nil
}
