package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 8 * time.Second
	maxResponseSize = 1 << 20
)

// HTTPConfig configures HTTPClient.
type HTTPConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// RatePerSecond caps outgoing requests. Zero disables limiting.
	RatePerSecond float64
	Burst         int
}

// HTTPClient talks JSON to a helper service:
//
//	GET /geolocate
//	GET /reverse-geocode?lat=..&lon=..
//	GET /weather?location=..
//	GET /live-scores?sport=..
//	GET /sporting-table?league=..
//	GET /ticker?market=..
type HTTPClient struct {
	base    *url.URL
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient validates cfg and builds a client. httpClient may be nil.
func NewHTTPClient(cfg HTTPConfig, httpClient *http.Client) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("helpers: invalid base url %q", cfg.BaseURL)
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	c := &HTTPClient{base: base, token: strings.TrimSpace(cfg.Token), http: httpClient}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return c, nil
}

func (c *HTTPClient) Geolocate(ctx context.Context) (Coordinates, error) {
	if at, ok := CoordinatesFrom(ctx); ok {
		return at, nil
	}
	var out Coordinates
	err := c.get(ctx, "/geolocate", nil, &out)
	return out, err
}

func (c *HTTPClient) ReverseGeocode(ctx context.Context, at Coordinates) (string, error) {
	var out struct {
		Location string `json:"location"`
	}
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(at.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(at.Longitude, 'f', -1, 64))
	if err := c.get(ctx, "/reverse-geocode", params, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Location) == "" {
		return "", ErrNotFound
	}
	return out.Location, nil
}

func (c *HTTPClient) Weather(ctx context.Context, location string) (Forecast, error) {
	var out Forecast
	err := c.get(ctx, "/weather", url.Values{"location": {location}}, &out)
	return out, err
}

func (c *HTTPClient) LiveScores(ctx context.Context, sport string) ([]Score, error) {
	var out []Score
	err := c.get(ctx, "/live-scores", url.Values{"sport": {sport}}, &out)
	return out, err
}

func (c *HTTPClient) SportingTable(ctx context.Context, league string) ([]Standing, error) {
	var out []Standing
	err := c.get(ctx, "/sporting-table", url.Values{"league": {league}}, &out)
	return out, err
}

func (c *HTTPClient) Ticker(ctx context.Context, market string) ([]Quote, error) {
	var out []Quote
	err := c.get(ctx, "/ticker", url.Values{"market": {market}}, &out)
	return out, err
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	endpoint := *c.base
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("helpers: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return goerrors.Wrap(fmt.Errorf("%w: %v", ErrUnavailable, err), goerrors.CategoryExternal, "helpers: request "+path)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return goerrors.Wrap(ErrPermissionDenied, goerrors.CategoryAuthz, "helpers: "+path+" rejected credentials").
			WithTextCode("HELPER_PERMISSION_DENIED")
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 300:
		return goerrors.Wrap(fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode), goerrors.CategoryExternal, "helpers: "+path)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUnavailable, path, err)
	}
	return nil
}
