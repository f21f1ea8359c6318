// Package maps is a thin Google Maps web-services client used to turn
// origin and destination addresses into Taichung districts and to fetch
// a driving route between them. Transient upstream failures retry with
// exponential backoff; client-side errors do not.
package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/safetaichung/saferoute/pkg/logger"
)

const (
	defaultBaseURL = "https://maps.googleapis.com"
	defaultTimeout = 5 * time.Second
	maxRetries     = 3
)

// GeocodeResult is one resolved address.
type GeocodeResult struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
}

// RouteStep is one leg instruction of a directions result.
type RouteStep struct {
	Instruction    string `json:"instruction"`
	DistanceMeters int    `json:"distance_meters"`
	DurationSecs   int    `json:"duration_seconds"`
}

// Route is a summarized directions result between two addresses.
type Route struct {
	Summary        string      `json:"summary"`
	DistanceMeters int         `json:"distance_meters"`
	DistanceText   string      `json:"distance_text"`
	DurationSecs   int         `json:"duration_seconds"`
	DurationText   string      `json:"duration_text"`
	StartAddress   string      `json:"start_address"`
	EndAddress     string      `json:"end_address"`
	Polyline       string      `json:"polyline"`
	Steps          []RouteStep `json:"steps"`
	Warnings       []string    `json:"warnings"`
}

// Client calls the geocoding and directions web services.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the service base URL. Used for testing.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(lg logger.Logger) Option {
	return func(c *Client) {
		if lg != nil {
			c.logger = lg
		}
	}
}

// NewClient creates a maps client with configuration options.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.Get().Named("maps"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location LatLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// Geocode resolves a free-text address.
func (c *Client) Geocode(ctx context.Context, address string) (GeocodeResult, error) {
	q := url.Values{}
	q.Set("address", address)
	return c.geocode(ctx, q)
}

// ReverseGeocode resolves a coordinate pair back to an address.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (GeocodeResult, error) {
	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	return c.geocode(ctx, q)
}

func (c *Client) geocode(ctx context.Context, q url.Values) (GeocodeResult, error) {
	q.Set("language", "zh-TW")
	q.Set("region", "tw")

	var resp geocodeResponse
	if err := c.getJSON(ctx, "/maps/api/geocode/json", q, &resp); err != nil {
		return GeocodeResult{}, err
	}
	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return GeocodeResult{}, ErrNoResult
	default:
		return GeocodeResult{}, fmt.Errorf("%w: geocode status %s: %s", ErrUpstream, resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 {
		return GeocodeResult{}, ErrNoResult
	}
	first := resp.Results[0]
	return GeocodeResult{
		Lat:              first.Geometry.Location.Lat,
		Lng:              first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
	}, nil
}

type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Summary          string `json:"summary"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Warnings []string `json:"warnings"`
		Legs     []struct {
			Distance struct {
				Value int    `json:"value"`
				Text  string `json:"text"`
			} `json:"distance"`
			Duration struct {
				Value int    `json:"value"`
				Text  string `json:"text"`
			} `json:"duration"`
			StartAddress string `json:"start_address"`
			EndAddress   string `json:"end_address"`
			Steps        []struct {
				HTMLInstructions string `json:"html_instructions"`
				Distance         struct {
					Value int `json:"value"`
				} `json:"distance"`
				Duration struct {
					Value int `json:"value"`
				} `json:"duration"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
	ErrorMessage string `json:"error_message"`
}

// Directions fetches a driving route between two addresses and
// summarizes its first leg.
func (c *Client) Directions(ctx context.Context, origin, destination string) (Route, error) {
	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("mode", "driving")
	q.Set("language", "zh-TW")
	q.Set("region", "tw")

	var resp directionsResponse
	if err := c.getJSON(ctx, "/maps/api/directions/json", q, &resp); err != nil {
		return Route{}, err
	}
	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return Route{}, ErrNoRoute
	default:
		return Route{}, fmt.Errorf("%w: directions status %s: %s", ErrUpstream, resp.Status, resp.ErrorMessage)
	}
	if len(resp.Routes) == 0 || len(resp.Routes[0].Legs) == 0 {
		return Route{}, ErrNoRoute
	}

	raw := resp.Routes[0]
	leg := raw.Legs[0]
	route := Route{
		Summary:        raw.Summary,
		DistanceMeters: leg.Distance.Value,
		DistanceText:   leg.Distance.Text,
		DurationSecs:   leg.Duration.Value,
		DurationText:   leg.Duration.Text,
		StartAddress:   leg.StartAddress,
		EndAddress:     leg.EndAddress,
		Polyline:       raw.OverviewPolyline.Points,
		Warnings:       raw.Warnings,
	}
	for _, step := range leg.Steps {
		route.Steps = append(route.Steps, RouteStep{
			Instruction:    step.HTMLInstructions,
			DistanceMeters: step.Distance.Value,
			DurationSecs:   step.Duration.Value,
		})
	}
	return route, nil
}

// getJSON performs one GET with retry. Responses in the 4xx range are
// permanent failures; 5xx and transport errors back off and retry.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out interface{}) error {
	q.Set("key", c.apiKey)
	endpoint := c.baseURL + path + "?" + q.Encode()

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w: http %d", ErrUpstream, resp.StatusCode)
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("%w: http %d", ErrUpstream, resp.StatusCode))
		}
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: decode: %v", ErrUpstream, err))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newBackoff(), maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		c.logger.Warn(ctx, "maps request failed",
			logger.String("path", path),
			logger.Error(err))
		return err
	}
	return nil
}

func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}
