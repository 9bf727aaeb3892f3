package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client is a reverse geocoder for Nominatim-compatible servers. Calls go
// through a circuit breaker so a slow upstream does not hold up check-ins.
type Client struct {
	client    *http.Client
	baseURL   string
	userAgent string
	cb        *gobreaker.CircuitBreaker
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// NewClient creates a geocoding client for baseURL, e.g. https://nominatim.openstreetmap.org.
func NewClient(baseURL, userAgent string) *Client {
	settings := gobreaker.Settings{
		Name:        "Geocoder",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is bigger then 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &Client{
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		cb:        gobreaker.NewCircuitBreaker(settings),
	}
}

// ReverseGeocode returns the display name for the coordinates.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.reverse(ctx, lat, lon)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("geocoder unavailable: %w", err)
		}
		return "", err
	}
	return res.(string), nil
}

func (c *Client) reverse(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create geocoder request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("geocoder returned non-successful status code: %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	// Points that cannot be geocoded come back as 200 with an error field.
	if body.Error != "" {
		return "", nil
	}
	return body.DisplayName, nil
}
