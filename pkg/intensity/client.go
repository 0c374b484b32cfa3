package intensity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultEndpoint is the carbon-intensity-by-zone API base URL.
const DefaultEndpoint = "https://api.electricitymap.org/v3"

// fetchTimeout bounds one poll so a stalled API can never block shutdown for
// long.
const fetchTimeout = 10 * time.Second

// Client fetches the latest carbon intensity for one zone over HTTP.
type Client struct {
	base   string
	zone   string
	apiKey string
	http   *http.Client
}

// NewClient builds a client for zone. An empty base uses DefaultEndpoint.
func NewClient(base, zone, apiKey string) *Client {
	if base == "" {
		base = DefaultEndpoint
	}
	return &Client{
		base:   base,
		zone:   zone,
		apiKey: apiKey,
		http:   &http.Client{Timeout: fetchTimeout},
	}
}

// Latest returns the current reading for the client's zone. Non-200 responses
// are errors; the caller treats any error as a missed poll.
func (c *Client) Latest(ctx context.Context) (Point, error) {
	u := fmt.Sprintf("%s/carbon-intensity/latest?zone=%s", c.base, url.QueryEscape(c.zone))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Point{}, fmt.Errorf("intensity: build request: %w", err)
	}
	req.Header.Set("auth-token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("intensity: fetch zone %s: %w", c.zone, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("intensity: fetch zone %s: status %d", c.zone, resp.StatusCode)
	}

	var body struct {
		CarbonIntensity float64 `json:"carbonIntensity"`
		UpdatedAt       string  `json:"updatedAt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Point{}, fmt.Errorf("intensity: decode response: %w", err)
	}
	at, err := time.Parse(time.RFC3339, body.UpdatedAt)
	if err != nil {
		// Some mirrors omit or mangle updatedAt; the reading is still usable.
		at = time.Now().UTC()
	}
	return Point{At: at, Value: body.CarbonIntensity}, nil
}
