package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBaseURL is the public Nominatim API endpoint
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	// UserAgent is required by Nominatim usage policy
	UserAgent = "SafeStreet/1.0 (https://safestreet.app)"
	// Rate limit: 1 request per second for Nominatim
	minRequestInterval = time.Second
)

// ErrNotFound is returned when geocoding yields no usable result. Callers
// treat it as a degraded outcome, not a hard failure: the workflow falls
// back to manual entry and the submission pipeline stores null coordinates.
var ErrNotFound = errors.New("location not found")

// Client handles Nominatim API interactions with rate limiting
type Client struct {
	baseURL       string
	httpClient    *http.Client
	lastRequest   time.Time
	rateLimitLock sync.Mutex
}

// NewClient creates a new geocoding client. An empty baseURL selects the
// public Nominatim endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Address contains the components shown to the user, in display order.
type Address struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Region     string `json:"region"`
	Country    string `json:"country"`
}

// Display composes the human-readable address line. Fields are joined in
// fixed order and empty fields are skipped together with their separator.
func (a Address) Display() string {
	parts := make([]string, 0, 6)
	for _, f := range []string{a.Name, a.Street, a.PostalCode, a.City, a.Region, a.Country} {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, ", ")
}

// nominatimResponse is the response from Nominatim reverse geocoding
type nominatimResponse struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Name        string           `json:"name"`
	Address     nominatimAddress `json:"address"`
}

// nominatimAddress contains address details from Nominatim
type nominatimAddress struct {
	Road     string `json:"road"`
	Suburb   string `json:"suburb"`
	City     string `json:"city"`
	Town     string `json:"town"`
	Village  string `json:"village"`
	State    string `json:"state"`
	PostCode string `json:"postcode"`
	Country  string `json:"country"`
}

// enforceRateLimit ensures we don't exceed Nominatim's rate limit
func (c *Client) enforceRateLimit() {
	c.rateLimitLock.Lock()
	defer c.rateLimitLock.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < minRequestInterval {
		time.Sleep(minRequestInterval - elapsed)
	}
	c.lastRequest = time.Now()
}

// ReverseGeocode turns coordinates into an Address. Any upstream or
// transport failure degrades to ErrNotFound.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (Address, error) {
	c.enforceRateLimit()

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")

	reqURL := fmt.Sprintf("%s/reverse?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Address{}, ErrNotFound
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Address{}, ErrNotFound
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Address{}, ErrNotFound
	}

	var nomResp nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&nomResp); err != nil {
		return Address{}, ErrNotFound
	}

	addr := Address{
		Name:       nomResp.Name,
		Street:     nomResp.Address.Road,
		PostalCode: nomResp.Address.PostCode,
		City:       firstNonEmpty(nomResp.Address.City, nomResp.Address.Town, nomResp.Address.Village),
		Region:     nomResp.Address.State,
		Country:    nomResp.Address.Country,
	}
	if addr.Display() == "" {
		return Address{}, ErrNotFound
	}
	return addr, nil
}

// ForwardGeocode resolves free-form location text into coordinates,
// selecting the first candidate. Returns ErrNotFound when the query
// matches nothing or the service is unreachable.
func (c *Client) ForwardGeocode(ctx context.Context, query string) (float64, float64, error) {
	c.enforceRateLimit()

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var candidates []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return 0, 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(candidates) == 0 {
		return 0, 0, ErrNotFound
	}

	lat, err := strconv.ParseFloat(candidates[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad latitude %q: %w", candidates[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(candidates[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad longitude %q: %w", candidates[0].Lon, err)
	}
	return lat, lon, nil
}

// ResolveManual accepts a typed address as-is. No network call.
func ResolveManual(text string) string {
	return text
}

// firstNonEmpty returns the first non-empty string from the arguments
func firstNonEmpty(strs ...string) string {
	for _, s := range strs {
		if s != "" {
			return s
		}
	}
	return ""
}
