package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// Nominatim's usage policy allows at most one request per second.
	DefaultMinInterval = 1200 * time.Millisecond
	DefaultCacheTTL    = 24 * time.Hour
	maxResults         = 50
)

type cacheEntry struct {
	places    []Place
	fetchedAt time.Time
}

// Client queries the OpenStreetMap Nominatim search API. Calls are
// throttled to the configured minimum interval and responses are cached per
// (city, service, limit) query for the cache TTL. The clock is injectable so
// tests control expiry deterministically.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string

	minInterval time.Duration
	cacheTTL    time.Duration
	now         func() time.Time

	mu          sync.Mutex
	nextAllowed time.Time
	cache       map[string]cacheEntry
}

func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   userAgent,
		minInterval: DefaultMinInterval,
		cacheTTL:    DefaultCacheTTL,
		now:         time.Now,
		cache:       make(map[string]cacheEntry),
	}
}

// WithClock replaces the clock, for tests.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

func (c *Client) WithThrottle(minInterval, cacheTTL time.Duration) *Client {
	if minInterval > 0 {
		c.minInterval = minInterval
	}
	if cacheTTL > 0 {
		c.cacheTTL = cacheTTL
	}
	return c
}

func (c *Client) Search(ctx context.Context, city, service string, limit int) ([]Place, error) {
	city = strings.TrimSpace(city)
	service = strings.TrimSpace(service)
	if city == "" || service == "" {
		return nil, fmt.Errorf("nominatim: city and service are required")
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > maxResults {
		limit = maxResults
	}

	key := cacheKey(city, service, limit)

	if places, ok := c.cached(key); ok {
		log.Printf("[nominatim] cache hit for %q in %q", service, city)
		return places, nil
	}

	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	places, err := c.fetch(ctx, city, service, limit)
	if err != nil {
		return nil, err
	}

	c.store(key, places)

	return places, nil
}

func (c *Client) cached(key string) ([]Place, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[key]
	if !ok || c.now().Sub(entry.fetchedAt) > c.cacheTTL {
		return nil, false
	}
	return entry.places, true
}

func (c *Client) store(key string, places []Place) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{places: places, fetchedAt: c.now()}
}

// throttle reserves the next request slot, so concurrent callers are spaced
// out by the minimum interval even though none holds the lock while waiting.
// A caller cancelled mid-wait gives its slot back unless a later caller has
// already reserved past it.
func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	now := c.now()
	start := c.nextAllowed
	if start.Before(now) {
		start = now
	}
	wait := start.Sub(now)
	reserved := start.Add(c.minInterval)
	c.nextAllowed = reserved
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		if c.nextAllowed.Equal(reserved) {
			c.nextAllowed = start
		}
		c.mu.Unlock()
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func (c *Client) fetch(ctx context.Context, city, service string, limit int) ([]Place, error) {
	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("q", fmt.Sprintf("%s, %s", service, city))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("addressdetails", "1")
	params.Set("extratags", "1")

	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and network failures are failures, never successes.
		return nil, fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nominatim returned status %d: %s", resp.StatusCode, string(body))
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("nominatim response decode failed: %w", err)
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}

		places = append(places, Place{
			ExternalID: strconv.FormatInt(r.PlaceID, 10),
			Name:       r.DisplayName,
			Lat:        lat,
			Lon:        lon,
			Phone:      r.ExtraTags["phone"],
			Email:      r.ExtraTags["email"],
		})
	}

	return places, nil
}

func cacheKey(city, service string, limit int) string {
	return fmt.Sprintf("%s|%s|%d", strings.ToLower(city), strings.ToLower(service), limit)
}
