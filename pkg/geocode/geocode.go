package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"github.com/zapkart/zapkart-backend/pkg/config"
	"github.com/zapkart/zapkart-backend/pkg/redis"
)

// Result is a resolved coordinate pair with the provider's display name.
type Result struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
	Provider    string  `json:"provider"`
}

type provider interface {
	name() string
	geocode(ctx context.Context, query string) (*Result, error)
	reverse(ctx context.Context, lat, lng float64) (*Result, error)
}

// Resolver chains providers in order and falls through on failure.
// Successful lookups are cached in redis; address text changes rarely.
type Resolver struct {
	providers []provider
	cache     *redis.Client
	cacheTTL  time.Duration
}

func NewResolver(cfg config.GeocodeConfig, cache *redis.Client) *Resolver {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &Resolver{
		providers: []provider{
			&nominatim{baseURL: cfg.NominatimBaseURL, userAgent: cfg.UserAgent, client: httpClient},
			&photon{baseURL: cfg.PhotonBaseURL, client: httpClient},
		},
		cache:    cache,
		cacheTTL: cfg.CacheTTL,
	}
}

func cacheKey(query string) string {
	return "geocode:" + query
}

func (r *Resolver) Resolve(ctx context.Context, query string) (*Result, error) {
	if query == "" {
		return nil, fmt.Errorf("empty geocode query")
	}
	return r.lookup(ctx, cacheKey(query), func(ctx context.Context, p provider) (*Result, error) {
		return p.geocode(ctx, query)
	})
}

// Reverse resolves coordinates to a display address, for example after
// the customer drags a map pin.
func (r *Resolver) Reverse(ctx context.Context, lat, lng float64) (*Result, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("coordinates out of range")
	}
	key := fmt.Sprintf("geocode:rev:%.5f,%.5f", lat, lng)
	return r.lookup(ctx, key, func(ctx context.Context, p provider) (*Result, error) {
		return p.reverse(ctx, lat, lng)
	})
}

func (r *Resolver) lookup(ctx context.Context, key string, call func(context.Context, provider) (*Result, error)) (*Result, error) {
	// Cache trouble never breaks geocoding; misses and errors both fall
	// through to the providers.
	if r.cache != nil {
		if raw, err := r.cache.Raw().Get(ctx, key).Result(); err == nil {
			var cached Result
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		}
	}

	var errs error
	for _, p := range r.providers {
		var result *Result
		backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			res, err := call(ctx, p)
			if err != nil {
				return retry.RetryableError(err)
			}
			result = res
			return nil
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", p.name(), err))
			continue
		}

		if r.cache != nil {
			if raw, err := json.Marshal(result); err == nil {
				_ = r.cache.Raw().Set(ctx, key, raw, r.cacheTTL).Err()
			}
		}
		return result, nil
	}

	return nil, fmt.Errorf("all geocode providers failed: %w", errs)
}

type nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func (n *nominatim) name() string { return "nominatim" }

func (n *nominatim) geocode(ctx context.Context, query string) (*Result, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", n.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, snippet)
	}

	var rows []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no matches")
	}

	lat, err := strconv.ParseFloat(rows[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat: %w", err)
	}
	lon, err := strconv.ParseFloat(rows[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon: %w", err)
	}

	return &Result{Latitude: lat, Longitude: lon, DisplayName: rows[0].DisplayName, Provider: n.name()}, nil
}

func (n *nominatim) reverse(ctx context.Context, lat, lng float64) (*Result, error) {
	endpoint := fmt.Sprintf("%s/reverse?lat=%f&lon=%f&format=json", n.baseURL, lat, lng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, snippet)
	}

	var row struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&row); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if row.DisplayName == "" {
		return nil, fmt.Errorf("no matches")
	}

	return &Result{Latitude: lat, Longitude: lng, DisplayName: row.DisplayName, Provider: n.name()}, nil
}

type photon struct {
	baseURL string
	client  *http.Client
}

func (p *photon) name() string { return "photon" }

func (p *photon) geocode(ctx context.Context, query string) (*Result, error) {
	endpoint := fmt.Sprintf("%s/api?q=%s&limit=1", p.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, snippet)
	}

	var payload struct {
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties struct {
				Name string `json:"name"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Features) == 0 || len(payload.Features[0].Geometry.Coordinates) < 2 {
		return nil, fmt.Errorf("no matches")
	}

	coords := payload.Features[0].Geometry.Coordinates
	return &Result{
		Latitude:    coords[1],
		Longitude:   coords[0],
		DisplayName: payload.Features[0].Properties.Name,
		Provider:    p.name(),
	}, nil
}

func (p *photon) reverse(ctx context.Context, lat, lng float64) (*Result, error) {
	endpoint := fmt.Sprintf("%s/reverse?lat=%f&lon=%f&limit=1", p.baseURL, lat, lng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, snippet)
	}

	var payload struct {
		Features []struct {
			Properties struct {
				Name string `json:"name"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Features) == 0 {
		return nil, fmt.Errorf("no matches")
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lng,
		DisplayName: payload.Features[0].Properties.Name,
		Provider:    p.name(),
	}, nil
}
