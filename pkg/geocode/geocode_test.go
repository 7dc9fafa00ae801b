package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zapkart/zapkart-backend/pkg/config"
)

func resolverFor(t *testing.T, nominatimURL, photonURL string) *Resolver {
	t.Helper()
	return NewResolver(config.GeocodeConfig{
		NominatimBaseURL: nominatimURL,
		PhotonBaseURL:    photonURL,
		UserAgent:        "test-agent",
		Timeout:          2 * time.Second,
		CacheTTL:         time.Minute,
	}, nil)
}

func TestResolvePrimaryProvider(t *testing.T) {
	nominatimSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("missing user agent")
		}
		w.Write([]byte(`[{"lat":"12.9716","lon":"77.5946","display_name":"Bengaluru"}]`))
	}))
	defer nominatimSrv.Close()

	r := resolverFor(t, nominatimSrv.URL, "http://unused.invalid")
	res, err := r.Resolve(context.Background(), "MG Road Bengaluru")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "nominatim" {
		t.Fatalf("expected nominatim, got %s", res.Provider)
	}
	if res.Latitude != 12.9716 || res.Longitude != 77.5946 {
		t.Fatalf("unexpected coordinates %v %v", res.Latitude, res.Longitude)
	}
}

func TestResolveFallsBackToPhoton(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer failing.Close()

	photonSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features":[{"geometry":{"coordinates":[77.5946,12.9716]},"properties":{"name":"Bengaluru"}}]}`))
	}))
	defer photonSrv.Close()

	r := resolverFor(t, failing.URL, photonSrv.URL)
	res, err := r.Resolve(context.Background(), "MG Road")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "photon" {
		t.Fatalf("expected photon fallback, got %s", res.Provider)
	}
}

func TestResolveErrorsWhenAllProvidersFail(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer failing.Close()

	r := resolverFor(t, failing.URL, failing.URL)
	if _, err := r.Resolve(context.Background(), "nowhere"); err == nil {
		t.Fatalf("expected error when all providers fail")
	}
}

func TestReverseResolvesDisplayName(t *testing.T) {
	nominatimSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"display_name":"12 Market Road, Bengaluru"}`))
	}))
	defer nominatimSrv.Close()

	r := resolverFor(t, nominatimSrv.URL, "http://unused.invalid")
	res, err := r.Reverse(context.Background(), 12.9716, 77.5946)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.DisplayName != "12 Market Road, Bengaluru" {
		t.Fatalf("unexpected display name %q", res.DisplayName)
	}
}

func TestReverseRejectsOutOfRangeCoordinates(t *testing.T) {
	r := resolverFor(t, "http://unused.invalid", "http://unused.invalid")
	if _, err := r.Reverse(context.Background(), 91, 0); err == nil {
		t.Fatalf("expected error for out-of-range latitude")
	}
}

func TestResolveRejectsEmptyQuery(t *testing.T) {
	r := resolverFor(t, "http://unused.invalid", "http://unused.invalid")
	if _, err := r.Resolve(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty query")
	}
}
