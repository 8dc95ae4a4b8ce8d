package geocoding

import (
	"context"
	"encoding/json"
	"mileage-reimbursement-service/internal/domain"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNominatim struct {
	mu      sync.Mutex
	queries []string
	// answers maps a query to the lat/lon pair returned for it.
	answers map[string][2]string
	// failing queries get a 500.
	failing map[string]bool
	// delay is applied to every request before answering.
	delay time.Duration
}

func (f *fakeNominatim) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	time.Sleep(f.delay)

	if f.failing[q] {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
		return
	}

	out := []map[string]string{}
	if ll, ok := f.answers[q]; ok {
		out = append(out, map[string]string{"lat": ll[0], "lon": ll[1], "display_name": q})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (f *fakeNominatim) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]domain.Coordinates
}

func newMapCache() *mapCache { return &mapCache{m: map[string]domain.Coordinates{}} }

func (c *mapCache) Get(_ context.Context, address string) (domain.Coordinates, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[address]
	return v, ok, nil
}

func (c *mapCache) Put(_ context.Context, address string, v domain.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[address] = v
	return nil
}

func newTestGeocoder(t *testing.T, f *fakeNominatim, cache *mapCache) *NominatimGeocoder {
	t.Helper()

	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	g, err := NewNominatimGeocoder(Options{
		BaseURL:     srv.URL,
		CountryName: "Italia",
		CountryCode: "it",
	}, cache, nil)
	require.NoError(t, err)
	return g
}

func TestGeocodeFullAddressMatch(t *testing.T) {
	f := &fakeNominatim{answers: map[string][2]string{
		"Via Roma 10, Milano, Italia": {"45.4642", "9.1900"},
	}}
	cache := newMapCache()
	g := newTestGeocoder(t, f, cache)

	got := g.Geocode(context.Background(), "Via Roma 10, Milano")

	assert.Equal(t, domain.Coordinates{Lat: 45.4642, Lon: 9.19}, got)
	assert.Equal(t, []string{"Via Roma 10, Milano, Italia"}, f.calls())
	assert.Contains(t, cache.m, "Via Roma 10, Milano")
}

func TestGeocodeSendsSearchParameters(t *testing.T) {
	var got http.Header
	var params map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		params = r.URL.Query()
		_, _ = w.Write([]byte(`[{"lat":"45.0","lon":"9.0"}]`))
	}))
	defer srv.Close()

	g, err := NewNominatimGeocoder(Options{
		BaseURL:     srv.URL,
		UserAgent:   "RimborsoKM/1.0",
		CountryName: "Italia",
		CountryCode: "it",
	}, nil, nil)
	require.NoError(t, err)

	g.Geocode(context.Background(), "Via Roma 10, Milano")

	assert.Equal(t, "RimborsoKM/1.0", got.Get("User-Agent"))
	assert.Equal(t, []string{"json"}, params["format"])
	assert.Equal(t, []string{"3"}, params["limit"])
	assert.Equal(t, []string{"it"}, params["countrycodes"])
	assert.Equal(t, []string{"1"}, params["addressdetails"])
}

func TestGeocodeDegradesToCity(t *testing.T) {
	f := &fakeNominatim{answers: map[string][2]string{
		"Bologna, Italia": {"44.4949", "11.3426"},
	}}
	g := newTestGeocoder(t, f, newMapCache())

	got := g.Geocode(context.Background(), "Via Inesistente 999, Bologna")

	assert.Equal(t, domain.Coordinates{Lat: 44.4949, Lon: 11.3426}, got)
	assert.Equal(t, []string{
		"Via Inesistente 999, Bologna, Italia",
		"Bologna, Italia",
	}, f.calls())
}

func TestGeocodeExhaustedLadderReturnsFallback(t *testing.T) {
	f := &fakeNominatim{}
	cache := newMapCache()
	g := newTestGeocoder(t, f, cache)

	got := g.Geocode(context.Background(), "Xyzzy Plugh, Nowhere")

	assert.Equal(t, DefaultFallback, got)
	assert.Len(t, f.calls(), 4)
	// An honest miss is cached so the ladder is not walked again.
	assert.Equal(t, DefaultFallback, cache.m["Xyzzy Plugh, Nowhere"])
}

func TestGeocodeCacheHitSkipsUpstream(t *testing.T) {
	f := &fakeNominatim{answers: map[string][2]string{
		"Via Roma 10, Milano, Italia": {"45.4642", "9.1900"},
	}}
	g := newTestGeocoder(t, f, newMapCache())

	first := g.Geocode(context.Background(), "Via Roma 10, Milano")
	second := g.Geocode(context.Background(), "Via Roma 10, Milano")

	assert.Equal(t, first, second)
	assert.Len(t, f.calls(), 1)
}

func TestGeocodeFirstAttemptFailureShortCircuits(t *testing.T) {
	f := &fakeNominatim{
		failing: map[string]bool{"Via Roma 10, Milano, Italia": true},
		answers: map[string][2]string{"Milano, Italia": {"45.4642", "9.1900"}},
	}
	cache := newMapCache()
	g := newTestGeocoder(t, f, cache)

	got := g.Geocode(context.Background(), "Via Roma 10, Milano")

	assert.Equal(t, DefaultFallback, got)
	assert.Len(t, f.calls(), 1)
	assert.NotContains(t, cache.m, "Via Roma 10, Milano")
}

func TestGeocodeLaterAttemptFailureContinues(t *testing.T) {
	f := &fakeNominatim{
		failing: map[string]bool{"Milano, Italia": true},
		answers: map[string][2]string{"Via Roma, Italia": {"45.1", "9.1"}},
	}
	cache := newMapCache()
	g := newTestGeocoder(t, f, cache)

	got := g.Geocode(context.Background(), "Via Roma 10, Milano")

	assert.Equal(t, domain.Coordinates{Lat: 45.1, Lon: 9.1}, got)
	assert.Len(t, f.calls(), 3)
	assert.NotContains(t, cache.m, "Via Roma 10, Milano")
}

func TestGeocodeMalformedCoordinatesCountAsFailure(t *testing.T) {
	f := &fakeNominatim{answers: map[string][2]string{
		"Milano, Italia":   {"not-a-number", "9.19"},
		"Via Roma, Italia": {"45.1", "9.1"},
	}}
	g := newTestGeocoder(t, f, newMapCache())

	got := g.Geocode(context.Background(), "Via Roma 10, Milano")
	assert.Equal(t, domain.Coordinates{Lat: 45.1, Lon: 9.1}, got)
}

func TestGeocodeEmptyAddress(t *testing.T) {
	f := &fakeNominatim{}
	g := newTestGeocoder(t, f, newMapCache())

	assert.Equal(t, DefaultFallback, g.Geocode(context.Background(), "  "))
	assert.Empty(t, f.calls())
}

func TestNewNominatimGeocoderRejectsInvalidFallback(t *testing.T) {
	_, err := NewNominatimGeocoder(Options{Fallback: domain.Coordinates{Lat: 123, Lon: 0}}, nil, nil)
	require.Error(t, err)
}

func TestGeocodeCoalescedCallerSurvivesCancelledLeader(t *testing.T) {
	const address = "Via Roma 1, Milano"
	want := domain.Coordinates{Lat: 45.4642, Lon: 9.19}

	f := &fakeNominatim{
		delay:   300 * time.Millisecond,
		answers: map[string][2]string{"Via Roma 1, Milano, Italia": {"45.4642", "9.1900"}},
	}
	cache := newMapCache()
	g := newTestGeocoder(t, f, cache)

	leaderCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	leader := make(chan domain.Coordinates, 1)
	go func() { leader <- g.Geocode(leaderCtx, address) }()

	require.Eventually(t, func() bool { return len(f.calls()) == 1 }, time.Second, 5*time.Millisecond)

	got := g.Geocode(context.Background(), address)

	assert.Equal(t, want, got)
	assert.Equal(t, DefaultFallback, <-leader)
	assert.Len(t, f.calls(), 1)

	cached, ok, _ := cache.Get(context.Background(), address)
	assert.True(t, ok)
	assert.Equal(t, want, cached)
}
