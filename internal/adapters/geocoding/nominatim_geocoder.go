package geocoding

import (
	"context"
	"errors"
	"fmt"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/platform/httpjson"
	"mileage-reimbursement-service/internal/platform/obs"
	"mileage-reimbursement-service/internal/ports"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultUserAgent    = "MileageReimbursement/1.0"
)

// Approximate geographic center of Italy, returned when nothing else resolves.
var DefaultFallback = domain.Coordinates{Lat: 41.9, Lon: 12.5}

type Options struct {
	BaseURL     string
	UserAgent   string
	CountryName string // appended to queries, e.g. "Italia"
	CountryCode string // countrycodes filter, e.g. "it"
	Fallback    domain.Coordinates
	Timeout     time.Duration
	// RequestsPerSecond throttles outbound calls; zero disables throttling.
	RequestsPerSecond float64
}

// NominatimGeocoder implements ports.Geocoder against a Nominatim search API.
//
// Each address walks a ladder of progressively less specific queries and
// stops at the first match. Geocode never fails; when every rung misses it
// returns the configured fallback coordinate. The geocoder is safe for
// concurrent use and coalesces concurrent lookups of the same address.
type NominatimGeocoder struct {
	client        *httpjson.Client
	baseURL       string
	countryName   string
	countryCode   string
	fallback      domain.Coordinates
	cache         ports.GeocodeCache
	limiter       *rate.Limiter
	group         singleflight.Group
	lookupTimeout time.Duration
	log           *zap.Logger
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

type resolution struct {
	coords domain.Coordinates
	step   step
	// cacheable is false when any rung hit a transport error, so an outage
	// does not pin the fallback coordinate in the cache.
	cacheable bool
}

func NewNominatimGeocoder(opts Options, cache ports.GeocodeCache, log *zap.Logger) (*NominatimGeocoder, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultNominatimURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Fallback == (domain.Coordinates{}) {
		opts.Fallback = DefaultFallback
	}
	if !opts.Fallback.Valid() {
		return nil, fmt.Errorf("nominatim geocoder: fallback coordinate %s out of range", opts.Fallback)
	}
	if log == nil {
		log = zap.NewNop()
	}

	g := &NominatimGeocoder{
		client:      httpjson.New(opts.Timeout, opts.UserAgent),
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		countryName: opts.CountryName,
		countryCode: opts.CountryCode,
		fallback:    opts.Fallback,
		cache:       cache,
		log:         log.Named("geocoder"),
	}
	// One request timeout per rung, plus slack for throttling.
	g.lookupTimeout = 5 * opts.Timeout
	if opts.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return g, nil
}

// Fallback returns the coordinate used when an address cannot be resolved.
func (g *NominatimGeocoder) Fallback() domain.Coordinates { return g.fallback }

func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) domain.Coordinates {
	if strings.TrimSpace(address) == "" {
		g.log.Warn("empty address, using fallback coordinate")
		return g.fallback
	}

	if g.cache != nil {
		c, ok, err := g.cache.Get(ctx, address)
		if err != nil {
			g.log.Warn("geocode cache read failed", zap.String("address", address), zap.Error(err))
		} else if ok {
			return c
		}
	}

	// The shared walk is detached from any one caller's deadline; each
	// caller waits on its own context.
	ch := g.group.DoChan(address, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.lookupTimeout)
		defer cancel()

		res := g.resolve(lctx, address)
		if res.cacheable && g.cache != nil {
			if err := g.cache.Put(lctx, address, res.coords); err != nil {
				g.log.Warn("geocode cache write failed", zap.String("address", address), zap.Error(err))
			}
		}
		return res.coords, nil
	})

	select {
	case r := <-ch:
		return r.Val.(domain.Coordinates)
	case <-ctx.Done():
		g.log.Warn("geocoding abandoned by caller, using fallback coordinate",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.String("address", address),
			zap.String("branch", "caller-cancelled"),
			zap.Error(ctx.Err()),
		)
		return g.fallback
	}
}

func (g *NominatimGeocoder) resolve(ctx context.Context, address string) resolution {
	sawError := false

	for _, a := range buildLadder(address, g.countryName) {
		log := g.log.With(
			zap.String("req_id", obs.RequestID(ctx)),
			zap.String("address", address),
			zap.String("step", string(a.step)),
			zap.String("query", a.query),
		)

		c, found, err := g.search(ctx, a)
		if err != nil {
			// A failing full-address lookup means the upstream is down; the
			// remaining rungs would hit the same outage.
			if a.step == stepFull {
				log.Error("geocoding upstream failed on first attempt, short-circuiting to fallback",
					zap.String("branch", "upstream-unavailable"),
					zap.Error(err),
				)
				return resolution{coords: g.fallback, step: stepFallback}
			}

			sawError = true
			log.Warn("geocoding attempt failed, continuing ladder",
				zap.String("branch", "attempt-error"),
				zap.Error(err),
			)
			continue
		}

		if found {
			log.Info("address geocoded", zap.Stringer("coords", c))
			return resolution{coords: c, step: a.step, cacheable: !sawError}
		}
		log.Debug("no geocoding match", zap.String("branch", "no-match"))
	}

	g.log.Warn("all geocoding attempts missed, using fallback coordinate",
		zap.String("req_id", obs.RequestID(ctx)),
		zap.String("address", address),
		zap.String("branch", "exhausted"),
		zap.Stringer("coords", g.fallback),
	)

	return resolution{coords: g.fallback, step: stepFallback, cacheable: !sawError}
}

// search runs one ladder rung and returns the first match, if any.
func (g *NominatimGeocoder) search(ctx context.Context, a attempt) (_ domain.Coordinates, _ bool, err error) {
	defer obs.Time(ctx, "nominatim.search")(&err)

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return domain.Coordinates{}, false, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	q := url.Values{}
	q.Set("q", a.query)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(a.limit))
	if g.countryCode != "" {
		q.Set("countrycodes", g.countryCode)
	}
	if a.addressDetails {
		q.Set("addressdetails", "1")
	}

	var decoded []searchResult
	if err := g.client.GetJSON(ctx, g.baseURL+"/search", q, &decoded); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("nominatim search %q: %w", a.query, err)
	}

	if len(decoded) == 0 {
		return domain.Coordinates{}, false, nil
	}

	c, err := parseResult(decoded[0])
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("nominatim search %q: %w", a.query, err)
	}
	return c, true, nil
}

var errCoordinateRange = errors.New("coordinate out of range")

func parseResult(r searchResult) (domain.Coordinates, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.Lat), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse lat %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(r.Lon), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse lon %q: %w", r.Lon, err)
	}

	c := domain.Coordinates{Lat: lat, Lon: lon}
	if !c.Valid() {
		return domain.Coordinates{}, fmt.Errorf("%w: %s", errCoordinateRange, c)
	}
	return c, nil
}
