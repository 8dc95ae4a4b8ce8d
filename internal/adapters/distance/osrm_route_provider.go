package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/platform/httpjson"
	"mileage-reimbursement-service/internal/platform/obs"
	"mileage-reimbursement-service/internal/ports"
	"net/url"
	"strings"
	"time"
)

const DefaultOSRMURL = "https://router.project-osrm.org"

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance *float64 `json:"distance"` // meters
	} `json:"routes"`
}

// OSRMRouteProvider implements ports.RouteProvider against an OSRM route service.
//
// One request per call, driving profile, no alternatives or geometry.
type OSRMRouteProvider struct {
	client  *httpjson.Client
	baseURL string
	profile string
}

func NewOSRMRouteProvider(baseURL, userAgent string, timeout time.Duration) *OSRMRouteProvider {
	if baseURL == "" {
		baseURL = DefaultOSRMURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &OSRMRouteProvider{
		client:  httpjson.New(timeout, userAgent),
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "driving",
	}
}

func (o *OSRMRouteProvider) Route(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (_ ports.DistanceResult, err error) {
	defer obs.Time(ctx, "osrm.Route")(&err)

	endpoint := fmt.Sprintf(
		"%s/route/v1/%s/%s;%s",
		o.baseURL, o.profile, lonLat(origin), lonLat(destination),
	)

	q := url.Values{}
	q.Set("overview", "false")
	q.Set("steps", "false")
	q.Set("alternatives", "false")

	var resp osrmResponse
	if err := o.client.GetJSON(ctx, endpoint, q, &resp); err != nil {
		return ports.DistanceResult{}, classifyOSRMError(err)
	}

	if isNoRoute(resp.Code) {
		return ports.DistanceResult{}, fmt.Errorf("osrm route: %w: %s", domain.ErrRouteNotFound, resp.Code)
	}
	if resp.Code != "Ok" {
		return ports.DistanceResult{}, fmt.Errorf("osrm route: %w: code %q: %s", domain.ErrRoutingUnavailable, resp.Code, resp.Message)
	}
	if len(resp.Routes) == 0 {
		return ports.DistanceResult{}, fmt.Errorf("osrm route: %w: empty route list", domain.ErrRouteNotFound)
	}

	meters := resp.Routes[0].Distance
	if meters == nil || *meters < 0 || math.IsNaN(*meters) || math.IsInf(*meters, 0) {
		return ports.DistanceResult{}, fmt.Errorf("osrm route: %w: malformed distance", domain.ErrRoutingUnavailable)
	}

	return ports.DistanceResult{
		Kilometers: domain.RoundKm(*meters / 1000),
		Method:     ports.MethodOSRM,
	}, nil
}

// OSRM answers 400 with a JSON body for unroutable coordinates.
func classifyOSRMError(err error) error {
	var se *httpjson.StatusError
	if errors.As(err, &se) && se.Code < 500 {
		var body osrmResponse
		if json.Unmarshal([]byte(se.Body), &body) == nil && isNoRoute(body.Code) {
			return fmt.Errorf("osrm route: %w: %s", domain.ErrRouteNotFound, body.Code)
		}
	}
	return fmt.Errorf("osrm route: %w: %w", domain.ErrRoutingUnavailable, err)
}

func isNoRoute(code string) bool {
	return code == "NoRoute" || code == "NoSegment"
}

func lonLat(c domain.Coordinates) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lon, c.Lat)
}
