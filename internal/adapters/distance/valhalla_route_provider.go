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
	"strings"
	"time"
)

const DefaultValhallaURL = "https://valhalla1.openstreetmap.de"

// Valhalla error code for "no path could be found for input".
const valhallaNoPath = 442

type valhallaLocation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type valhallaRequest struct {
	Locations []valhallaLocation `json:"locations"`
	Costing   string             `json:"costing"`
	Units     string             `json:"units"`
}

type valhallaResponse struct {
	Trip *struct {
		Summary struct {
			Length *float64 `json:"length"` // kilometers
		} `json:"summary"`
	} `json:"trip"`
}

type valhallaError struct {
	ErrorCode int    `json:"error_code"`
	Error     string `json:"error"`
}

// ValhallaRouteProvider implements ports.RouteProvider against a Valhalla /route service.
type ValhallaRouteProvider struct {
	client  *httpjson.Client
	baseURL string
}

func NewValhallaRouteProvider(baseURL, userAgent string, timeout time.Duration) *ValhallaRouteProvider {
	if baseURL == "" {
		baseURL = DefaultValhallaURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ValhallaRouteProvider{
		client:  httpjson.New(timeout, userAgent),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (v *ValhallaRouteProvider) Route(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (_ ports.DistanceResult, err error) {
	defer obs.Time(ctx, "valhalla.Route")(&err)

	body := valhallaRequest{
		Locations: []valhallaLocation{
			{Lat: origin.Lat, Lon: origin.Lon},
			{Lat: destination.Lat, Lon: destination.Lon},
		},
		Costing: "auto",
		Units:   "kilometers",
	}

	var resp valhallaResponse
	if err := v.client.PostJSON(ctx, v.baseURL+"/route", body, &resp); err != nil {
		var se *httpjson.StatusError
		if errors.As(err, &se) && se.Code < 500 {
			var ve valhallaError
			if json.Unmarshal([]byte(se.Body), &ve) == nil && ve.ErrorCode == valhallaNoPath {
				return ports.DistanceResult{}, fmt.Errorf("valhalla route: %w: %s", domain.ErrRouteNotFound, ve.Error)
			}
		}
		return ports.DistanceResult{}, fmt.Errorf("valhalla route: %w: %w", domain.ErrRoutingUnavailable, err)
	}

	if resp.Trip == nil || resp.Trip.Summary.Length == nil {
		return ports.DistanceResult{}, fmt.Errorf("valhalla route: %w: missing trip summary", domain.ErrRoutingUnavailable)
	}

	km := *resp.Trip.Summary.Length
	if km < 0 || math.IsNaN(km) || math.IsInf(km, 0) {
		return ports.DistanceResult{}, fmt.Errorf("valhalla route: %w: malformed length", domain.ErrRoutingUnavailable)
	}

	return ports.DistanceResult{
		Kilometers: domain.RoundKm(km),
		Method:     ports.MethodValhalla,
	}, nil
}
