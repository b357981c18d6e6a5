package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/resilience"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleGeocodeResponse is the JSON response from the Google Geocoding API.
type googleGeocodeResponse struct {
	Results      []googleResult `json:"results"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
}

type googleResult struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	FormattedAddress string `json:"formatted_address"`
}

// geocodeGoogle resolves a single free-text address.
func (g *geocoder) geocodeGoogle(ctx context.Context, address string) (*model.Coordinate, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}
	params := url.Values{"address": {address}}
	if g.region != "" {
		params.Set("region", g.region)
	}

	resp, err := g.call(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	loc := resp.Results[0].Geometry.Location
	pt := model.Coordinate{Latitude: loc.Lat, Longitude: loc.Lng}
	if !pt.Valid() {
		return nil, nil
	}
	return &pt, nil
}

// reverseGoogle returns the formatted address of the first result for lat/lng.
func (g *geocoder) reverseGoogle(ctx context.Context, lat, lng float64) (string, error) {
	params := url.Values{
		"latlng": {strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)},
	}
	resp, err := g.call(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return resp.Results[0].FormattedAddress, nil
}

// call performs one rate-limited request. ZERO_RESULTS yields an empty response, not an error.
func (g *geocoder) call(ctx context.Context, params url.Values) (*googleGeocodeResponse, error) {
	if g.apiKey == "" {
		return nil, eris.New("geocode: google api key not configured")
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: google rate limit")
	}

	params.Set("key", g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleGeocodeURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google build request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("geocode: google returned status %d", resp.StatusCode)
		if resilience.IsTransientStatus(resp.StatusCode) {
			return nil, resilience.Transient(err, resp.StatusCode)
		}
		return nil, err
	}

	var out googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "geocode: google parse response")
	}

	switch out.Status {
	case "OK":
		return &out, nil
	case "ZERO_RESULTS":
		return &googleGeocodeResponse{Status: out.Status}, nil
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return nil, resilience.Transient(eris.Errorf("geocode: google status %s", out.Status), http.StatusTooManyRequests)
	default:
		return nil, eris.Errorf("geocode: google status %s: %s", out.Status, out.ErrorMessage)
	}
}
