package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dinefind/core/internal/config"
	"github.com/dinefind/core/internal/models"
)

const maxResponseBytes = 4 << 20

// client speaks the provider wire protocol. Credentials ride request
// headers for place calls; they never appear in logs.
type client struct {
	http       *http.Client
	baseURL    string
	geocodeURL string
	apiKey     string
}

func newClient(cfg config.ProviderConfig) *client {
	return &client{
		http:       &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		geocodeURL: strings.TrimRight(cfg.GeocodeURL, "/"),
		apiKey:     cfg.APIKey,
	}
}

func (c *client) searchText(ctx context.Context, p models.ProviderParams) ([]models.Candidate, error) {
	body := searchTextRequest{
		TextQuery:    p.TextQuery,
		LanguageCode: p.Language,
		RegionCode:   p.Region,
		OpenNow:      p.OpenNow,
		PageSize:     maxResultCount,
	}
	if p.Bias != nil {
		body.LocationBias = &circleArea{Circle: circleWire{
			Center: latLngWire{Latitude: p.Bias.Lat, Longitude: p.Bias.Lng},
			Radius: float64(p.Bias.RadiusMeters),
		}}
	}
	return c.searchCall(ctx, "/v1/places:searchText", body)
}

func (c *client) searchNearby(ctx context.Context, p models.ProviderParams, center models.LatLng) ([]models.Candidate, error) {
	radius := float64(p.RadiusMeters)
	rank := ""
	if p.RankByDistance {
		radius = maxProviderRadiusMeters
		rank = "DISTANCE"
	}
	body := searchNearbyRequest{
		LocationRestriction: circleArea{Circle: circleWire{
			Center: latLngWire{Latitude: center.Lat, Longitude: center.Lng},
			Radius: radius,
		}},
		IncludedTypes:  keywordTypes(p.Keyword),
		LanguageCode:   p.Language,
		RegionCode:     p.Region,
		MaxResultCount: maxResultCount,
		RankPreference: rank,
	}
	return c.searchCall(ctx, "/v1/places:searchNearby", body)
}

func (c *client) searchCall(ctx context.Context, path string, body any) ([]models.Candidate, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode provider request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", placeFieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errTransient, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read provider response: %v", errTransient, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, providerStatusError(resp.StatusCode, raw)
	}

	var decoded searchResponseWire
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	out := make([]models.Candidate, 0, len(decoded.Places))
	for _, place := range decoded.Places {
		out = append(out, place.toCandidate())
	}
	return out, nil
}

func providerStatusError(code int, body []byte) error {
	var e providerErrorWire
	msg := ""
	if json.Unmarshal(body, &e) == nil {
		msg = e.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	if retryableStatus(code) {
		return fmt.Errorf("%w: provider status %d: %s", errTransient, code, msg)
	}
	return fmt.Errorf("provider status %d: %s", code, msg)
}

// geocode resolves free-text to coordinates through the geocoding
// endpoint, which still takes the key as a query parameter.
func (c *client) geocode(ctx context.Context, query, region, lang string) (models.LatLng, error) {
	q := url.Values{}
	q.Set("address", query)
	if region != "" {
		q.Set("region", strings.ToLower(region))
	}
	if lang != "" {
		q.Set("language", lang)
	}
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.geocodeURL+"?"+q.Encode(), nil)
	if err != nil {
		return models.LatLng{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return models.LatLng{}, fmt.Errorf("%w: %v", errTransient, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return models.LatLng{}, fmt.Errorf("%w: read geocode response: %v", errTransient, err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.LatLng{}, providerStatusError(resp.StatusCode, raw)
	}

	var decoded geocodeResponseWire
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return models.LatLng{}, fmt.Errorf("decode geocode response: %w", err)
	}
	switch decoded.Status {
	case "OK":
		if len(decoded.Results) == 0 {
			return models.LatLng{}, fmt.Errorf("%w: empty result set", ErrGeocode)
		}
		loc := decoded.Results[0].Geometry.Location
		return models.LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
	case "ZERO_RESULTS":
		return models.LatLng{}, fmt.Errorf("%w: no match", ErrGeocode)
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return models.LatLng{}, fmt.Errorf("%w: geocode status %s", errTransient, decoded.Status)
	default:
		return models.LatLng{}, fmt.Errorf("geocode status %s: %s", decoded.Status, decoded.ErrorMessage)
	}
}

// fetchPhoto exchanges a photo reference for image bytes. Resolution is
// two steps so the API key stays on the provider-bound request and
// never travels to the image host.
func (c *client) fetchPhoto(ctx context.Context, ref string, maxWidthPx int) (io.ReadCloser, string, error) {
	q := url.Values{}
	q.Set("maxWidthPx", strconv.Itoa(maxWidthPx))
	q.Set("skipHttpRedirect", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/places/%s/media?%s", c.baseURL, ref, q.Encode()), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read photo media response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", providerStatusError(resp.StatusCode, raw)
	}

	var media photoMediaWire
	if err := json.Unmarshal(raw, &media); err != nil {
		return nil, "", fmt.Errorf("decode photo media response: %w", err)
	}
	if media.PhotoURI == "" {
		return nil, "", fmt.Errorf("photo media response without uri")
	}

	imgReq, err := http.NewRequestWithContext(ctx, http.MethodGet, media.PhotoURI, nil)
	if err != nil {
		return nil, "", err
	}
	imgResp, err := c.http.Do(imgReq)
	if err != nil {
		return nil, "", err
	}
	if imgResp.StatusCode != http.StatusOK {
		imgResp.Body.Close()
		return nil, "", fmt.Errorf("photo host status %d", imgResp.StatusCode)
	}
	return imgResp.Body, imgResp.Header.Get("Content-Type"), nil
}
