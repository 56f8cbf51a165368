package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kuidando/kuidando/config"
	"github.com/kuidando/kuidando/models"
)

// GeocodingResponse mirrors the Google Maps reverse geocoding payload.
type GeocodingResponse struct {
	Results []struct {
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status string `json:"status"`
}

// Geocoder resolves a coordinate into district/city/address context.
// Failures are non-fatal for callers; a report saves fine without them.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (*models.LocationDetail, error)
}

type geocodingService struct {
	apiKey     string
	httpClient *http.Client
}

func NewGeocodingService(conf *config.Config) Geocoder {
	return &geocodingService{
		apiKey:     conf.GoogleMapsApiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *geocodingService) ReverseGeocode(ctx context.Context, lat, lng float64) (*models.LocationDetail, error) {
	url := fmt.Sprintf("https://maps.googleapis.com/maps/api/geocode/json?latlng=%f,%f&key=%s", lat, lng, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error building geocoding request: %v", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching geocoding data: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %v", resp.StatusCode)
	}

	var geocodingResponse GeocodingResponse
	if err := json.NewDecoder(resp.Body).Decode(&geocodingResponse); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %v", err)
	}
	if len(geocodingResponse.Results) == 0 {
		return nil, fmt.Errorf("no geocoding results for %f,%f", lat, lng)
	}

	result := geocodingResponse.Results[0]
	detail := &models.LocationDetail{
		Address: result.FormattedAddress,
	}
	for _, component := range result.AddressComponents {
		if contains(component.Types, "sublocality_level_1") {
			detail.District = component.LongName
		} else if contains(component.Types, "administrative_area_level_2") {
			detail.City = component.LongName
		}
	}
	return detail, nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
