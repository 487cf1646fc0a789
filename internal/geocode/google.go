package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Google uses the Google Maps Geocoding API.
type Google struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// NewGoogle creates a client. An empty baseURL selects the public endpoint.
func NewGoogle(baseURL, apiKey string) *Google {
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api"
	}
	return &Google{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *Google) Lookup(ctx context.Context, lat, lng float64) ([]Place, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("google api key not set: %w", ErrNoResult)
	}

	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%.6f,%.6f", lat, lng))
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", g.baseURL+"/geocode/json?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Google Geocoding API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Google Geocoding API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse Google Geocoding response: %w", err)
	}

	switch result.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNoResult
	default:
		return nil, fmt.Errorf("Google Geocoding API status %s: %s", result.Status, result.ErrorMessage)
	}

	places := make([]Place, 0, len(result.Results))
	for _, r := range result.Results {
		p := Place{Name: r.FormattedAddress}
		for _, c := range r.AddressComponents {
			for _, t := range c.Types {
				switch {
				case (t == "locality" || t == "postal_town") && p.City == "":
					p.City = c.LongName
				case t == "administrative_area_level_2" && p.Subregion == "":
					p.Subregion = c.LongName
				case t == "administrative_area_level_1" && p.Region == "":
					p.Region = c.LongName
				}
			}
		}
		places = append(places, p)
	}
	return places, nil
}
