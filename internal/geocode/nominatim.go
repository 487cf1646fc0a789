package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Nominatim queries an OpenStreetMap Nominatim server. Requests are limited
// to one per second, as the public instance's usage policy requires.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

type nominatimResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		Municipality  string `json:"municipality"`
		County        string `json:"county"`
		StateDistrict string `json:"state_district"`
		State         string `json:"state"`
	} `json:"address"`
}

// NewNominatim creates a client. Empty arguments select the public server
// and a default user agent.
func NewNominatim(baseURL, userAgent string) *Nominatim {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	if userAgent == "" {
		userAgent = "jason-client/1.0"
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (n *Nominatim) Lookup(ctx context.Context, lat, lng float64) ([]Place, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nominatim rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("zoom", "10")
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", n.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nominatim error %d: %s", resp.StatusCode, string(b))
	}

	var result nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse nominatim response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("nominatim: %s: %w", result.Error, ErrNoResult)
	}

	a := result.Address
	p := Place{
		City:      firstNonEmpty(a.City, a.Town, a.Village, a.Municipality),
		Subregion: firstNonEmpty(a.County, a.StateDistrict),
		Region:    a.State,
		Name:      firstNonEmpty(result.Name, result.DisplayName),
	}
	if p.Preferred() == "" {
		return nil, ErrNoResult
	}
	return []Place{p}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
