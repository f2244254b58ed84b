package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cyclopcam/logs"

	"github.com/tseten14/cvscan/pkg/geo"
	"github.com/tseten14/cvscan/pkg/www"
)

// Package geocode turns a free-text address into a coordinate, using a
// Nominatim-compatible search endpoint.

const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// ErrAddressNotFound means the service answered, but had no match for the query
var ErrAddressNotFound = errors.New("address not found")

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type Client struct {
	Log     logs.Log
	BaseURL string
	Client  *http.Client
}

func NewClient(log logs.Log, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Log:     log,
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Search resolves a free-text address to a point. A successful response with
// zero matches returns ErrAddressNotFound, which is not a failure of the
// service, just of the query.
func (c *Client) Search(ctx context.Context, query string) (geo.Point, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return geo.Point{}, ErrAddressNotFound
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return geo.Point{}, err
	}
	// Nominatim's usage policy requires an identifying agent
	req.Header.Set("User-Agent", "cvscan")

	results := []searchResult{}
	if err := www.FetchJSON(c.Client, req, &results); err != nil {
		c.Log.Warnf("Geocode request for '%v' failed: %v", query, err)
		return geo.Point{}, fmt.Errorf("geocode service: %w", err)
	}
	if len(results) == 0 {
		return geo.Point{}, ErrAddressNotFound
	}
	lat, err1 := strconv.ParseFloat(results[0].Lat, 64)
	lng, err2 := strconv.ParseFloat(results[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return geo.Point{}, fmt.Errorf("geocode service returned invalid coordinates '%v,%v'", results[0].Lat, results[0].Lon)
	}
	point := geo.Point{Lat: lat, Lng: lng, Label: results[0].DisplayName}
	if !point.IsValid() {
		return geo.Point{}, fmt.Errorf("geocode service returned out of range coordinates %v", point)
	}
	c.Log.Infof("Geocoded '%v' to %v", query, point)
	return point, nil
}
