package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	log := logs.NewTestingLog(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "json", r.URL.Query().Get("format"))
		require.Equal(t, "1", r.URL.Query().Get("limit"))
		switch r.URL.Query().Get("q") {
		case "ann arbor":
			w.Write([]byte(`[{"lat":"42.2808256","lon":"-83.7430378","display_name":"Ann Arbor, Washtenaw County, Michigan"}]`))
		case "bogus coords":
			w.Write([]byte(`[{"lat":"not-a-number","lon":"-83.7","display_name":"x"}]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer ts.Close()

	client := NewClient(log, ts.URL)

	point, err := client.Search(context.Background(), "ann arbor")
	require.NoError(t, err)
	require.InDelta(t, 42.2808256, point.Lat, 1e-9)
	require.InDelta(t, -83.7430378, point.Lng, 1e-9)
	require.Equal(t, "Ann Arbor, Washtenaw County, Michigan", point.Label)

	_, err = client.Search(context.Background(), "nowhere at all")
	require.ErrorIs(t, err, ErrAddressNotFound)

	// Empty and whitespace queries never reach the network
	_, err = client.Search(context.Background(), "   ")
	require.ErrorIs(t, err, ErrAddressNotFound)

	_, err = client.Search(context.Background(), "bogus coords")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAddressNotFound)
}

func TestSearchServiceDown(t *testing.T) {
	log := logs.NewTestingLog(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "over capacity", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client := NewClient(log, ts.URL)
	_, err := client.Search(context.Background(), "ann arbor")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAddressNotFound)
}
