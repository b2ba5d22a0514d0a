package weerlive_test

import (
	"context"
	"errors"
	"github.com/clambin/sunguard/internal/weerlive"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const validResponse = `{
  "liveweer": [
    {"plaats": "Amsterdam", "image": "zonnig", "gr": 412, "temp": 21.4, "windbft": 2, "sup": "06:12", "sunder": "21:48"}
  ],
  "uur_verw": [
    {"uur": "13:00", "image": "zonnig", "gr": 430, "temp": 22, "windbft": 2},
    {"uur": "14:00", "image": "halfbewolkt", "gr": 300, "temp": 22, "windbft": 3}
  ]
}`

func TestClient_Fetch(t *testing.T) {
	var query string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(validResponse))
	}))
	t.Cleanup(s.Close)

	c := weerlive.New("my-key", 52.37, 4.89, weerlive.WithURL(s.URL))
	snapshot, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "key=my-key&locatie=52.37,4.89", query)
	assert.Equal(t, "zonnig", snapshot.Live.Image)
	assert.Equal(t, weerlive.Number(412), snapshot.Live.SunPower)
	assert.Equal(t, weerlive.Number(21.4), snapshot.Live.Temperature)
	assert.Equal(t, weerlive.Number(2), snapshot.Live.WindForce)
	assert.Equal(t, "06:12", snapshot.Live.Sunrise)
	assert.Equal(t, "21:48", snapshot.Live.Sunset)
	require.Len(t, snapshot.Forecast, 2)
	assert.Equal(t, "halfbewolkt", snapshot.Forecast[1].Image)
	assert.Equal(t, weerlive.Number(3), snapshot.Forecast[1].WindForce)
}

func TestClient_Fetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		target  error
	}{
		{
			name: "http error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
			},
			target: &weerlive.HTTPStatusError{},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"liveweer": [`))
			},
			target: &weerlive.ParseError{},
		},
		{
			name: "no live weather",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"liveweer": [], "uur_verw": []}`))
			},
			target: &weerlive.ParseError{},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				time.Sleep(500 * time.Millisecond)
				_, _ = w.Write([]byte(validResponse))
			},
			target: &weerlive.NetworkError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := httptest.NewServer(tt.handler)
			t.Cleanup(s.Close)

			c := weerlive.New("secret", 52, 4, weerlive.WithURL(s.URL), weerlive.WithTimeout(100*time.Millisecond))
			_, err := c.Fetch(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.NotContains(t, err.Error(), "secret")
		})
	}
}

func TestClient_Fetch_Unreachable(t *testing.T) {
	s := httptest.NewServer(http.NotFoundHandler())
	s.Close()

	c := weerlive.New("secret", 52, 4, weerlive.WithURL(s.URL))
	_, err := c.Fetch(context.Background())
	var networkErr *weerlive.NetworkError
	require.True(t, errors.As(err, &networkErr))
	assert.NotContains(t, err.Error(), "secret")
}

func TestClient_Fetch_Insecure(t *testing.T) {
	s := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(validResponse))
	}))
	t.Cleanup(s.Close)

	c := weerlive.New("key", 52, 4, weerlive.WithURL(s.URL))
	_, err := c.Fetch(context.Background())
	assert.NoError(t, err)

	c = weerlive.New("key", 52, 4, weerlive.WithURL(s.URL), weerlive.WithInsecure(false))
	_, err = c.Fetch(context.Background())
	assert.ErrorIs(t, err, &weerlive.NetworkError{})
}

func TestClient_Fetch_Redirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new?"+r.URL.RawQuery, http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(validResponse))
	})
	s := httptest.NewServer(mux)
	t.Cleanup(s.Close)

	c := weerlive.New("key", 52, 4, weerlive.WithURL(s.URL+"/old"))
	snapshot, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "zonnig", snapshot.Live.Image)
}

func TestClient_Fetch_Metrics(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(validResponse))
	}))
	t.Cleanup(s.Close)

	m := weerlive.NewMetrics("sunguard", "weerlive", map[string]string{"application": "sunguard"})
	c := weerlive.New("key", 52, 4, weerlive.WithURL(s.URL+"/api"), weerlive.WithRoundTripper(weerlive.Instrument(m)))
	_, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.NoError(t, testutil.CollectAndCompare(m, strings.NewReader(`
# HELP sunguard_weerlive_http_requests_total total number of http requests
# TYPE sunguard_weerlive_http_requests_total counter
sunguard_weerlive_http_requests_total{application="sunguard",code="200",method="GET",path="/api"} 1
`), "sunguard_weerlive_http_requests_total"))
}
