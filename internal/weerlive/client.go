// Package weerlive retrieves the current weather and the hourly forecast from the WeerLive API (weerlive.nl).
package weerlive

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"
)

const (
	DefaultURL     = "https://weerlive.nl/api/weerlive_api_v2.php"
	DefaultTimeout = 10 * time.Second
)

// A Client calls the WeerLive API for a single location.
type Client struct {
	HTTPClient *http.Client
	url        string
	apiKey     string
	latitude   float64
	longitude  float64
}

type clientOptions struct {
	url          string
	timeout      time.Duration
	insecure     bool
	roundTripper func(http.RoundTripper) http.RoundTripper
}

type Option func(*clientOptions)

// WithURL overrides the API endpoint. Mainly used for testing.
func WithURL(u string) Option {
	return func(o *clientOptions) {
		o.url = u
	}
}

// WithTimeout sets the timeout of each call. Default is 10 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithInsecure disables verification of the server's certificate.
func WithInsecure(insecure bool) Option {
	return func(o *clientOptions) {
		o.insecure = insecure
	}
}

// WithRoundTripper wraps the client's transport, e.g. to instrument it.
func WithRoundTripper(f func(http.RoundTripper) http.RoundTripper) Option {
	return func(o *clientOptions) {
		o.roundTripper = f
	}
}

// New returns a Client for the location at latitude/longitude.
func New(apiKey string, latitude, longitude float64, options ...Option) *Client {
	opts := clientOptions{
		url:      DefaultURL,
		timeout:  DefaultTimeout,
		insecure: true,
	}
	for _, option := range options {
		option(&opts)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.insecure {
		// the WeerLive API regularly presents certificates that don't validate.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	var rt http.RoundTripper = transport
	if opts.roundTripper != nil {
		rt = opts.roundTripper(rt)
	}

	jar, _ := cookiejar.New(nil)

	return &Client{
		HTTPClient: &http.Client{
			Transport: rt,
			Timeout:   opts.timeout,
			Jar:       jar,
		},
		url:       opts.url,
		apiKey:    apiKey,
		latitude:  latitude,
		longitude: longitude,
	}
}

// Fetch returns the current weather and hourly forecast.
//
// Fetch returns a *NetworkError if the API could not be reached, an *HTTPStatusError if the API did not return 200 OK
// and a *ParseError if the response could not be decoded.
func (c *Client) Fetch(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.target(), nil)
	if err != nil {
		return Snapshot{}, &NetworkError{Err: redact(err)}
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Snapshot{}, &NetworkError{Err: redact(err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, &NetworkError{Err: redact(err)}
	}

	var r response
	if err = json.Unmarshal(body, &r); err != nil {
		return Snapshot{}, &ParseError{Err: err}
	}
	if len(r.Live) == 0 {
		return Snapshot{}, &ParseError{Err: errNoLiveWeather}
	}
	return Snapshot{Live: r.Live[0], Forecast: r.Forecast}, nil
}

// target builds the request URL. The comma between latitude and longitude is sent as-is.
func (c *Client) target() string {
	return c.url +
		"?key=" + url.QueryEscape(c.apiKey) +
		"&locatie=" + strconv.FormatFloat(c.latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.longitude, 'f', -1, 64)
}

// redact strips the request URL (which holds the API key) from errors returned by net/http.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
