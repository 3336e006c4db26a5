package lnurl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/ellemouton/lnscan/node"
	"github.com/lightningnetwork/lnd/tor"
)

const (
	// DefaultTimeout bounds each HTTP round trip.
	DefaultTimeout = 30 * time.Second

	// maxBodySize caps how much of a response is read.
	maxBodySize = 1 << 20
)

// Config configures a Client.
type Config struct {
	// HTTPClient is used for every request. If nil, a fresh client is
	// used.
	HTTPClient *http.Client

	// Timeout bounds every round trip. Zero means DefaultTimeout.
	Timeout time.Duration

	// Decoder decodes the invoices exchanged in the pay and withdraw
	// flows. Both flows fail with ErrNoDecoder without one.
	Decoder node.InvoiceDecoder

	// AllowInsecure permits http:// URLs on clearnet hosts. Meant for
	// regtest setups.
	AllowInsecure bool

	// Now returns the current time. If nil, time.Now is used.
	Now func() time.Time
}

// Client runs the LNURL flows. It holds no per-flow state, so one Client
// may be used for any number of concurrent flows.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Client from cfg.
func NewClient(cfg *Config) *Client {
	c := &Client{cfg: *cfg}

	c.http = cfg.HTTPClient
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.cfg.Timeout == 0 {
		c.cfg.Timeout = DefaultTimeout
	}
	if c.cfg.Now == nil {
		c.cfg.Now = time.Now
	}

	return c
}

// parseURL parses rawURL and checks the transport policy.
func (c *Client) parseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrInvalidURL,
			rawURL)
	}

	switch u.Scheme {
	case "https":

	case "http":
		if !c.cfg.AllowInsecure && !tor.IsOnionHost(u.Hostname()) {
			return nil, fmt.Errorf("%w: %v", ErrInsecureURL,
				u.Host)
		}

	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q",
			ErrInvalidURL, u.Scheme)
	}

	return u, nil
}

// get performs a single GET request and returns the body of a 2xx reply.
func (c *Client) get(ctx context.Context, u *url.URL) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	log.Debugf("GET %s://%s%s", u.Scheme, u.Host, u.Path)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, u.String(), nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportErr(u, err)
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, transportErr(u, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}

		var status StatusResponse
		_ = json.Unmarshal(body, &status)

		return nil, &ServerError{
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
			Reason:     status.Reason,
		}
	}

	return body, nil
}

// transportErr maps a failed round trip onto ErrTimeout or ErrConnection.
// Cancellation by the caller is returned as is.
func transportErr(u *url.URL, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():

		return fmt.Errorf("GET %v: %w", u.Host, ErrTimeout)

	case errors.Is(err, context.Canceled):
		return err

	default:
		return fmt.Errorf("%w: GET %v: %v", ErrConnection, u.Host, err)
	}
}

// withQuery returns a copy of u with params merged into its query string.
func withQuery(u *url.URL, params url.Values) *url.URL {
	out := *u

	query := out.Query()
	for k, vs := range params {
		query[k] = vs
	}
	out.RawQuery = query.Encode()

	return &out
}
