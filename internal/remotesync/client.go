package remotesync

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/myconode/myconode/internal/logging"
	"github.com/myconode/myconode/internal/version"
	"go.uber.org/zap"
)

// DefaultTimeout is the default HTTP request timeout
const DefaultTimeout = 10 * time.Second

// LinkChecker reports whether the network link is currently up.
// *netlink.Link satisfies it.
type LinkChecker interface {
	IsConnected() bool
}

// Endpoint is the document store a Client talks to.
type Endpoint struct {
	// Host is the absolute base URL of the store (e.g., "https://grow.example").
	Host string
	// Secret is the optional auth token sent as "?auth=<secret>".
	Secret string
}

// Validate checks that the endpoint can produce well-formed URLs.
func (e Endpoint) Validate() error {
	if e.Host == "" {
		return errors.New("store host is required")
	}
	u, err := url.Parse(e.Host)
	if err != nil {
		return fmt.Errorf("invalid store host %q: %w", e.Host, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("store host %q must use http or https", e.Host)
	}
	if u.Host == "" {
		return fmt.Errorf("store host %q has no host name", e.Host)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("store host %q must not carry a query or fragment", e.Host)
	}
	if strings.ContainsAny(e.Secret, "&#? \t\r\n") {
		return errors.New("store secret must not contain '&', '#', '?' or whitespace")
	}
	return nil
}

// Client performs link-gated JSON transfers against the document store.
//
// Each operation checks the link immediately before sending and makes
// exactly one attempt. Results are HTTP status codes, StatusNoLink when
// nothing was sent, or another negative Status constant when the transport
// failed. A zero Client sends nothing and reports StatusNoLink.
type Client struct {
	endpoint Endpoint
	link     LinkChecker

	// HTTPClient is the underlying HTTP client. A replacement must keep
	// CheckRedirect returning http.ErrUseLastResponse so that a redirect
	// comes back to the caller as its own status code.
	HTTPClient *http.Client

	userAgent string

	mu      sync.Mutex
	lastErr *TransportError
}

// NewClient creates a client for endpoint gated on link.
func NewClient(endpoint Endpoint, link LinkChecker) (*Client, error) {
	if err := endpoint.Validate(); err != nil {
		return nil, err
	}
	if link == nil {
		return nil, errors.New("link checker is required")
	}
	return &Client{
		endpoint: endpoint,
		link:     link,
		HTTPClient: &http.Client{
			Timeout:       DefaultTimeout,
			CheckRedirect: noRedirect,
		},
		userAgent: version.UserAgent(),
	}, nil
}

// noRedirect stops the HTTP client after the first response.
func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

// SetTimeout sets the HTTP request timeout. Zero disables it.
// Redirect handling is left untouched.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// Endpoint returns the endpoint the client was built with.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// URL returns the full document URL for path.
func (c *Client) URL(path string) string {
	return BuildURL(c.endpoint.Host, path, c.endpoint.Secret)
}

// Put replaces the document at path with payload.
func (c *Client) Put(path string, payload []byte) int {
	return c.do(http.MethodPut, path, payload, nil)
}

// Post appends payload under path. When response is non-nil and the
// returned code is positive, the response body is stored in it.
func (c *Client) Post(path string, payload []byte, response *[]byte) int {
	return c.do(http.MethodPost, path, payload, response)
}

// Get reads the document at path into response when the returned code is
// positive.
func (c *Client) Get(path string, response *[]byte) int {
	return c.do(http.MethodGet, path, nil, response)
}

// Patch merges payload into the document at path.
func (c *Client) Patch(path string, payload []byte) int {
	return c.do(http.MethodPatch, path, payload, nil)
}

// LastError returns the transport error behind the most recent negative
// code other than StatusNoLink, or nil.
func (c *Client) LastError() *TransportError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Client) do(method, path string, payload []byte, response *[]byte) int {
	if c == nil || c.link == nil || c.HTTPClient == nil {
		return StatusNoLink
	}
	c.setLastError(nil)

	target := c.URL(path)
	if !c.link.IsConnected() {
		logging.LogSync(method, RedactURL(target), StatusNoLink, 0)
		return StatusNoLink
	}

	start := time.Now()
	code := c.roundTrip(method, target, payload, response)
	logging.LogSync(method, RedactURL(target), code, time.Since(start))
	return code
}

func (c *Client) roundTrip(method, target string, payload []byte, response *[]byte) int {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return c.fail(&TransportError{Type: ErrTypeUnknown, Code: StatusRequestFailed, Message: "failed to create request", Err: err})
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = RedactURL(urlErr.URL)
		}
		return c.fail(ClassifyTransportError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if response == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(&TransportError{Type: ErrTypeRead, Code: StatusReadFailure, Message: "failed to read response body", Err: err})
	}
	if resp.StatusCode > 0 {
		*response = data
	}
	return resp.StatusCode
}

func (c *Client) fail(te *TransportError) int {
	c.setLastError(te)
	logging.Debug("Sync transport failure",
		zap.String("type", te.Type.String()),
		zap.Int("code", te.Code),
		zap.Error(te.Err),
	)
	return te.Code
}

func (c *Client) setLastError(te *TransportError) {
	c.mu.Lock()
	c.lastErr = te
	c.mu.Unlock()
}
