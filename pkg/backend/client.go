package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rescp17/landrop/pkg/device"
)

const (
	clientIDHeader = "X-Client-ID"

	// DefaultRequestTimeout bounds every request/response call. Event
	// streams are bounded by their subscription context instead.
	DefaultRequestTimeout = 30 * time.Second

	maxErrorBody = 4 << 10
)

// clientIDInjector is a custom http.RoundTripper that stamps every request
// with the client's id so the backend can tell UI sessions apart.
type clientIDInjector struct {
	clientID string
	next     http.RoundTripper
}

// RoundTrip adds the client id header and passes the request on.
func (t *clientIDInjector) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(clientIDHeader, t.clientID)
	return t.next.RoundTrip(req)
}

// Client talks to a backend process over its JSON HTTP API.
type Client struct {
	baseURL    *url.URL
	clientID   string
	httpClient *http.Client
	// streamClient shares the transport but has no overall timeout, since
	// event streams stay open for the whole session.
	streamClient *http.Client
}

// NewClient creates a backend client for baseURL, e.g. "http://127.0.0.1:8080".
func NewClient(baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: missing host", baseURL)
	}

	clientID := uuid.New().String()
	transport := &clientIDInjector{
		clientID: clientID,
		next:     http.DefaultTransport,
	}

	return &Client{
		baseURL:  u,
		clientID: clientID,
		httpClient: &http.Client{
			Timeout:   DefaultRequestTimeout,
			Transport: transport,
		},
		streamClient: &http.Client{
			Transport: transport,
		},
	}, nil
}

// ClientID returns the id sent with every request.
func (c *Client) ClientID() string {
	return c.clientID
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) DeviceInfo(ctx context.Context) (device.Device, error) {
	var d device.Device
	if err := c.do(ctx, "get device info", http.MethodGet, "/api/device", nil, &d); err != nil {
		return device.Device{}, err
	}
	return d, nil
}

func (c *Client) StartDiscovery(ctx context.Context) error {
	return c.do(ctx, "start discovery", http.MethodPost, "/api/discovery/start", nil, nil)
}

func (c *Client) StopDiscovery(ctx context.Context) error {
	return c.do(ctx, "stop discovery", http.MethodPost, "/api/discovery/stop", nil, nil)
}

func (c *Client) Devices(ctx context.Context) ([]device.Device, error) {
	var devices []device.Device
	if err := c.do(ctx, "get devices", http.MethodGet, "/api/devices", nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

type sendFileRequest struct {
	FilePath     string        `json:"filePath"`
	TargetDevice device.Device `json:"targetDevice"`
}

func (c *Client) SendFile(ctx context.Context, filePath string, target device.Device) error {
	payload := sendFileRequest{FilePath: filePath, TargetDevice: target}
	return c.do(ctx, "send file", http.MethodPost, "/api/send/file", payload, nil)
}

type sendTextRequest struct {
	Text         string        `json:"text"`
	TargetDevice device.Device `json:"targetDevice"`
}

func (c *Client) SendText(ctx context.Context, text string, target device.Device) error {
	payload := sendTextRequest{Text: text, TargetDevice: target}
	return c.do(ctx, "send text", http.MethodPost, "/api/send/text", payload, nil)
}

// do performs one JSON round trip. in is marshalled as the request body when
// non-nil; out receives the decoded response body when non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal payload: %w", op, err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, nil), body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(op, resp); err != nil {
		return err
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Op:     op,
		Status: resp.Status,
		Code:   resp.StatusCode,
		Body:   strings.TrimSpace(string(raw)),
	}
}

var _ Backend = (*Client)(nil)
