package sheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultSheetName = "Posts"
	DefaultTimeout   = 15 * time.Second
	acceptHeader     = "application/json,text/plain,*/*"
)

type Client struct {
	endpoint    string
	httpClient  *http.Client
	userAgent   string
	timeout     time.Duration
	collections []string
}

// NewClient expects an endpoint that already carries the sheet parameter,
// see EnsureSheetParam.
func NewClient(endpoint string, httpClient *http.Client, userAgent string, timeout time.Duration, collections []string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if len(collections) == 0 {
		collections = DefaultCollections
	}

	return &Client{
		endpoint:    endpoint,
		httpClient:  httpClient,
		userAgent:   userAgent,
		timeout:     timeout,
		collections: collections,
	}
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Fetch downloads the sheet and returns its rows. An empty sheet is not an error.
func (c *Client) Fetch(ctx context.Context) ([]Record, error) {
	payload, err := c.FetchPayload(ctx)
	if err != nil {
		return nil, err
	}

	records := payload.Records(c.collections)

	slog.Debug("Sheet fetched", "url", c.endpoint, "shape", payload.Shape.String(), "records", len(records))

	return records, nil
}

func (c *Client) FetchPayload(ctx context.Context) (Payload, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return Payload{}, &FetchError{URL: c.endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Accept", acceptHeader)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Payload{}, c.wrapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Payload{}, &FetchError{URL: c.endpoint, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Payload{}, c.wrapError(fmt.Errorf("failed to read response body: %w", err))
	}

	return Classify(resp.Header.Get("Content-Type"), body), nil
}

func (c *Client) wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: c.endpoint, Timeout: c.timeout, Err: err}
	}
	return &FetchError{URL: c.endpoint, Err: err}
}

// EnsureSheetParam adds sheet=<name> to the endpoint query unless one is present.
func EnsureSheetParam(endpoint, name string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid endpoint URL: %q is not absolute", endpoint)
	}

	if name == "" {
		name = DefaultSheetName
	}

	query := u.Query()
	if query.Get("sheet") == "" {
		query.Set("sheet", name)
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}
