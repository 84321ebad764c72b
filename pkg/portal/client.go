package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Endpoint and page paths under the portal base URL. StreamPath and
// StreamPagePath are exported so the engine can put them on the session's
// traffic watch list.
const (
	membershipsPathFmt = "/learn/api/v1/users/%s/memberships?expand=course"

	// StreamPath is the activity-stream API endpoint.
	StreamPath = "/learn/api/v1/streams/ultra"

	// StreamPagePath is the interactive stream page whose source embeds
	// the identity fragment.
	StreamPagePath = "/ultra/stream"
)

// StreamRequestBody is the provider-signature payload the activity stream
// endpoint expects. Observed stream responses whose originating request does
// not carry this signature belong to other data kinds.
const StreamRequestBody = `{"providers":{"` + StreamProviderID + `":{}},"retrieveOnly":true}`

// HasProviderSignature reports whether a stream request payload targets the
// expected content provider.
func HasProviderSignature(requestBody string) bool {
	return strings.Contains(requestBody, `"`+StreamProviderID+`"`)
}

// Client performs raw authenticated fetches against the portal's internal
// API using a harvested session cookie. It holds no session state of its
// own; the cookie is supplied per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the portal at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchMemberships retrieves the raw course enrollments for a user.
func (c *Client) FetchMemberships(ctx context.Context, cookie, userID string) ([]byte, error) {
	url := c.baseURL + fmt.Sprintf(membershipsPathFmt, userID)
	return c.get(ctx, url, cookie)
}

// FetchActivityStream retrieves the raw activity stream using the provider
// signature payload.
func (c *Client) FetchActivityStream(ctx context.Context, cookie string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+StreamPath, strings.NewReader(StreamRequestBody))
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", cookie)

	return c.do(req)
}

func (c *Client) get(ctx context.Context, url, cookie string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Cookie", cookie)

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("portal fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("portal fetch %s: status %d", req.URL.Path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read portal response: %w", err)
	}
	return body, nil
}
