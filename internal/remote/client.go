package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/runger/selact/internal/provider"
)

const (
	// DefaultBaseURL is the public catalog service.
	DefaultBaseURL = "https://selact.dev"

	// DefaultPageSize is the page size used by the catalog browser.
	DefaultPageSize = 10

	// DefaultTimeout bounds every request.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 4 << 20
)

// ErrInvalidSubmission is returned by Publish before any request is sent
// when the provider cannot be accepted by the service.
var ErrInvalidSubmission = errors.New("provider cannot be published")

// Client calls the catalog HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.baseURL }

// Search returns one page of providers matching q, ordered by popularity.
func (c *Client) Search(ctx context.Context, q Query) (Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("pageSize", strconv.Itoa(q.PageSize))
	params.Set("keyword", q.Keyword)
	if q.Tag != "" {
		params.Set("tag", q.Tag)
	}

	var page Page
	if err := c.do(ctx, http.MethodGet, "/api/provider?"+params.Encode(), nil, &page); err != nil {
		return Page{}, fmt.Errorf("search page %d: %w", q.Page, err)
	}
	if page.Providers == nil {
		page.Providers = []Provider{}
	}
	return page, nil
}

// Initial returns the curated providers offered to a fresh install.
func (c *Client) Initial(ctx context.Context) ([]Provider, error) {
	var data struct {
		Providers []Provider `json:"providers"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/provider/init", nil, &data); err != nil {
		return nil, fmt.Errorf("initial providers: %w", err)
	}
	return data.Providers, nil
}

// Use records one more use of the provider.
func (c *Client) Use(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/provider/%d/use", id), nil, nil); err != nil {
		return fmt.Errorf("use provider %d: %w", id, err)
	}
	return nil
}

// Obsolete records that a user removed the provider.
func (c *Client) Obsolete(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/provider/%d/obsolete", id), nil, nil); err != nil {
		return fmt.Errorf("obsolete provider %d: %w", id, err)
	}
	return nil
}

// Publish submits p to the shared catalog and returns the stored entry,
// whose ProviderID is the service-assigned id.
func (c *Client) Publish(ctx context.Context, p provider.Provider) (Provider, error) {
	sub, err := NewSubmission(p)
	if err != nil {
		return Provider{}, err
	}
	body, err := json.Marshal(sub)
	if err != nil {
		return Provider{}, fmt.Errorf("encode submission: %w", err)
	}

	var created Provider
	if err := c.do(ctx, http.MethodPost, "/api/provider", body, &created); err != nil {
		return Provider{}, fmt.Errorf("publish %q: %w", p.Label, err)
	}
	if created.ProviderID <= 0 {
		return Provider{}, fmt.Errorf("publish %q: %w", p.Label, &APIError{Code: -1, Message: "response has no providerId"})
	}
	return created, nil
}

// NewSubmission validates p the way the service does and builds the
// publish body.
func NewSubmission(p provider.Provider) (Submission, error) {
	if p.Kind != provider.KindSearch {
		return Submission{}, fmt.Errorf("%w: only search providers can be shared", ErrInvalidSubmission)
	}
	if strings.TrimSpace(p.Label) == "" {
		return Submission{}, fmt.Errorf("%w: label is empty", ErrInvalidSubmission)
	}
	if !isAbsoluteURL(p.Homepage) {
		return Submission{}, fmt.Errorf("%w: homepage %q is not a URL", ErrInvalidSubmission, p.Homepage)
	}
	if !strings.Contains(p.Payload.Link, provider.Placeholder) {
		return Submission{}, fmt.Errorf("%w: link must contain %s", ErrInvalidSubmission, provider.Placeholder)
	}
	if !isAbsoluteURL(strings.ReplaceAll(p.Payload.Link, provider.Placeholder, "x")) {
		return Submission{}, fmt.Errorf("%w: link %q is not a URL", ErrInvalidSubmission, p.Payload.Link)
	}
	return Submission{
		Label:    p.Label,
		Homepage: p.Homepage,
		Icon:     p.Icon,
		Tag:      p.Group(),
		Link:     p.Payload.Link,
	}, nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// do sends one request and decodes the envelope's data into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{Code: resp.StatusCode, Message: fmt.Sprintf("server returned status %d", resp.StatusCode)}
	}

	var env envelope[json.RawMessage]
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&env); err != nil {
		return &APIError{Code: -1, Message: fmt.Sprintf("malformed response: %v", err)}
	}
	if env.Code != 0 {
		msg := env.Message
		if msg == "" {
			msg = "request rejected"
		}
		return &APIError{Code: env.Code, Message: msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &APIError{Code: -1, Message: fmt.Sprintf("malformed response data: %v", err)}
	}
	return nil
}
