package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thinkscotty/briefing/internal/models"
)

// ErrMalformedResponse is returned when a 2xx reply cannot be decoded into
// the expected shape.
var ErrMalformedResponse = errors.New("malformed response")

// APIError is a non-2xx reply from the backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// Client talks to the news-summary backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a backend client rooted at baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "Briefing/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListArticles fetches the article collection sorted newest first.
// A reply without a data field yields an empty list.
func (c *Client) ListArticles(ctx context.Context) ([]models.Article, error) {
	var result struct {
		Data []models.Article `json:"data"`
	}
	if err := c.do(ctx, "list_articles", http.MethodGet, "/api/graph/", nil, &result); err != nil {
		return nil, err
	}
	articles := result.Data
	if articles == nil {
		articles = []models.Article{}
	}
	models.SortByPublishedDesc(articles)
	return articles, nil
}

// RunPipeline asks the backend to regenerate article summaries. A 2xx reply
// whose status is not "success" is returned as a result, not an error; the
// caller decides via PipelineResult.OK.
func (c *Client) RunPipeline(ctx context.Context) (models.PipelineResult, error) {
	var result models.PipelineResult
	if err := c.do(ctx, "run_pipeline", http.MethodGet, "/api/run_pipeline", nil, &result); err != nil {
		return result, err
	}
	return result, nil
}

// ListFeeds fetches the configured feed sources.
func (c *Client) ListFeeds(ctx context.Context) ([]models.FeedSource, error) {
	var result struct {
		Sources []models.FeedSource `json:"sources"`
	}
	if err := c.do(ctx, "list_feeds", http.MethodGet, "/api/graph/feeds", nil, &result); err != nil {
		return nil, err
	}
	if result.Sources == nil {
		return []models.FeedSource{}, nil
	}
	return result.Sources, nil
}

// AddFeed submits a new feed source and returns the record the backend stored.
func (c *Client) AddFeed(ctx context.Context, feed models.FeedSource) (models.FeedSource, error) {
	var result struct {
		Source *models.FeedSource `json:"source"`
	}
	if err := c.do(ctx, "add_feed", http.MethodPost, "/api/graph/feeds", feed, &result); err != nil {
		return models.FeedSource{}, err
	}
	if result.Source == nil {
		return models.FeedSource{}, fmt.Errorf("add feed: %w: missing source", ErrMalformedResponse)
	}
	return *result.Source, nil
}

// DeleteFeed removes the feed source with the given name.
func (c *Client) DeleteFeed(ctx context.Context, name string) error {
	return c.do(ctx, "delete_feed", http.MethodDelete, "/api/graph/feeds/"+url.PathEscape(name), nil, nil)
}

// Ping checks that the backend answers at all. Any HTTP reply counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/api/graph/feeds", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping backend: %w", err)
	}
	resp.Body.Close()
	return nil
}

// do performs one request. in, when non-nil, is sent as JSON. out, when
// non-nil, receives the decoded 2xx body.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	start := time.Now()
	defer func() { observe(op, start, err) }()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, ErrMalformedResponse, err)
	}
	return nil
}

// decodeAPIError reads the detail field of an error body. Bodies that are
// not JSON, or have no usable detail, fall back to the status message.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || len(payload.Detail) == 0 {
		return apiErr
	}

	// FastAPI sends a string for HTTPException and a list of objects for
	// validation failures.
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil {
		apiErr.Detail = detail
		return apiErr
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		var msgs []string
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		apiErr.Detail = strings.Join(msgs, "; ")
	}
	return apiErr
}

// Message converts any client error into the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
