package api

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

	"go.uber.org/zap"

	"xref-tui/internal/verse"
)

const DefaultBaseURL = "http://127.0.0.1:8080/"

// TreeCache stores the navigation tree between runs.
type TreeCache interface {
	IsCached(host string) bool
	GetTree(host string) ([]TreeNode, error)
	PutTree(host string, nodes []TreeNode) error
}

type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	cache      TreeCache
	logger     *zap.Logger
}

// NewClient returns a client for the cross-reference server at baseURL.
// A zero timeout leaves requests unbounded.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", baseURL)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    u,
		logger:     zap.NewNop(),
	}, nil
}

func (c *Client) SetCache(cache TreeCache) {
	c.cache = cache
}

func (c *Client) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
}

// BaseURL is the server root, used as the page URL on start-up.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.ResolveReference(&url.URL{Path: path}).String()
}

// Elements fetches the neighbourhood around req.Verse.
func (c *Client) Elements(ctx context.Context, req ElementsRequest) (*Elements, error) {
	if req.FilterMode == "" {
		req.FilterMode = FilterAll
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &FetchError{Verse: req.Verse, Err: err}
	}

	var elements Elements
	if err := c.post(ctx, "/elements", "application/json", body, req.Verse, &elements); err != nil {
		return nil, err
	}
	return &elements, nil
}

// Table fetches the pre-rendered cross-reference table for v. The server
// answers with a JSON-encoded HTML fragment.
func (c *Client) Table(ctx context.Context, v verse.ID) (string, error) {
	var fragment string
	if err := c.post(ctx, "/table", "text/plain; charset=utf-8", []byte(v), v, &fragment); err != nil {
		return "", err
	}
	return fragment, nil
}

// Tree fetches the navigation tree, from the cache when one is set and warm.
func (c *Client) Tree(ctx context.Context) ([]TreeNode, error) {
	host := c.baseURL.Host
	if c.cache != nil && c.cache.IsCached(host) {
		if nodes, err := c.cache.GetTree(host); err == nil {
			return nodes, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/tree"), nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	var nodes []TreeNode
	if err := c.do(req, "", &nodes); err != nil {
		return nil, err
	}

	if c.cache != nil {
		// The tree is already in hand; a failed write only costs the next start.
		if err := c.cache.PutTree(host, nodes); err != nil {
			c.logger.Warn("caching navigation tree failed", zap.String("host", host), zap.Error(err))
		}
	}
	return nodes, nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body []byte, v verse.ID, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return &FetchError{Verse: v, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, v, out)
}

func (c *Client) do(req *http.Request, v verse.ID, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Verse: v, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &FetchError{
			Verse:  v,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Verse: v, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
