package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/log"
)

// DefaultBaseURL is the address of a locally running inference service.
const DefaultBaseURL = "http://localhost:8000"

const (
	buildGraphEndpoint = "/build-graph"
	expandNodeEndpoint = "/expand-node"
	loadLatestEndpoint = "/load-latest/"
	statsEndpoint      = "/stats"
)

// GraphResponse is a full graph as returned by build-graph and load-latest.
type GraphResponse struct {
	System  string       `json:"system"`
	Version int          `json:"version"`
	Nodes   []graph.Node `json:"nodes"`
	Edges   []graph.Edge `json:"edges"`
	Message string       `json:"message,omitempty"`
}

// ExpandRequest asks the service for the neighbourhood of one node.
type ExpandRequest struct {
	System    string `json:"system" validate:"required"`
	NodeID    string `json:"node_id" validate:"required"`
	NodeLabel string `json:"node_label"`
	MaxDepth  int    `json:"max_depth" validate:"min=1,max=10"`
	Diff      bool   `json:"-"`
}

// ExpandResponse carries the subgraph added by an expansion.
type ExpandResponse struct {
	System     string       `json:"system"`
	Version    int          `json:"version"`
	AddedNodes []graph.Node `json:"added_nodes"`
	AddedEdges []graph.Edge `json:"added_edges"`
}

// Stats is the service health and usage report.
type Stats struct {
	Status   string          `json:"status"`
	LLMUsage json.RawMessage `json:"llm_usage,omitempty"`
}

type buildRequest struct {
	SystemName string `json:"system_name" validate:"required"`
	UseCache   bool   `json:"use_cache"`
}

// Client talks to the inference service that builds and expands graphs.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      *RetryConfig
	breaker    *gobreaker.CircuitBreaker
	logger     log.Logger
}

// Option is a function that configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL    string
	httpClient *http.Client
	retry      *RetryConfig
	breaker    *BreakerConfig
	logger     log.Logger
}

// WithBaseURL sets the base URL of the service.
func WithBaseURL(baseURL string) Option {
	return func(opts *clientOptions) {
		opts.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *clientOptions) {
		opts.httpClient = client
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(opts *clientOptions) {
		opts.httpClient = &http.Client{Timeout: d}
	}
}

// WithRetry sets the retry policy. Nil disables retries.
func WithRetry(rc *RetryConfig) Option {
	return func(opts *clientOptions) {
		opts.retry = rc
	}
}

// WithBreaker sets the circuit breaker configuration.
func WithBreaker(cfg BreakerConfig) Option {
	return func(opts *clientOptions) {
		opts.breaker = &cfg
	}
}

// WithLogger sets the client logger.
func WithLogger(l log.Logger) Option {
	return func(opts *clientOptions) {
		opts.logger = l
	}
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	options := &clientOptions{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		retry:      DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	u, err := url.Parse(options.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidRequest, options.baseURL)
	}
	if options.retry == nil {
		options.retry = NoRetry()
	}
	logger := log.OrNoOp(options.logger)
	breakerCfg := DefaultBreakerConfig()
	if options.breaker != nil {
		breakerCfg = *options.breaker
	}

	return &Client{
		baseURL:    strings.TrimSuffix(options.baseURL, "/"),
		httpClient: options.httpClient,
		retry:      options.retry,
		breaker:    newBreaker(breakerCfg, logger),
		logger:     logger,
	}, nil
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BuildGraph asks the service to infer the architecture of systemName.
func (c *Client) BuildGraph(ctx context.Context, systemName string, diff, useCache bool) (*GraphResponse, error) {
	body := buildRequest{SystemName: systemName, UseCache: useCache}
	if err := validateRequest(body); err != nil {
		return nil, err
	}

	var out GraphResponse
	endpoint := buildGraphEndpoint + "?diff=" + strconv.FormatBool(diff)
	if err := c.call(ctx, http.MethodPost, endpoint, body, &out); err != nil {
		return nil, fmt.Errorf("build graph %q: %w", systemName, err)
	}
	return &out, nil
}

// ExpandNode asks the service for the subgraph reachable from one node.
// A zero MaxDepth defaults to 1.
func (c *Client) ExpandNode(ctx context.Context, req ExpandRequest) (*ExpandResponse, error) {
	if req.MaxDepth == 0 {
		req.MaxDepth = 1
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var out ExpandResponse
	endpoint := expandNodeEndpoint + "?diff=" + strconv.FormatBool(req.Diff)
	if err := c.call(ctx, http.MethodPost, endpoint, req, &out); err != nil {
		return nil, fmt.Errorf("expand node %q: %w", req.NodeID, err)
	}
	return &out, nil
}

// LoadLatest returns the last graph saved by the service for system, or nil
// when there is none.
func (c *Client) LoadLatest(ctx context.Context, system string) (*GraphResponse, error) {
	var out GraphResponse
	err := c.call(ctx, http.MethodGet, loadLatestEndpoint+url.PathEscape(system), nil, &out)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest %q: %w", system, err)
	}
	if out.Message != "" {
		c.logger.Debug("no saved graph for %q: %s", system, out.Message)
		return nil, nil
	}
	return &out, nil
}

// Stats returns the service status report.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.call(ctx, http.MethodGet, statsEndpoint, nil, &out); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &out, nil
}

// call performs one logical request, with retries and the circuit breaker.
func (c *Client) call(ctx context.Context, method, endpoint string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	attempt := 0
	return c.retry.do(ctx, func() error {
		attempt++
		_, err := execute(c.breaker, func() (struct{}, error) {
			return struct{}{}, c.do(ctx, method, endpoint, payload, out)
		})
		if err != nil {
			c.logger.Warn("%s %s attempt %d failed: %v", method, endpoint, attempt, err)
		}
		return err
	})
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody map[string]any
		_ = json.Unmarshal(respBody, &errBody)
		return newAPIError(resp.StatusCode, errBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
