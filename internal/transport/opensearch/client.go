// Package opensearch talks to the search engine over its REST API.
package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/opensearch-project/opensearch-go"
	"github.com/opensearch-project/opensearch-go/opensearchapi"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchc/internal/domain"
	"github.com/kailas-cloud/searchc/internal/metrics"
)

// Operation names for errors and metrics.
const (
	OpSearch      = "search"
	OpTermVectors = "termvectors"
	OpPing        = "ping"
)

// Config holds the engine connection settings.
type Config struct {
	Addrs              []string
	Username           string
	Password           string
	MaxRetries         int
	RetryOnStatus      []int
	InsecureSkipVerify bool
	Logger             *zap.Logger
}

// Error is a non-2xx engine response. 5xx responses unwrap to domain.ErrEngineUnavailable.
type Error struct {
	Op     string
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("opensearch %s: status %d: %s", e.Op, e.Status, e.Body)
}

func (e *Error) Unwrap() error {
	if e.Status >= http.StatusInternalServerError {
		return domain.ErrEngineUnavailable
	}
	return nil
}

// Client runs raw JSON requests against the engine.
type Client struct {
	client *opensearch.Client
	logger *zap.Logger
}

// NewClient creates an engine client.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("engine addrs is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses: cfg.Addrs,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for self-signed dev clusters
			},
		},
		RetryOnStatus: cfg.RetryOnStatus,
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}
	return &Client{client: osClient, logger: logger}, nil
}

// Search runs a search request body against index and returns the raw response.
func (c *Client) Search(ctx context.Context, index string, body []byte) ([]byte, error) {
	start := time.Now()
	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(index),
		c.client.Search.WithBody(bytes.NewReader(body)),
	)
	return c.read(OpSearch, start, res, err)
}

// TermVectors runs a term vectors request body against index and returns the raw response.
func (c *Client) TermVectors(ctx context.Context, index string, body []byte) ([]byte, error) {
	start := time.Now()
	res, err := c.client.Termvectors(index,
		c.client.Termvectors.WithContext(ctx),
		c.client.Termvectors.WithBody(bytes.NewReader(body)),
	)
	return c.read(OpTermVectors, start, res, err)
}

// Ping checks that the engine answers.
func (c *Client) Ping(ctx context.Context) error {
	start := time.Now()
	res, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	_, err = c.read(OpPing, start, res, err)
	return err
}

func (c *Client) read(op string, start time.Time, res *opensearchapi.Response, err error) ([]byte, error) {
	if err != nil {
		c.observe(op, "error", start)
		return nil, fmt.Errorf("opensearch %s: %w: %w", op, domain.ErrEngineUnavailable, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		c.observe(op, "error", start)
		return nil, fmt.Errorf("opensearch %s: read body: %w", op, err)
	}
	c.observe(op, strconv.Itoa(res.StatusCode), start)

	if res.IsError() {
		c.logger.Warn("Engine request failed",
			zap.String("op", op), zap.Int("status", res.StatusCode), zap.ByteString("body", truncate(data)))
		return nil, &Error{Op: op, Status: res.StatusCode, Body: string(truncate(data))}
	}
	return data, nil
}

func (c *Client) observe(op, status string, start time.Time) {
	metrics.EngineRequestDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}

const maxErrorBody = 2048

func truncate(b []byte) []byte {
	if len(b) > maxErrorBody {
		return b[:maxErrorBody]
	}
	return b
}
