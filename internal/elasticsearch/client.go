package elasticsearch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Client wraps go-elasticsearch with the single search the inspector needs.
type Client struct {
	es    *elasticsearch.Client
	index string
	log   *slog.Logger
}

// SearchOptions shape the _search URL.
type SearchOptions struct {
	// DocType adds the legacy mapping type segment: /<index>/<type>/_search.
	DocType    string
	Preference string
	Pretty     bool
	// Timeout bounds the request; zero leaves it to the transport.
	Timeout time.Duration
}

// New instantiates the Elasticsearch client.
func New(addr, index string, logger *slog.Logger) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{addr},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{es: es, index: index, log: logger}, nil
}

// Index returns the index searched by the client.
func (c *Client) Index() string {
	return c.index
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) error {
	res, err := esapi.PingRequest{}.Do(ctx, c.es.Transport)
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

// SearchRaw posts body to the index and returns the undecoded response.
func (c *Client) SearchRaw(ctx context.Context, body []byte, opts SearchOptions) ([]byte, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := c.do(ctx, body, opts)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("search failed: %s: %s", res.Status, strings.TrimSpace(string(data)))
	}

	c.log.Debug("search completed",
		slog.String("index", c.index),
		slog.String("doc_type", opts.DocType),
		slog.Int("bytes", len(data)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

// do sends requests through the transport directly: clusters older than
// 7.14 never send X-Elastic-Product and fail the client's product check.
func (c *Client) do(ctx context.Context, body []byte, opts SearchOptions) (*http.Response, error) {
	if opts.DocType == "" {
		req := esapi.SearchRequest{
			Index:      []string{c.index},
			Body:       bytes.NewReader(body),
			Preference: opts.Preference,
			Pretty:     opts.Pretty,
		}
		res, err := req.Do(ctx, c.es.Transport)
		if err != nil {
			return nil, err
		}
		return &http.Response{StatusCode: res.StatusCode, Status: res.Status(), Header: res.Header, Body: res.Body}, nil
	}

	// esapi dropped mapping types, so the typed path is built by hand.
	path := "/" + url.PathEscape(c.index) + "/" + url.PathEscape(opts.DocType) + "/_search"
	q := url.Values{}
	if opts.Preference != "" {
		q.Set("preference", opts.Preference)
	}
	if opts.Pretty {
		q.Set("pretty", "true")
	}
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.es.Transport.Perform(req)
}

// Health checks cluster health.
func (c *Client) Health(ctx context.Context) error {
	res, err := esapi.ClusterHealthRequest{}.Do(ctx, c.es.Transport)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}
