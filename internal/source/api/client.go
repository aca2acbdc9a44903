// Package api fetches sale records from the public products endpoint.
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vendas/internal/core"
	"vendas/internal/source"
)

const (
	DefaultURL     = "https://labdados.com/produtos"
	DefaultTimeout = 30 * time.Second

	// maxBody caps the payload read from upstream.
	maxBody = 64 << 20
)

type Client struct {
	baseURL string
	http    *http.Client
	group   singleflight.Group
	lower   cases.Caser
	logger  *slog.Logger
}

var _ source.RecordSource = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the default client, which only sets a timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, errors.Wrapf(err, "invalid products url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		lower:   cases.Lower(language.BrazilianPortuguese),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch issues one GET per distinct in-flight query; concurrent callers with
// the same query share the response. Failures are returned as is, there is
// no retry.
//
// The shared request is not tied to any one caller: a caller whose ctx ends
// stops waiting, the others keep theirs. The client timeout bounds it.
func (c *Client) Fetch(ctx context.Context, q source.Query) ([]core.Sale, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(q.Key(), func() (any, error) {
		return c.fetch(detached, q)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		sales := res.Val.([]core.Sale)
		if res.Shared {
			sales = append([]core.Sale(nil), sales...)
		}
		return sales, nil
	}
}

// URL builds the request URL for q: regiao is the lower-cased region name,
// ano the year, both empty when unconstrained.
func (c *Client) URL(q source.Query) string {
	params := url.Values{}
	params.Set("regiao", c.lower.String(q.Region))
	year := ""
	if q.Year != 0 {
		year = strconv.Itoa(q.Year)
	}
	params.Set("ano", year)
	return c.baseURL + "?" + params.Encode()
}

func (c *Client) fetch(ctx context.Context, q source.Query) ([]core.Sale, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(q), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request products")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrapf(source.ErrUpstreamStatus, "GET %s: %d", c.baseURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.Wrap(err, "read products body")
	}
	sales, err := core.DecodeSales(body)
	if err != nil {
		if errors.Is(err, core.ErrInvalidDate) {
			return nil, err
		}
		return nil, errors.Wrap(source.ErrMalformedPayload, err.Error())
	}

	c.logger.DebugContext(ctx, "Fetched products",
		"query", q.Key(),
		"records", len(sales),
		"duration_ms", time.Since(start).Milliseconds())
	return sales, nil
}
