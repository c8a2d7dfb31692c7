// Package apiclient talks to the backend API. Every outgoing target passes
// through the configured interceptors (by default the /api prefix) and is
// resolved against the backend base URL. Each exchange is a single
// request/response: no retries, no caching.
package apiclient

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName      = "github.com/simp-lee/authportal/internal/apiclient"
	defaultTimeout  = 15 * time.Second
	maxResponseBody = 1 << 20
)

// Client is a JSON/text HTTP client bound to one backend.
type Client struct {
	base         *url.URL
	http         *http.Client
	interceptors []Interceptor
	tracer       trace.Tracer
	propagator   propagation.TextMapPropagator
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-exchange timeout. A client passed through
// WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// WithInterceptors replaces the interceptor chain. Interceptors run in order.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(c *Client) {
		c.interceptors = interceptors
	}
}

// WithTracerProvider sets the provider used to create exchange spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// New creates a Client for the backend at baseURL, which must be an absolute
// http(s) URL. The default interceptor chain is [PrefixAPI].
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q: host is required", baseURL)
	}

	c := &Client{
		base:         u,
		http:         &http.Client{Timeout: defaultTimeout},
		interceptors: []Interceptor{PrefixAPI},
		tracer:       otel.GetTracerProvider().Tracer(tracerName),
		propagator:   otel.GetTextMapPropagator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Resolve applies the interceptor chain to target and resolves the result
// against the base URL.
func (c *Client) Resolve(target string) (string, error) {
	for _, ic := range c.interceptors {
		target = ic(target)
	}
	ref, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse request target %q: %w", target, err)
	}
	return c.base.ResolveReference(ref).String(), nil
}

// DoJSON sends in (when non-nil) as a JSON body and decodes a 2xx JSON
// response into out (when non-nil). Non-2xx responses and transport failures
// are returned as *HTTPError.
func (c *Client) DoJSON(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	payload, endpoint, err := c.do(ctx, method, target, body, "application/json")
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return nil
}

// DoText performs a body-less request and returns the 2xx response as text.
func (c *Client) DoText(ctx context.Context, method, target string) (string, error) {
	payload, _, err := c.do(ctx, method, target, nil, "text/plain")
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader, accept string) (payload []byte, endpoint string, err error) {
	endpoint, err = c.Resolve(target)
	if err != nil {
		return nil, "", err
	}

	ctx, span := c.tracer.Start(ctx, method+" "+target,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", endpoint),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, endpoint, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, endpoint, &HTTPError{URL: endpoint, Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	payload, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, endpoint, &HTTPError{Status: resp.StatusCode, URL: endpoint, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, endpoint, &HTTPError{Status: resp.StatusCode, URL: endpoint, Body: payload}
	}
	return payload, endpoint, nil
}

// unwrapURLError strips the *url.Error wrapper, whose message repeats the URL
// already carried by HTTPError.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}
