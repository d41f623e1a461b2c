// Package lms is a client for the itslearning REST API. A Directory resolves
// organisations (tenants), an Organisation exchanges user credentials for a
// token set, and a Session fetches and normalizes that user's personal data.
//
// Nothing in this package retries, paginates past the first page, or
// refreshes tokens. Every error is returned to the caller.
package lms

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the public host serving the organisation directory.
	DefaultBaseURL = "https://www.itslearning.com"
	// DefaultClientID is the OAuth client identifier every tenant accepts.
	DefaultClientID = "10ae9d30-1853-48ff-81cb-47b58a325685"

	// maxErrorBody bounds how much of a failed response is kept in a TransportError.
	maxErrorBody = 4 << 10
)

var tracer = otel.Tracer("github.com/d9705996/tasksync/internal/lms")

// Option configures a Directory and everything created from it.
type Option func(*options)

type options struct {
	httpClient *http.Client
	clientID   string
	userAgent  string
	log        *slog.Logger
}

func defaultOptions() options {
	return options{
		httpClient: &http.Client{},
		clientID:   DefaultClientID,
		log:        slog.New(slog.DiscardHandler),
	}
}

// WithHTTPClient sets the client whose transport and timeout every
// Organisation and Session inherit. Its cookie jar is never shared.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithClientID overrides the OAuth client identifier.
func WithClientID(id string) Option {
	return func(o *options) {
		if id != "" {
			o.clientID = id
		}
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// newClient returns a client that shares base's transport and timeout but
// owns its own cookie jar.
func newClient(base *http.Client, jar http.CookieJar) *http.Client {
	return &http.Client{
		Transport: base.Transport,
		Timeout:   base.Timeout,
		Jar:       jar,
	}
}

// get issues a GET and returns the body of a 200 response.
// Non-2xx responses and transport failures become *TransportError; any
// other 2xx status is ErrRequestFailure.
func (o *options) get(ctx context.Context, c *http.Client, rawURL string, params url.Values) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			q[k] = vs
		}
		u.RawQuery = q.Encode()
	}

	ctx, span := tracer.Start(ctx, "lms GET "+u.Path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", http.MethodGet),
		attribute.String("url.path", u.Path),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if o.userAgent != "" {
		req.Header.Set("User-Agent", o.userAgent)
	}

	res, err := c.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, &TransportError{Method: http.MethodGet, URL: redact(u), Err: err}
	}
	defer res.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode))
	o.log.DebugContext(ctx, "lms request", "method", http.MethodGet, "path", u.Path, "status", res.StatusCode)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		span.SetStatus(codes.Error, res.Status)
		return nil, &TransportError{
			Method:     http.MethodGet,
			URL:        redact(u),
			StatusCode: res.StatusCode,
			Body:       string(bytes.TrimSpace(body)),
		}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{Method: http.MethodGet, URL: redact(u), StatusCode: res.StatusCode, Err: err}
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s returned %d", ErrRequestFailure, u.Path, res.StatusCode)
	}
	return body, nil
}

// redact renders u without the bearer token carried in its query.
func redact(u *url.URL) string {
	q := u.Query()
	if !q.Has("access_token") {
		return u.String()
	}
	q.Set("access_token", "REDACTED")
	c := *u
	c.RawQuery = q.Encode()
	return c.String()
}
