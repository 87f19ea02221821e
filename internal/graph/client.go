package graph

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// DefaultEndpoint is the Drive v3 REST base URL.
	DefaultEndpoint = "https://www.googleapis.com/drive/v3/"

	// DefaultChunkSize is the upload chunk size when none is configured.
	DefaultChunkSize = googleapi.DefaultUploadChunkSize

	defaultUserAgent = "gdrive-go/0.1"
	tracerName       = "github.com/tonimelisma/gdrive-go/internal/graph"
)

// TokenSource provides OAuth2 bearer tokens. Defined at the consumer
// (graph package) per Go convention "accept interfaces, return structs".
type TokenSource interface {
	Token() (string, error)
}

// Option configures optional Client behavior.
type Option func(*Client)

// WithMetrics records per-operation call counts and latencies.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithChunkSize sets the upload chunk size. Content that fits in one chunk
// is sent in a single multipart request; larger content uses a resumable
// session. Values <= 0 keep DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithUserAgent overrides the User-Agent sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// Client is a Drive v3 client. It consults its TokenSource immediately
// before every HTTP request, classifies failures into the package
// sentinels, and never retries.
type Client struct {
	svc       *drive.Service
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	chunkSize int
	userAgent string
}

// NewClient creates a Drive client.
// baseURL is typically DefaultEndpoint; tests point it at an httptest server.
// httpClient supplies timeouts and the base transport; it may be nil.
func NewClient(
	ctx context.Context,
	baseURL string,
	httpClient *http.Client,
	token TokenSource,
	logger *slog.Logger,
	opts ...Option,
) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if baseURL == "" {
		baseURL = DefaultEndpoint
	}

	c := &Client{
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		chunkSize: DefaultChunkSize,
		userAgent: defaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	authed := &http.Client{Transport: &authTransport{token: token, base: http.DefaultTransport}}
	if httpClient != nil {
		authed.Timeout = httpClient.Timeout
		if httpClient.Transport != nil {
			authed.Transport = &authTransport{token: token, base: httpClient.Transport}
		}
	}

	svc, err := drive.NewService(ctx,
		option.WithHTTPClient(authed),
		option.WithEndpoint(baseURL),
		option.WithUserAgent(c.userAgent),
	)
	if err != nil {
		return nil, fmt.Errorf("graph: creating drive service: %w", err)
	}

	c.svc = svc

	return c, nil
}

// authTransport attaches a fresh bearer token to each outgoing request.
// A token failure aborts the request before anything is sent.
type authTransport struct {
	token TokenSource
	base  http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.token.Token()
	if err != nil {
		if req.Body != nil {
			req.Body.Close()
		}

		return nil, fmt.Errorf("%w: %w", ErrAuth, err)
	}

	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+tok)

	return t.base.RoundTrip(r)
}

// begin opens a span for op and returns a finisher that classifies the
// error, records metrics, and ends the span. Call as
// `defer done(&err)` with a named error result.
func (c *Client) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	ctx, span := c.tracer.Start(ctx, "drive."+op, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(errp *error) {
		*errp = classify(op, *errp)
		elapsed := time.Since(start)
		c.metrics.observe(op, elapsed, *errp)

		if *errp != nil {
			span.RecordError(*errp)
			span.SetStatus(codes.Error, (*errp).Error())
			c.logger.Debug("drive call failed",
				slog.String("op", op),
				slog.Duration("elapsed", elapsed),
				slog.String("error", (*errp).Error()),
			)
		} else {
			c.logger.Debug("drive call succeeded",
				slog.String("op", op),
				slog.Duration("elapsed", elapsed),
			)
		}

		span.End()
	}
}
