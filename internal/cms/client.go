package cms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"finitefield.org/holding-web/internal/platform/observability"
	"finitefield.org/holding-web/internal/platform/requestctx"
	"finitefield.org/holding-web/internal/retry"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 8 << 20
)

// Client provides language-scoped access to the CMS collections.
type Client struct {
	baseURL     string
	http        *http.Client
	timeout     time.Duration
	retry       retry.Policy
	defaultLang string
	logger      *zap.Logger
	tracer      trace.Tracer
	newKey      func() string
	onReconnect func()
	offline     atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-attempt deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetryPolicy sets how timed out attempts are retried.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.retry = p }
}

// WithDefaultLang sets the language used when a caller passes none.
func WithDefaultLang(lang string) Option {
	return func(c *Client) { c.defaultLang = NormalizeLang(lang, LangEnglish) }
}

// WithLogger sets the fallback logger; request scoped loggers in ctx take precedence.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIdempotencyKeys overrides the key generator for submissions.
func WithIdempotencyKeys(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newKey = fn
		}
	}
}

// WithReconnectHook registers fn to run when a request succeeds after a network failure.
func WithReconnectHook(fn func()) Option {
	return func(c *Client) { c.onReconnect = fn }
}

// NewClient constructs a Client with the provided base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:        &http.Client{},
		timeout:     defaultTimeout,
		retry:       retry.DefaultPolicy(),
		defaultLang: LangEnglish,
		logger:      zap.NewNop(),
		tracer:      observability.Tracer("cms"),
		newKey:      newIdempotencyKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetReconnectHook registers fn after construction, for owners built after the client.
func (c *Client) SetReconnectHook(fn func()) {
	c.onReconnect = fn
}

// DefaultLang returns the language used for empty requests.
func (c *Client) DefaultLang() string { return c.defaultLang }

// Fetch retrieves one collection in lang and normalizes it.
func (c *Client) Fetch(ctx context.Context, resource Resource, lang string, params url.Values) (Envelope, error) {
	body, err := c.get(ctx, resource, "", lang, params)
	if err != nil {
		return Envelope{}, err
	}
	env, err := Normalize(body)
	if err != nil {
		c.log(ctx).Warn("cms malformed response", zap.String("endpoint", string(resource)), zap.String("lang", lang))
		return Envelope{}, fmt.Errorf("cms: %s: %w", resource, err)
	}
	return env, nil
}

// FetchOne retrieves a single record by id or slug.
func (c *Client) FetchOne(ctx context.Context, resource Resource, id, lang string) ([]byte, error) {
	id = sanitizeSlug(id)
	if id == "" {
		return nil, ErrNotFound
	}
	body, err := c.get(ctx, resource, id, lang, nil)
	if err != nil {
		return nil, err
	}
	raw, err := normalizeOne(body)
	if err != nil {
		return nil, fmt.Errorf("cms: %s/%s: %w", resource, id, err)
	}
	return raw, nil
}

// Search queries the CMS search endpoint.
func (c *Client) Search(ctx context.Context, query, lang string) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchHit{}, nil
	}
	env, err := c.Fetch(ctx, ResourceSearch, lang, url.Values{"q": {query}})
	if err != nil {
		return nil, err
	}
	return Decode[SearchHit](env), nil
}

func (c *Client) get(ctx context.Context, resource Resource, id, lang string, params url.Values) ([]byte, error) {
	if !resource.Valid() {
		return nil, fmt.Errorf("cms: unknown resource %q", resource)
	}
	lang = NormalizeLang(lang, c.defaultLang)

	segments := []string{string(resource)}
	if id != "" {
		segments = append(segments, id)
	}
	endpoint, err := url.JoinPath(c.baseURL, segments...)
	if err != nil {
		return nil, fmt.Errorf("cms: join path %s: %w", resource, err)
	}
	endpoint += "/"

	query := url.Values{}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}
	query.Set("lang", lang)

	ctx, span := c.tracer.Start(ctx, "cms.fetch", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cms.resource", string(resource)),
			attribute.String("cms.lang", lang),
		))

	logger := c.log(ctx).With(zap.String("endpoint", string(resource)), zap.String("lang", lang))
	policy := c.retry
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		logger.Warn("cms attempt failed, retrying", zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
	}

	var body []byte
	attempts, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) error {
		b, err := c.attempt(ctx, endpoint, query)
		if err != nil {
			return err
		}
		body = b
		return nil
	}, IsRetryable)
	span.SetAttributes(attribute.Int("cms.attempts", attempts))

	if err != nil {
		if errors.Is(err, ErrTransientTimeout) {
			err = &TimeoutError{Endpoint: string(resource), Retries: attempts - 1}
		}
		if errors.Is(err, ErrNetworkUnreachable) {
			c.offline.Store(true)
		}
		logger.Error("cms fetch failed", zap.Int("attempts", attempts), zap.Error(err))
		observability.EndSpan(span, err)
		return nil, err
	}
	observability.EndSpan(span, nil)
	c.markOnline()
	return body, nil
}

func (c *Client) attempt(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = query.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Endpoint: strings.TrimPrefix(endpoint, c.baseURL), Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	return body, nil
}

// classifyTransportError separates attempt deadlines from caller cancellation and connection failures.
func classifyTransportError(parent context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTransientTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTransientTimeout
	}
	return fmt.Errorf("%w: %v", ErrNetworkUnreachable, err)
}

func (c *Client) markOnline() {
	if c.offline.CompareAndSwap(true, false) && c.onReconnect != nil {
		c.onReconnect()
	}
}

func (c *Client) log(ctx context.Context) *zap.Logger {
	return requestctx.LoggerOr(ctx, c.logger)
}

func sanitizeSlug(slug string) string {
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if slug == "" || strings.Contains(slug, "..") || strings.ContainsAny(slug, "/\\?#") {
		return ""
	}
	return slug
}
