package cms

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

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"finitefield.org/holding-web/internal/platform/observability"
)

const idempotencyHeader = "Idempotency-Key"

// ContactRequest is the payload posted to the contact endpoint.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// ContactResponse is the CMS answer to a submission.
type ContactResponse struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Key     string `json:"-"`
}

// SubmitContact posts a contact message. Submissions are never retried.
// Only an explicit success=true counts as accepted; anything else returns the CMS
// message alongside ErrSubmissionRejected.
func (c *Client) SubmitContact(ctx context.Context, req ContactRequest, lang string) (ContactResponse, error) {
	lang = NormalizeLang(lang, c.defaultLang)
	key := c.newKey()

	ctx, span := c.tracer.Start(ctx, "cms.contact", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("cms.lang", lang)))
	logger := c.log(ctx).With(zap.String("endpoint", string(ResourceContact)), zap.String("lang", lang), zap.String("idempotency_key", key))

	resp, err := c.postContact(ctx, req, lang, key)
	if err != nil {
		logger.Error("cms contact submission failed", zap.Error(err))
		observability.EndSpan(span, err)
		return resp, err
	}
	observability.EndSpan(span, nil)
	c.markOnline()
	logger.Info("cms contact submitted")
	return resp, nil
}

func (c *Client) postContact(ctx context.Context, req ContactRequest, lang, key string) (ContactResponse, error) {
	payload := struct {
		ContactRequest
		Lang string `json:"lang"`
	}{ContactRequest: req, Lang: lang}
	body, err := json.Marshal(payload)
	if err != nil {
		return ContactResponse{}, fmt.Errorf("cms: encode contact: %w", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, string(ResourceContact))
	if err != nil {
		return ContactResponse{}, fmt.Errorf("cms: join path contact: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, endpoint+"/", bytes.NewReader(body))
	if err != nil {
		return ContactResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(idempotencyHeader, key)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		err = classifyTransportError(ctx, err)
		if errors.Is(err, ErrNetworkUnreachable) {
			c.offline.Store(true)
		}
		return ContactResponse{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return ContactResponse{}, classifyTransportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ContactResponse{}, &StatusError{Endpoint: string(ResourceContact), Code: resp.StatusCode}
	}

	out := ContactResponse{Key: key}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return ContactResponse{}, fmt.Errorf("cms: contact: %w", ErrMalformedResponse)
		}
	}
	if !out.Accepted() {
		msg := strings.TrimSpace(out.Message)
		if msg == "" {
			msg = "failed to submit form"
		}
		out.Message = msg
		return out, fmt.Errorf("%w: %s", ErrSubmissionRejected, msg)
	}
	return out, nil
}

// Accepted reports whether the CMS confirmed the submission.
func (r ContactResponse) Accepted() bool {
	return r.Success != nil && *r.Success
}

func newIdempotencyKey() string {
	return ulid.Make().String()
}
