// Package model holds helpers shared by the embedding and LLM
// adapters: classification of HTTP and transport failures into the
// domain's model-error taxonomy, which drives the retry policy.
package model

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
)

// ClassifyTransport wraps a failed HTTP round trip. Timeouts and
// network errors are transient; context cancellation passes through
// untouched so callers can distinguish it from service failures.
func ClassifyTransport(service string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.ModelError{Kind: domain.ModelErrTimeout, Service: service, Err: err}
	}
	return &domain.ModelError{Kind: domain.ModelErrTransport, Service: service, Err: err}
}

// ClassifyStatus maps a non-2xx HTTP status to a model error.
func ClassifyStatus(service string, status int, err error) error {
	var kind domain.ModelErrorKind
	switch {
	case status == http.StatusTooManyRequests:
		kind = domain.ModelErrRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		status == http.StatusPaymentRequired:
		kind = domain.ModelErrAuth
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = domain.ModelErrTimeout
	case status >= 500:
		kind = domain.ModelErrTransport
	default:
		kind = domain.ModelErrMalformed
	}
	return &domain.ModelError{Kind: kind, Service: service, Err: err}
}

// Malformed wraps an unparseable service response. Never retried.
func Malformed(service string, err error) error {
	return &domain.ModelError{Kind: domain.ModelErrMalformed, Service: service, Err: err}
}

// Retryable is the retry predicate for model-service calls: only
// transient model errors earn another attempt.
func Retryable(err error) bool {
	var modelErr *domain.ModelError
	if errors.As(err, &modelErr) {
		return modelErr.Transient()
	}
	return false
}
