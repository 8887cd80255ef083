package llm

import (
	"context"
	"errors"
	"net"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	openaiclient "github.com/openai/openai-go/v2"
)

// ErrTransport covers 429, 5xx, network timeouts and aborts. Retryable.
var ErrTransport = errors.New("model transport error")

// ErrTimeout is a transport error caused by a deadline.
var ErrTimeout = errors.New("model call timed out")

// ErrSchema covers JSON parse failures and schema-invalid output. With
// strict schemas these indicate a real issue, so they are never retried.
var ErrSchema = errors.New("model output failed schema validation")

// retryableStatus reports whether an HTTP status warrants a retry.
func retryableStatus(code int) bool {
	return code == 429 || code >= 500
}

// classifyTransport wraps err in ErrTimeout/ErrTransport when it is a
// retryable transport failure, or returns nil when it is not.
func classifyTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}

	var oaErr *openaiclient.Error
	if errors.As(err, &oaErr) {
		if retryableStatus(oaErr.StatusCode) {
			return ErrTransport
		}
		return nil
	}
	var anErr *anthropicclient.Error
	if errors.As(err, &anErr) {
		if retryableStatus(anErr.StatusCode) {
			return ErrTransport
		}
		return nil
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrTransport
	}
	return nil
}
