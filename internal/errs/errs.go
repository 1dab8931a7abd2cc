// Package errs defines the discriminated error taxonomy shared by every
// core component: a stable Kind, a short message and an optional cause
// chain (github.com/cockroachdb/errors), so callers can branch on Kind
// without parsing message text.
package errs

import (
	"github.com/cockroachdb/errors"
)

// Kind discriminates error categories across the core. The zero value
// is never used; every returned error has a concrete Kind.
type Kind string

const (
	// Credential Store kinds.
	KindInvalidFormat     Kind = "InvalidFormat"
	KindInvalidKey        Kind = "InvalidKey"
	KindPermissionDenied  Kind = "PermissionDenied"
	KindRateLimited       Kind = "RateLimited"
	KindServiceUnavailable Kind = "ServiceUnavailable"
	KindNetworkError      Kind = "NetworkError"
	KindNotFound          Kind = "NotFound"
	KindDecryptionFailed  Kind = "DecryptionFailed"

	// Audio Pipeline kinds.
	KindCaptureFailed     Kind = "CaptureFailed"
	KindFormatUnsupported Kind = "FormatUnsupported"
	KindBackpressureDrop  Kind = "BackpressureDrop"

	// Session Client kinds.
	KindWebSocketOpenFailed Kind = "WebSocketOpenFailed"
	KindTimeout             Kind = "Timeout"
	KindAuthFailed          Kind = "AuthFailed"
	KindMessageParseFailed  Kind = "MessageParseFailed"
	KindServerError         Kind = "ServerError"
	KindCancelled           Kind = "Cancelled"

	// Pipeline (Overlap Processor) kinds.
	KindInvalidInput   Kind = "InvalidInput"
	KindInternalError  Kind = "InternalError"
)

// coreError wraps a Kind and message with an optional cause, satisfying
// both `error` and unwrap so errors.Is/errors.As keep working through
// cockroachdb/errors' wrapping.
type coreError struct {
	kind    Kind
	message string
	cause   error
}

func (e *coreError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *coreError) Unwrap() error { return e.cause }

// New creates a new error of the given kind with no cause.
func New(kind Kind, message string) error {
	return &coreError{kind: kind, message: message}
}

// Wrap creates a new error of the given kind, chaining cause via
// cockroachdb/errors so the full chain survives logging/Sentry-style
// reporting if the host ever attaches one.
func Wrap(kind Kind, cause error, message string) error {
	if cause == nil {
		return New(kind, message)
	}
	return &coreError{kind: kind, message: message, cause: errors.Wrap(cause, message)}
}

// KindOf extracts the Kind from an error in the chain, or "" if none of
// the wrapped errors originated from this package.
func KindOf(err error) Kind {
	var ce *coreError
	if errors.As(err, &ce) {
		return ce.kind
	}
	return ""
}

// Is reports whether err's chain contains a coreError of the given
// kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Recoverable reports whether the kind should be retried locally by
// the owning component's own retry/reconnect policy before surfacing
// to the caller, per spec's propagation policy.
func Recoverable(kind Kind) bool {
	switch kind {
	case KindRateLimited, KindServiceUnavailable, KindNetworkError, KindTimeout, KindBackpressureDrop:
		return true
	default:
		return false
	}
}
