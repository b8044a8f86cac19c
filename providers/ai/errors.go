package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a gateway failure. Callers branch on the kind rather
// than on message text.
type ErrorKind string

const (
	// KindMissingCredential means no API key is configured for the selected vendor.
	KindMissingCredential ErrorKind = "missing_credential"
	// KindInvalidCredential means the vendor rejected the configured key (HTTP 401).
	KindInvalidCredential ErrorKind = "invalid_credential"
	// KindSchemaConversion means an OpenAPI document could not be turned into tools.
	// It is per-tool and never fails a request on its own.
	KindSchemaConversion ErrorKind = "schema_conversion_error"
	// KindArgumentParse means a tool call carried arguments that are not a JSON object.
	KindArgumentParse ErrorKind = "argument_parse_error"
	// KindUnknownFunction means a tool call named a function no descriptor routes.
	KindUnknownFunction ErrorKind = "unknown_function"
	// KindMissingPathParameter means a path placeholder had no matching argument.
	KindMissingPathParameter ErrorKind = "missing_path_parameter"
	// KindUpstreamRequest means the vendor call failed (network or non-2xx).
	KindUpstreamRequest ErrorKind = "upstream_request_error"
	// KindMalformedMessage means an inbound message could not be decoded.
	KindMalformedMessage ErrorKind = "malformed_message"
	// KindUnsupportedRole means a role/content combination the vendor cannot represent.
	KindUnsupportedRole ErrorKind = "unsupported_role"
	// KindUnsupportedModel means the model has no deployment or route on the vendor.
	KindUnsupportedModel ErrorKind = "unsupported_model"
)

// Error is the single error type surfaced by the gateway core.
type Error struct {
	Kind       ErrorKind
	Vendor     Vendor // empty when the failure is not vendor specific
	StatusCode int    // upstream HTTP status, 0 when unknown
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Vendor != "" {
		prefix = string(e.Vendor) + ": " + prefix
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Fatal reports whether the error ends the whole request. Tool-level kinds stay
// inside the tool round and are fed back to the model as data.
func (e *Error) Fatal() bool {
	switch e.Kind {
	case KindSchemaConversion, KindArgumentParse, KindUnknownFunction, KindMissingPathParameter:
		return false
	default:
		return true
	}
}

// NewError builds an Error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error around cause.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// MissingCredentialError is returned when no key is configured for vendor.
func MissingCredentialError(vendor Vendor) *Error {
	return &Error{
		Kind:       KindMissingCredential,
		Vendor:     vendor,
		StatusCode: http.StatusUnauthorized,
		Message:    vendor.DisplayName() + " API Key not found. Please set it in your profile settings.",
	}
}

// InvalidCredentialError is returned when the vendor answers 401.
func InvalidCredentialError(vendor Vendor, cause error) *Error {
	return &Error{
		Kind:       KindInvalidCredential,
		Vendor:     vendor,
		StatusCode: http.StatusUnauthorized,
		Message:    vendor.DisplayName() + " API Key is incorrect. Please fix it in your profile settings.",
		Cause:      cause,
	}
}

// UpstreamError classifies a failed vendor call. A 401 becomes
// InvalidCredential; everything else is UpstreamRequest carrying the status.
func UpstreamError(vendor Vendor, statusCode int, cause error) *Error {
	if statusCode == http.StatusUnauthorized {
		return InvalidCredentialError(vendor, cause)
	}
	message := "upstream request failed"
	if statusCode > 0 {
		message = fmt.Sprintf("upstream request failed with status %d", statusCode)
	}
	return &Error{
		Kind:       KindUpstreamRequest,
		Vendor:     vendor,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// AsError extracts the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var gatewayErr *Error
	if errors.As(err, &gatewayErr) {
		return gatewayErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	gatewayErr, ok := AsError(err)
	return ok && gatewayErr.Kind == kind
}

// KindOf returns the kind of err, or the empty kind for foreign errors.
func KindOf(err error) ErrorKind {
	if gatewayErr, ok := AsError(err); ok {
		return gatewayErr.Kind
	}
	return ""
}

// HTTPStatus maps err to the status code returned to the caller.
// Upstream statuses are passed through; caller-side validation is 400;
// an expired deadline is 504; anything unclassified is 500.
func HTTPStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	gatewayErr, ok := AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch gatewayErr.Kind {
	case KindMalformedMessage, KindUnsupportedRole, KindUnsupportedModel,
		KindArgumentParse, KindUnknownFunction, KindMissingPathParameter, KindSchemaConversion:
		return http.StatusBadRequest
	case KindMissingCredential, KindInvalidCredential:
		return http.StatusUnauthorized
	}

	if gatewayErr.StatusCode >= 400 && gatewayErr.StatusCode <= 599 {
		return gatewayErr.StatusCode
	}
	return http.StatusInternalServerError
}

// UserMessage returns the text shown to the caller for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	gatewayErr, ok := AsError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return "The request timed out"
		}
		return "An unexpected error occurred"
	}
	switch gatewayErr.Kind {
	case KindMissingCredential, KindInvalidCredential:
		return gatewayErr.Message
	}
	return gatewayErr.Error()
}
