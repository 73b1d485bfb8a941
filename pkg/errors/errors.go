package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error kind surfaced to storefront clients.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeInvalidQuantity   Code = "INVALID_QUANTITY"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeIdempotency       Code = "IDEMPOTENCY_KEY_REUSED"
	CodeCouponRejected    Code = "COUPON_REJECTED"
	CodeRateLimit         Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeMalformedResponse Code = "MALFORMED_RESPONSE"
	CodeNetworkFailure    Code = "NETWORK_FAILURE"
)

// Metadata describes how a code is rendered. Client-facing codes pass the
// error's own message through; the rest fall back to PublicMessage.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	MessageAllowed bool
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:        {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", MessageAllowed: true, DetailsAllowed: true},
	CodeInvalidQuantity:   {HTTPStatus: http.StatusBadRequest, PublicMessage: "quantity must be at least 1", MessageAllowed: true, DetailsAllowed: true},
	CodeUnauthorized:      {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required", MessageAllowed: true},
	CodeNotFound:          {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found", MessageAllowed: true},
	CodeConflict:          {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected", MessageAllowed: true},
	CodeIdempotency:       {HTTPStatus: http.StatusConflict, PublicMessage: "idempotency key reused", MessageAllowed: true, DetailsAllowed: true},
	CodeCouponRejected:    {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "coupon rejected", MessageAllowed: true, DetailsAllowed: true},
	CodeRateLimit:         {HTTPStatus: http.StatusTooManyRequests, PublicMessage: "rate limit exceeded", MessageAllowed: true},
	CodeInternal:          {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "internal server error"},
	CodeMalformedResponse: {HTTPStatus: http.StatusBadGateway, Retryable: true, PublicMessage: "unexpected response from upstream"},
	CodeNetworkFailure:    {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, PublicMessage: "something went wrong, please try again"},
}

// MetadataFor returns the rendering rules for code, defaulting to CodeInternal.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error with an optional cause and client-safe details.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

// Public returns the message and details a client may see for this error.
func (e *Error) Public() (string, any) {
	meta := MetadataFor(e.Code())
	msg := meta.PublicMessage
	if meta.MessageAllowed && e.Message() != "" {
		msg = e.Message()
	}
	if !meta.DetailsAllowed {
		return msg, nil
	}
	return msg, e.Details()
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err carries a typed error with the given code.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// Retryable reports whether a client may retry the failed call unchanged.
// Untyped errors are treated as internal.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return MetadataFor(As(err).Code()).Retryable
}
