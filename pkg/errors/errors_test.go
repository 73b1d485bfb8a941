package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataStatuses(t *testing.T) {
	want := map[Code]int{
		CodeValidation:        http.StatusBadRequest,
		CodeInvalidQuantity:   http.StatusBadRequest,
		CodeUnauthorized:      http.StatusUnauthorized,
		CodeNotFound:          http.StatusNotFound,
		CodeConflict:          http.StatusConflict,
		CodeIdempotency:       http.StatusConflict,
		CodeCouponRejected:    http.StatusUnprocessableEntity,
		CodeRateLimit:         http.StatusTooManyRequests,
		CodeInternal:          http.StatusInternalServerError,
		CodeMalformedResponse: http.StatusBadGateway,
		CodeNetworkFailure:    http.StatusServiceUnavailable,
	}
	for code, status := range want {
		if got := MetadataFor(code).HTTPStatus; got != status {
			t.Fatalf("code %s expected status %d got %d", code, status, got)
		}
	}
	if got := MetadataFor("SOMETHING_UNKNOWN").HTTPStatus; got != http.StatusInternalServerError {
		t.Fatalf("expected unknown code to map to 500, got %d", got)
	}
}

func TestPublicHidesServerSideMessages(t *testing.T) {
	msg, details := New(CodeCouponRejected, "coupon has expired").
		WithDetails(map[string]any{"reason": "expired"}).
		Public()
	if msg != "coupon has expired" || details == nil {
		t.Fatalf("expected client-facing message and details, got %q %v", msg, details)
	}

	msg, details = Wrap(CodeNetworkFailure, stdErrors.New("dial tcp"), "GET /products").
		WithDetails(map[string]any{"endpoint": "/products"}).
		Public()
	if msg != "something went wrong, please try again" {
		t.Fatalf("expected generic message, got %q", msg)
	}
	if details != nil {
		t.Fatalf("expected details to be withheld, got %v", details)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeNetworkFailure, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Error() != "NETWORK_FAILURE: ctx: boom" {
		t.Fatalf("unexpected error string %q", wrapped.Error())
	}
	if Wrap(CodeInternal, nil, "plain").Unwrap() != nil {
		t.Fatalf("Wrap(nil) should not carry a cause")
	}
}

func TestAsAndHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeCouponRejected, "expired"))
	if got := As(err); got == nil || got.Code() != CodeCouponRejected {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
	if !HasCode(err, CodeCouponRejected) {
		t.Fatalf("HasCode should match wrapped typed error")
	}
	if HasCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatalf("HasCode should not match untyped errors")
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(New(CodeNetworkFailure, "x")) {
		t.Fatal("network failures should be retryable")
	}
	if Retryable(New(CodeValidation, "x")) {
		t.Fatal("validation errors should not be retryable")
	}
	if !Retryable(stdErrors.New("plain")) {
		t.Fatal("untyped errors are internal and retryable")
	}
	if Retryable(nil) {
		t.Fatal("nil is not retryable")
	}
}

func TestLogFields(t *testing.T) {
	err := New(CodeMalformedResponse, "bad payload").
		WithDetails(map[string]any{"endpoint": "/coupons/validate", "upstream_status": 200, "ignored": true})
	fields := LogFields(fmt.Errorf("quote: %w", err))

	if fields["error_code"] != CodeMalformedResponse {
		t.Fatalf("unexpected code %v", fields["error_code"])
	}
	if fields["endpoint"] != "/coupons/validate" || fields["upstream_status"] != 200 {
		t.Fatalf("expected selected details, got %v", fields)
	}
	if _, ok := fields["ignored"]; ok {
		t.Fatal("unexpected detail copied into log fields")
	}
	if chain, ok := fields["error_chain"].([]string); !ok || len(chain) != 2 {
		t.Fatalf("expected two-link chain, got %v", fields["error_chain"])
	}
}

func TestLogFieldsPostgres(t *testing.T) {
	pg := &pgconn.PgError{Code: "23505", TableName: "app_states", ConstraintName: "app_states_pkey", Message: "duplicate key"}
	fields := LogFields(Wrap(CodeInternal, pg, "save state"))
	if fields["pg_code"] != "23505" || fields["pg_table"] != "app_states" || fields["pg_constraint"] != "app_states_pkey" {
		t.Fatalf("unexpected pg fields %v", fields)
	}
}

func TestLogFieldsPQ(t *testing.T) {
	pqErr := &pq.Error{Code: "42P01", Table: "goose_db_version", Message: "relation does not exist"}
	fields := LogFields(fmt.Errorf("goose up: %w", pqErr))
	if fields["pg_code"] != "42P01" || fields["pg_table"] != "goose_db_version" || fields["pg_message"] != "relation does not exist" {
		t.Fatalf("unexpected pq fields %v", fields)
	}
	if _, ok := fields["error_code"]; ok {
		t.Fatalf("untyped error should not carry a code: %v", fields)
	}
}
