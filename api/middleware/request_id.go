package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/homeplast-storefront/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// inboundRequestIDHeaders are checked in order; proxies in front of the
// storefront use either name.
var inboundRequestIDHeaders = []string{requestIDHeader, "X-Correlation-Id"}

// RequestID adopts the caller's request id when it is a safe token and mints a
// time-ordered one otherwise. The id is echoed back and forwarded upstream.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := inboundRequestID(r)
			w.Header().Set(requestIDHeader, reqID)
			next.ServeHTTP(w, r.WithContext(logg.WithRequestID(r.Context(), reqID)))
		})
	}
}

func inboundRequestID(r *http.Request) string {
	for _, header := range inboundRequestIDHeaders {
		if id := strings.TrimSpace(r.Header.Get(header)); id != "" && validSessionID(id) {
			return id
		}
	}
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
