package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"max.ks1230/budget-tracker/internal/entity/user"
	"max.ks1230/budget-tracker/internal/logger"
)

const (
	userIDHeader    = "X-User-ID"
	requestIDHeader = "X-Request-ID"
)

type contextKey string

const identityKey contextKey = "identity"

var histogramResponseTime = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "budget",
		Subsystem: "http",
		Name:      "histogram_response_time_seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	},
	[]string{"route", "status"},
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument wraps a route with a tracing span, a latency histogram and an access log.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		span, ctx := opentracing.StartSpanFromContext(r.Context(), route)
		defer span.Finish()
		ext.HTTPMethod.Set(span, r.Method)
		ext.HTTPUrl.Set(span, r.URL.Path)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		elapsed := time.Since(start)
		ext.HTTPStatusCode.Set(span, uint16(rec.status))
		if rec.status >= http.StatusInternalServerError {
			ext.Error.Set(span, true)
		}
		histogramResponseTime.
			WithLabelValues(route, strconv.Itoa(rec.status)).
			Observe(elapsed.Seconds())
		logger.Info("http request",
			zap.String("route", route),
			zap.String("requestID", requestID),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed),
		)
	})
}

// authenticate trusts the identity header set by the upstream auth proxy.
// Requests without it are sent to sign in.
func (s *Server) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := user.Identity{ID: strings.TrimSpace(r.Header.Get(userIDHeader))}
		if !id.Valid() {
			s.redirectToSignIn(w, r)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	}
}

func (s *Server) redirectToSignIn(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.signInURL, http.StatusSeeOther)
}

func identityFrom(ctx context.Context) user.Identity {
	id, _ := ctx.Value(identityKey).(user.Identity)
	return id
}
