// Package transport provides composable http.RoundTripper middleware for
// outgoing requests.
package transport

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Middleware decorates a RoundTripper.
type Middleware func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Chain wraps base with mws; the first middleware sees the request first.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}

	return base
}

// Header sets the headers returned by fn on a clone of every request.
// Empty values are skipped.
func Header(fn func(*http.Request) map[string]string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			headers := fn(r)
			if len(headers) == 0 {
				return next.RoundTrip(r)
			}

			r = r.Clone(r.Context())
			for k, v := range headers {
				if v != "" {
					r.Header.Set(k, v)
				}
			}

			return next.RoundTrip(r)
		})
	}
}

// Logger logs every round trip at debug level and failures at warn level.
// Header values are never logged.
func Logger(logger *slog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			resp, err := next.RoundTrip(r)

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("elapsed", time.Since(start)),
			}

			if err != nil {
				logger.Warn("request failed", append(attrs, slog.Any("err", err))...)
				return nil, err
			}

			logger.Debug("request completed", append(attrs, slog.Int("status", resp.StatusCode))...)

			return resp, nil
		})
	}
}

// Recoverer turns a panic in the wrapped transport into an error.
func Recoverer(logger *slog.Logger) Middleware {
	const op = "transport.Recoverer"

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (resp *http.Response, err error) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error(
						"something went wrong, panic occurred",
						slog.Group(op, slog.Any("err", rec)),
					)

					resp = nil
					err = fmt.Errorf("%s: panic in transport: %v", op, rec)
				}
			}()

			return next.RoundTrip(r)
		})
	}
}
