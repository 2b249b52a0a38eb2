package apiclient

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pryve/pryve-admin/pkg/loading"
	"github.com/pryve/pryve-admin/pkg/logger"
)

// Middleware оборачивает транспорт клиента
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc позволяет использовать функцию как http.RoundTripper
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip реализует http.RoundTripper
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Chain применяет middleware так, что первый в списке оказывается внешним
func Chain(rt http.RoundTripper, middlewares ...Middleware) http.RoundTripper {
	for i := len(middlewares) - 1; i >= 0; i-- {
		rt = middlewares[i](rt)
	}
	return rt
}

// InFlight учитывает запрос в счетчике, пока его тело не будет закрыто
func InFlight(counter *loading.Counter) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			counter.Increment()

			resp, err := next.RoundTrip(r)
			if err != nil || resp == nil {
				counter.Decrement()
				return resp, err
			}

			resp.Body = &releasingBody{ReadCloser: resp.Body, release: sync.OnceFunc(counter.Decrement)}
			return resp, nil
		})
	}
}

type releasingBody struct {
	io.ReadCloser
	release func()
}

func (b *releasingBody) Close() error {
	defer b.release()
	return b.ReadCloser.Close()
}

// Logging пишет метод, путь, статус и длительность запроса. Заголовки и тела не логируются.
func Logging(log logger.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)

			fields := logger.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"request_id":  r.Header.Get("X-Request-ID"),
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if err != nil {
				log.Warn("Backend call failed", fields)
				return resp, err
			}

			fields["status"] = resp.StatusCode
			if resp.StatusCode >= 500 {
				log.Warn("Backend call completed with server error", fields)
			} else {
				log.Debug("Backend call completed", fields)
			}
			return resp, nil
		})
	}
}
