package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/pryve/pryve-admin/pkg/logger"
)

// LoggingMiddleware предоставляет middleware для логирования HTTP запросов
type LoggingMiddleware struct {
	logger logger.Logger
}

// NewLoggingMiddleware создает новый экземпляр LoggingMiddleware
func NewLoggingMiddleware(logger logger.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: logger,
	}
}

// LogRequest логирует информацию о входящих HTTP запросах и ответах.
// Cookie и заголовок Authorization не логируются.
func (m *LoggingMiddleware) LogRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}

		rwWithStatus := newResponseWriterWithStatus(w)
		startTime := time.Now()

		m.logger.Debug("Incoming request", logger.Fields{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"query":       r.URL.RawQuery,
			"remote_addr": r.RemoteAddr,
			"user_agent":  r.UserAgent(),
		})

		next.ServeHTTP(rwWithStatus, r)

		duration := time.Since(startTime)
		fields := logger.Fields{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rwWithStatus.statusCode,
			"duration_ms": duration.Milliseconds(),
		}

		// Выбираем уровень логирования в зависимости от кода статуса
		switch {
		case rwWithStatus.statusCode >= 500:
			m.logger.Warn("Request completed with server error", fields)
		case rwWithStatus.statusCode >= 400:
			m.logger.Info("Request completed with client error", fields)
		default:
			m.logger.Info("Request completed successfully", fields)
		}
	})
}

// responseWriterWithStatus - обертка для http.ResponseWriter, которая отслеживает код статуса
type responseWriterWithStatus struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func newResponseWriterWithStatus(w http.ResponseWriter) *responseWriterWithStatus {
	return &responseWriterWithStatus{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader переопределяет метод для отслеживания кода статуса
func (rw *responseWriterWithStatus) WriteHeader(statusCode int) {
	if !rw.wroteHeader {
		rw.statusCode = statusCode
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriterWithStatus) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not support Hijack")
}

func (rw *responseWriterWithStatus) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (rw *responseWriterWithStatus) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
