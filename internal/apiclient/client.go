// Package apiclient - HTTP-клиент удаленного REST API Pryve. Все вызовы бэкенда проходят
// через Client.Do и возвращают нормализованный Response вместо ошибок.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/pryve/pryve-admin/pkg/logger"
)

// maxBodySize ограничивает размер читаемого ответа
const maxBodySize = 10 << 20

// Config содержит настройки клиента
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Request описывает исходящий вызов бэкенда
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Token - bearer-токен администратора. Если пуст, берется токен из контекста.
	Token string
	// Body сериализуется в JSON, если не nil
	Body interface{}
	// NoRetry отправляет GET ровно один раз. Нужен опросам, у которых свой интервал.
	NoRetry bool
}

type tokenKey struct{}

// WithToken сохраняет bearer-токен администратора в контексте исходящих вызовов
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom возвращает токен, сохраненный WithToken
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Client выполняет запросы к бэкенду через цепочку middleware
type Client struct {
	baseURL  string
	timeout  time.Duration
	plain    *http.Client
	retrying *http.Client
	logger   logger.Logger
}

// New создает клиент. Идемпотентные GET/HEAD повторяются при сетевых ошибках и 5xx,
// изменяющие запросы отправляются ровно один раз.
func New(cfg Config, log logger.Logger, middlewares ...Middleware) *Client {
	base := http.DefaultTransport.(*http.Transport).Clone()

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Transport: base}
	rc.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		rc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		rc.RetryWaitMax = cfg.RetryWaitMax
	}
	rc.Logger = nil
	// Тело последнего ответа нужно нормализатору, поэтому не заменяем его ошибкой
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		timeout:  cfg.Timeout,
		plain:    &http.Client{Transport: Chain(base, middlewares...)},
		retrying: &http.Client{Transport: Chain(&retryablehttp.RoundTripper{Client: rc}, middlewares...)},
		logger:   log,
	}
}

// Do выполняет запрос и нормализует ответ
func (c *Client) Do(ctx context.Context, req Request) Response[json.RawMessage] {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		c.logger.Error("Failed to build backend request", err, logger.Fields{
			"method": req.Method,
			"path":   req.Path,
		})
		return Failure[json.RawMessage]("Failed to build request", err.Error())
	}

	client := c.plain
	if !req.NoRetry && (req.Method == http.MethodGet || req.Method == http.MethodHead) {
		client = c.retrying
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return c.transportFailure(req, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return c.transportFailure(req, err)
	}

	return Normalize(resp.StatusCode, resp.Header.Get("Content-Type"), body)
}

// Call выполняет запрос и декодирует data в T
func Call[T any](ctx context.Context, c *Client, req Request) Response[T] {
	return Decode[T](c.Do(ctx, req))
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.New().String())
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	token := req.Token
	if token == "" {
		token = TokenFrom(ctx)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return httpReq, nil
}

func (c *Client) transportFailure(req Request, err error) Response[json.RawMessage] {
	fields := logger.Fields{"method": req.Method, "path": req.Path}

	if errors.Is(err, context.DeadlineExceeded) {
		c.logger.Warn("Backend request timed out", fields)
		return Failure[json.RawMessage](TimeoutMessage, err.Error())
	}

	c.logger.Error("Backend request failed", err, fields)
	return Failure[json.RawMessage](NetworkErrorMessage, err.Error())
}
