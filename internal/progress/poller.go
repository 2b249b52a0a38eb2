package progress

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/pkg/logger"
)

// DefaultFailureMessage показывается, если сервер сообщил об ошибке без описания
const DefaultFailureMessage = "Upload failed"

// TimedOutMessage показывается, если операция не завершилась за отведенное время
const TimedOutMessage = "Upload progress tracking timed out"

// Reason - причина остановки опроса
type Reason string

const (
	ReasonCompleted       Reason = "completed"
	ReasonFailed          Reason = "failed"
	ReasonExpired         Reason = "expired"
	ReasonCancelled       Reason = "cancelled"
	ReasonTimedOut        Reason = "timed_out"
	ReasonUnauthenticated Reason = "unauthenticated"
)

// Outcome - результат цикла опроса
type Outcome struct {
	Reason  Reason
	Message string
}

// StatusFetcher запрашивает состояние сессии у бэкенда
type StatusFetcher interface {
	FetchProgress(ctx context.Context, token, sessionID string) apiclient.Response[json.RawMessage]
}

// StatusFetcherFunc позволяет использовать функцию как StatusFetcher
type StatusFetcherFunc func(ctx context.Context, token, sessionID string) apiclient.Response[json.RawMessage]

// FetchProgress реализует StatusFetcher
func (f StatusFetcherFunc) FetchProgress(ctx context.Context, token, sessionID string) apiclient.Response[json.RawMessage] {
	return f(ctx, token, sessionID)
}

// PollerConfig содержит параметры опроса
type PollerConfig struct {
	Interval    time.Duration
	MaxDuration time.Duration
}

// Poller опрашивает эндпоинт прогресса с фиксированным интервалом
type Poller struct {
	fetcher StatusFetcher
	cfg     PollerConfig
	logger  logger.Logger
}

// NewPoller создает Poller
func NewPoller(fetcher StatusFetcher, cfg PollerConfig, log logger.Logger) *Poller {
	return &Poller{fetcher: fetcher, cfg: cfg, logger: log}
}

// Run опрашивает сессию до терминального состояния, отмены ctx или истечения MaxDuration.
// Первый запрос уходит сразу, следующие - раз в Interval. Запросы не перекрываются.
func (p *Poller) Run(ctx context.Context, token, sessionID string, onUpdate func(domain.ProgressPayload)) Outcome {
	log := p.logger.With("session_id", sessionID)

	if token == "" {
		log.Warn("No auth token, progress polling aborted")
		return Outcome{Reason: ReasonUnauthenticated}
	}

	pollCtx := ctx
	if p.cfg.MaxDuration > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, p.cfg.MaxDuration)
		defer cancel()
	}

	ticker := backoff.NewTicker(backoff.NewConstantBackOff(p.cfg.Interval))
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			return p.stopped(ctx, log)
		case <-ticker.C:
		}

		resp := p.fetcher.FetchProgress(pollCtx, token, sessionID)
		if pollCtx.Err() != nil {
			return p.stopped(ctx, log)
		}

		if resp.StatusCode == http.StatusNotFound {
			log.Info("Progress session not found, polling stopped")
			return Outcome{Reason: ReasonExpired}
		}

		payload, err := decodePayload(resp)
		if err != nil {
			log.Warn("Progress poll failed, will retry", logger.Fields{"error": err.Error()})
			continue
		}

		onUpdate(payload)

		switch payload.Status {
		case domain.ProgressCompleted:
			return Outcome{Reason: ReasonCompleted, Message: payload.Message}
		case domain.ProgressError:
			message := payload.Error
			if message == "" {
				message = DefaultFailureMessage
			}
			return Outcome{Reason: ReasonFailed, Message: message}
		}
	}
}

func (p *Poller) stopped(parent context.Context, log logger.Logger) Outcome {
	if parent.Err() != nil {
		return Outcome{Reason: ReasonCancelled}
	}
	log.Warn("Progress polling exceeded max duration", logger.Fields{"max_duration": p.cfg.MaxDuration.String()})
	return Outcome{Reason: ReasonTimedOut, Message: TimedOutMessage}
}

// decodePayload извлекает состояние из ответа. Ответ с success=false считается
// временной ошибкой, если только сервер явно не сообщил status=error.
func decodePayload(resp apiclient.Response[json.RawMessage]) (domain.ProgressPayload, error) {
	var payload domain.ProgressPayload

	source := resp.Data
	if !resp.Success {
		source = resp.Body
	}
	if len(source) == 0 {
		if resp.Success {
			return payload, errors.New("empty progress payload")
		}
		return payload, errors.New(resp.Message + ": " + resp.Error)
	}

	if err := json.Unmarshal(source, &payload); err != nil {
		return payload, err
	}

	if !resp.Success {
		if payload.Status != domain.ProgressError {
			return payload, errors.New(resp.Message + ": " + resp.Error)
		}
		if payload.Error == "" {
			payload.Error = resp.Error
		}
	}
	return payload, nil
}
