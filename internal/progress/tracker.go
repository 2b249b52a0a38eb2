package progress

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/pkg/logger"
)

// Сообщения, которые видит администратор
const (
	PreparingMessage    = "Preparing upload..."
	UploadingMessage    = "Uploading..."
	CompletedMessage    = "Upload completed successfully"
	MissingTokenMessage = "Authentication required to track upload progress"
	DefaultClearDelay   = 3 * time.Second
	notifyTimeout       = 5 * time.Second
	eventBuffer         = 64
)

// ErrTrackerClosed возвращается при попытке начать сессию на закрытом трекере
var ErrTrackerClosed = errors.New("progress tracker is closed")

// Notifier - канал уведомлений администратора. Success и Error заменяют
// уведомление о загрузке с тем же ключом.
type Notifier interface {
	Loading(key, message string)
	Success(key, message string)
	Error(key, message string)
	Dismiss(key string)
}

// EventSink получает изменения состояния сессии в порядке их возникновения.
// Вызовы идут из отдельной горутины трекера и не задерживают опрос.
type EventSink interface {
	SessionChanged(ctx context.Context, key string, session domain.ProgressSession)
}

// NopSink игнорирует события
type NopSink struct{}

// SessionChanged реализует EventSink
func (NopSink) SessionChanged(context.Context, string, domain.ProgressSession) {}

// Tracker владеет не более чем одной активной сессией для одной поверхности редактирования.
// Новая сессия вытесняет предыдущую, ответы вытесненной сессии отбрасываются.
type Tracker struct {
	key        string
	poller     *Poller
	notifier   Notifier
	sink       EventSink
	logger     logger.Logger
	clearDelay time.Duration

	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	events chan domain.ProgressSession

	mu         sync.Mutex
	session    *domain.ProgressSession
	cancelPoll context.CancelFunc
	clearTimer *time.Timer
	closed     bool
}

// NewTracker создает трекер для поверхности key
func NewTracker(key string, poller *Poller, notifier Notifier, sink EventSink, clearDelay time.Duration, log logger.Logger) *Tracker {
	if sink == nil {
		sink = NopSink{}
	}
	if clearDelay <= 0 {
		clearDelay = DefaultClearDelay
	}
	ctx, stop := context.WithCancel(context.Background())

	t := &Tracker{
		key:        key,
		poller:     poller,
		notifier:   notifier,
		sink:       sink,
		logger:     log.With("surface", key),
		clearDelay: clearDelay,
		ctx:        ctx,
		stop:       stop,
		events:     make(chan domain.ProgressSession, eventBuffer),
	}

	t.wg.Add(1)
	go t.deliver()

	return t
}

// Begin создает сессию в состоянии initializing и возвращает ее идентификатор
func (t *Tracker) Begin(message string) (string, error) {
	id, err := NewSessionID(time.Now())
	if err != nil {
		return "", err
	}
	if message == "" {
		message = PreparingMessage
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return "", ErrTrackerClosed
	}
	if t.session != nil {
		t.logger.Info("Progress session superseded", logger.Fields{
			"session_id":     t.session.SessionID,
			"new_session_id": id,
		})
	}
	t.resetLocked()
	t.session = &domain.ProgressSession{
		SessionID: id,
		Status:    domain.ProgressInitializing,
		Message:   message,
	}
	t.notifier.Loading(t.key, message)
	snapshot := *t.session
	t.mu.Unlock()

	t.publish(snapshot)
	return id, nil
}

// Start запускает опрос для сессии id. Возвращает false, если сессия уже не активна.
func (t *Tracker) Start(token, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.session == nil || t.session.SessionID != id {
		return false
	}

	pollCtx, cancel := context.WithCancel(t.ctx)
	t.cancelPoll = cancel

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()

		outcome := t.poller.Run(pollCtx, token, id, func(payload domain.ProgressPayload) {
			t.apply(id, payload)
		})
		t.finish(id, outcome)
	}()

	return true
}

// Fail завершает сессию id, если запрос, запустивший операцию, не удался
func (t *Tracker) Fail(id, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.session == nil || t.session.SessionID != id {
		return
	}
	t.resetLocked()
	t.session = nil
	t.notifier.Error(t.key, message)
}

// Snapshot возвращает копию текущей сессии
func (t *Tracker) Snapshot() (domain.ProgressSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return domain.ProgressSession{}, false
	}
	return *t.session, true
}

// Active возвращает идентификатор активной сессии или пустую строку
func (t *Tracker) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return ""
	}
	return t.session.SessionID
}

// Close останавливает опрос, таймеры и доставку событий. После Close состояние не меняется.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.resetLocked()
	t.session = nil
	t.mu.Unlock()

	t.stop()
	t.wg.Wait()
}

func (t *Tracker) apply(id string, payload domain.ProgressPayload) {
	t.mu.Lock()
	if !t.currentLocked(id) || (payload.SessionID != "" && payload.SessionID != id) {
		t.mu.Unlock()
		t.logger.Debug("Stale progress update discarded", logger.Fields{
			"session_id":         id,
			"payload_session_id": payload.SessionID,
		})
		return
	}

	s := t.session
	switch payload.Status {
	case domain.ProgressUploading, domain.ProgressCompleted, domain.ProgressError:
		s.Status = payload.Status
	case domain.ProgressInitializing:
	default:
		s.Status = domain.ProgressUploading
	}
	s.Progress = DeriveProgress(payload)
	s.TotalChunks = payload.TotalChunks
	s.ProcessedChunks = max(s.ProcessedChunks, payload.ProcessedChunks)
	s.CurrentBatch = payload.CurrentBatch
	s.TotalBatches = payload.TotalBatches
	s.Error = payload.Error
	switch {
	case payload.Message != "":
		s.Message = payload.Message
	case s.Status == domain.ProgressUploading:
		s.Message = UploadingMessage
	}
	if s.Status == domain.ProgressCompleted && payload.Progress == nil {
		s.Progress = 100
	}

	snapshot := *s
	t.mu.Unlock()

	t.publish(snapshot)
}

func (t *Tracker) finish(id string, outcome Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.currentLocked(id) {
		return
	}
	t.cancelPoll = nil

	log := t.logger.With("session_id", id)

	switch outcome.Reason {
	case ReasonCompleted:
		message := outcome.Message
		if message == "" {
			message = CompletedMessage
		}
		t.notifier.Success(t.key, message)
		t.clearTimer = time.AfterFunc(t.clearDelay, func() { t.clear(id) })
		log.Info("Progress session completed")
	case ReasonFailed, ReasonTimedOut:
		t.session = nil
		t.notifier.Error(t.key, outcome.Message)
		log.Warn("Progress session failed", logger.Fields{"reason": string(outcome.Reason), "error": outcome.Message})
	case ReasonExpired:
		t.session = nil
		t.notifier.Dismiss(t.key)
	case ReasonUnauthenticated:
		t.session = nil
		t.notifier.Error(t.key, MissingTokenMessage)
	case ReasonCancelled:
	}
}

func (t *Tracker) clear(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.currentLocked(id) {
		t.session = nil
		t.clearTimer = nil
	}
}

func (t *Tracker) currentLocked(id string) bool {
	return !t.closed && t.session != nil && t.session.SessionID == id
}

// resetLocked отменяет опрос и таймер очистки текущей сессии
func (t *Tracker) resetLocked() {
	if t.cancelPoll != nil {
		t.cancelPoll()
		t.cancelPoll = nil
	}
	if t.clearTimer != nil {
		t.clearTimer.Stop()
		t.clearTimer = nil
	}
}

// publish ставит событие в очередь. Если получатель не успевает, событие отбрасывается.
func (t *Tracker) publish(session domain.ProgressSession) {
	select {
	case t.events <- session:
	default:
		t.logger.Warn("Progress event dropped, sink is behind", logger.Fields{
			"session_id": session.SessionID,
			"status":     session.Status,
		})
	}
}

func (t *Tracker) deliver() {
	defer t.wg.Done()

	for {
		select {
		case <-t.ctx.Done():
			return
		case session := <-t.events:
			ctx, cancel := context.WithTimeout(t.ctx, notifyTimeout)
			t.sink.SessionChanged(ctx, t.key, session)
			cancel()
		}
	}
}
