package progress

import (
	"sync"
	"time"

	"github.com/pryve/pryve-admin/pkg/logger"
)

// Registry хранит трекеры по ключу поверхности (например, "<userID>:system-prompt")
type Registry struct {
	poller     *Poller
	notifier   Notifier
	sink       EventSink
	clearDelay time.Duration
	logger     logger.Logger

	mu       sync.Mutex
	trackers map[string]*Tracker
	closed   bool
}

// NewRegistry создает реестр трекеров с общими зависимостями
func NewRegistry(poller *Poller, notifier Notifier, sink EventSink, clearDelay time.Duration, log logger.Logger) *Registry {
	return &Registry{
		poller:     poller,
		notifier:   notifier,
		sink:       sink,
		clearDelay: clearDelay,
		logger:     log,
		trackers:   make(map[string]*Tracker),
	}
}

// Tracker возвращает трекер поверхности, создавая его при первом обращении.
// После Close возвращает уже закрытый трекер.
func (r *Registry) Tracker(key string) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.trackers[key]; ok {
		return t
	}

	t := NewTracker(key, r.poller, r.notifier, r.sink, r.clearDelay, r.logger)
	if r.closed {
		t.Close()
		return t
	}
	r.trackers[key] = t
	return t
}

// Release закрывает трекер поверхности, например при выходе администратора
func (r *Registry) Release(key string) {
	r.mu.Lock()
	t, ok := r.trackers[key]
	delete(r.trackers, key)
	r.mu.Unlock()

	if ok {
		t.Close()
	}
}

// Close закрывает все трекеры
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	trackers := r.trackers
	r.trackers = make(map[string]*Tracker)
	r.mu.Unlock()

	for _, t := range trackers {
		t.Close()
	}
	r.logger.Info("Progress trackers closed", logger.Fields{"count": len(trackers)})
}
