// Package notify хранит уведомления для администраторов дашборда до тех пор,
// пока дашборд их не заберет.
package notify

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/pryve/pryve-admin/pkg/logger"
)

// Level - тип уведомления
type Level string

const (
	LevelLoading Level = "loading"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice - одно уведомление. Key вида "<userID>:<surface>" определяет, кому оно адресовано.
type Notice struct {
	Key       string    `json:"key"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Feed хранит последнее уведомление для каждого ключа. Итоговое уведомление
// операции заменяет уведомление о загрузке с тем же ключом.
type Feed struct {
	mu     sync.Mutex
	items  *cache.Cache
	ttl    time.Duration
	logger logger.Logger
}

// NewFeed создает ленту, в которой непрочитанные уведомления живут ttl
func NewFeed(ttl time.Duration, log logger.Logger) *Feed {
	return &Feed{
		items:  cache.New(ttl, 2*ttl),
		ttl:    ttl,
		logger: log,
	}
}

// Loading показывает уведомление о выполняющейся операции
func (f *Feed) Loading(key, message string) { f.put(key, LevelLoading, message) }

// Success заменяет уведомление key успешным результатом
func (f *Feed) Success(key, message string) { f.put(key, LevelSuccess, message) }

// Error заменяет уведомление key ошибкой
func (f *Feed) Error(key, message string) { f.put(key, LevelError, message) }

// Dismiss убирает уведомление key
func (f *Feed) Dismiss(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items.Delete(key)
}

// Pending возвращает уведомления владельца по времени создания. Итоговые уведомления
// отдаются один раз, уведомления о загрузке остаются до замены.
func (f *Feed) Pending(owner string) []Notice {
	prefix := owner + ":"

	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Notice
	for key, item := range f.items.Items() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		n := item.Object.(Notice)
		out = append(out, n)
		if n.Level != LevelLoading {
			f.items.Delete(key)
		}
	}

	slices.SortFunc(out, func(a, b Notice) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

func (f *Feed) put(key string, level Level, message string) {
	f.mu.Lock()
	f.items.Set(key, Notice{Key: key, Level: level, Message: message, CreatedAt: time.Now()}, f.ttl)
	f.mu.Unlock()

	fields := logger.Fields{"key": key, "level": string(level), "message": message}
	if level == LevelError {
		f.logger.Warn("Admin notified about failure", fields)
		return
	}
	f.logger.Debug("Admin notified", fields)
}
