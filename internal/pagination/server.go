package pagination

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/pkg/logger"
)

// PageFetcher запрашивает одну страницу у бэкенда
type PageFetcher[T any] func(ctx context.Context, page, limit int) apiclient.Response[[]T]

// ServerList - список, страницы которого отдает бэкенд. Pagination из ответа
// заменяет текущую verbatim, counts сливаются в сводку C и не пересчитываются по странице.
type ServerList[T any, C any] struct {
	fetch  PageFetcher[T]
	logger logger.Logger

	mu         sync.Mutex
	items      []T
	info       domain.PaginationInfo
	counts     C
	limit      int
	loaded     bool
	generation uint64
}

// NewServerList создает пустой список с размером страницы limit
func NewServerList[T any, C any](fetch PageFetcher[T], limit int, log logger.Logger) *ServerList[T, C] {
	limit = NormalizeLimit(limit)
	return &ServerList[T, C]{
		fetch:  fetch,
		logger: log,
		info:   infoFor(1, limit, 0),
		limit:  limit,
	}
}

// Fetch загружает страницу. При неуспехе состояние списка не меняется.
// Если во время запроса был начат более новый, результат отбрасывается.
func (l *ServerList[T, C]) Fetch(ctx context.Context, page, limit int) apiclient.Response[[]T] {
	limit = NormalizeLimit(limit)
	if page < 1 {
		page = 1
	}

	l.mu.Lock()
	l.generation++
	generation := l.generation
	l.mu.Unlock()

	resp := l.fetch(ctx, page, limit)
	if !resp.Success {
		return resp
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if generation != l.generation {
		return resp
	}

	l.items = resp.Data
	l.limit = limit
	l.loaded = true
	if resp.Pagination != nil {
		l.info = *resp.Pagination
	} else {
		l.info = infoFor(page, limit, len(resp.Data))
	}
	if len(resp.Counts) > 0 {
		// поля, которых нет в ответе, сохраняют прежние значения
		if err := json.Unmarshal(resp.Counts, &l.counts); err != nil {
			l.logger.Warn("Malformed counts in list response", logger.Fields{
				"error":  err.Error(),
				"counts": string(resp.Counts),
			})
		}
	}
	return resp
}

// Load выполняет запрос дашборда. После первой загрузки новый размер страницы всегда
// возвращает на первую страницу, иначе загружается page. Нулевые page и limit оставляют текущие значения.
func (l *ServerList[T, C]) Load(ctx context.Context, page, limit int) apiclient.Response[[]T] {
	l.mu.Lock()
	current, currentPage, loaded := l.limit, l.info.CurrentPage, l.loaded
	l.mu.Unlock()

	if limit <= 0 {
		limit = current
	}
	if !loaded {
		return l.Fetch(ctx, page, limit)
	}
	if limit != current {
		return l.ChangeLimit(ctx, limit)
	}
	if page <= 0 {
		page = currentPage
	}
	return l.ChangePage(ctx, page)
}

// ChangePage загружает страницу page с текущим размером
func (l *ServerList[T, C]) ChangePage(ctx context.Context, page int) apiclient.Response[[]T] {
	l.mu.Lock()
	limit := l.limit
	l.mu.Unlock()
	return l.Fetch(ctx, page, limit)
}

// ChangeLimit меняет размер страницы и возвращает на первую страницу
func (l *ServerList[T, C]) ChangeLimit(ctx context.Context, limit int) apiclient.Response[[]T] {
	return l.Fetch(ctx, 1, limit)
}

// Items возвращает копию текущей страницы
func (l *ServerList[T, C]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.items...)
}

// Info возвращает текущее окно списка
func (l *ServerList[T, C]) Info() domain.PaginationInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.info
}

// Counts возвращает сводку по всей коллекции
func (l *ServerList[T, C]) Counts() C {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts
}

// Update применяет mutate к первому элементу, для которого match вернул true
func (l *ServerList[T, C]) Update(match func(T) bool, mutate func(*T)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		if match(l.items[i]) {
			mutate(&l.items[i])
			return true
		}
	}
	return false
}

// AdjustCounts меняет сводку без перезапроса списка
func (l *ServerList[T, C]) AdjustCounts(adjust func(*C)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	adjust(&l.counts)
}
