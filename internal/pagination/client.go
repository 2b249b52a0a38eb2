package pagination

import (
	"sync"

	"github.com/samber/lo"

	"github.com/pryve/pryve-admin/internal/domain"
)

// ClientList - список, вся коллекция которого загружена заранее.
// Окно и количество страниц вычисляются из отфильтрованной коллекции при каждом чтении.
type ClientList[T any] struct {
	mu     sync.Mutex
	all    []T
	filter func(T) bool
	page   int
	limit  int
	opened bool
}

// NewClientList создает пустой список с размером страницы limit
func NewClientList[T any](limit int) *ClientList[T] {
	return &ClientList[T]{page: 1, limit: NormalizeLimit(limit)}
}

// SetItems заменяет всю коллекцию
func (l *ClientList[T]) SetItems(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.all = append([]T(nil), items...)
	l.clampLocked()
}

// Append добавляет элементы в конец коллекции
func (l *ClientList[T]) Append(items ...T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.all = append(l.all, items...)
}

// SetFilter задает фильтр коллекции и возвращает на первую страницу. nil снимает фильтр.
func (l *ClientList[T]) SetFilter(filter func(T) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.filter = filter
	l.page = 1
}

// ChangePage переходит на страницу page, ограниченную диапазоном [1, totalPages]
func (l *ClientList[T]) ChangePage(page int) domain.PaginationInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.page = page
	l.clampLocked()
	return l.infoLocked()
}

// ChangeLimit меняет размер страницы и возвращает на первую страницу
func (l *ClientList[T]) ChangeLimit(limit int) domain.PaginationInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limit = NormalizeLimit(limit)
	l.page = 1
	return l.infoLocked()
}

// Navigate выполняет запрос дашборда. Первый запрос открывает окно page с размером limit,
// после него новый размер страницы всегда возвращает на первую страницу. Нулевые page и limit
// оставляют текущее окно.
func (l *ClientList[T]) Navigate(page, limit int) domain.PaginationInfo {
	l.mu.Lock()
	if !l.opened {
		l.opened = true
		if limit > 0 {
			l.limit = NormalizeLimit(limit)
		}
	}
	limitChanged := limit > 0 && NormalizeLimit(limit) != l.limit
	l.mu.Unlock()

	switch {
	case limitChanged:
		return l.ChangeLimit(limit)
	case page > 0:
		return l.ChangePage(page)
	default:
		return l.Info()
	}
}

// Page возвращает видимое окно отфильтрованной коллекции
func (l *ClientList[T]) Page() []T {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.clampLocked()
	start := (l.page - 1) * l.limit
	return lo.Slice(l.filteredLocked(), start, start+l.limit)
}

// Info возвращает окно отфильтрованной коллекции
func (l *ClientList[T]) Info() domain.PaginationInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.clampLocked()
	return l.infoLocked()
}

// Update применяет mutate ко всем элементам, для которых match вернул true.
// Если элемент выпал из фильтра, текущая страница ограничивается новым количеством страниц.
func (l *ClientList[T]) Update(match func(T) bool, mutate func(*T)) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	updated := 0
	for i := range l.all {
		if match(l.all[i]) {
			mutate(&l.all[i])
			updated++
		}
	}
	l.clampLocked()
	return updated
}

// Remove удаляет элементы, для которых match вернул true
func (l *ClientList[T]) Remove(match func(T) bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	before := len(l.all)
	l.all = lo.Reject(l.all, func(item T, _ int) bool { return match(item) })
	l.clampLocked()
	return before - len(l.all)
}

func (l *ClientList[T]) filteredLocked() []T {
	if l.filter == nil {
		return append([]T(nil), l.all...)
	}
	return lo.Filter(l.all, func(item T, _ int) bool { return l.filter(item) })
}

func (l *ClientList[T]) clampLocked() {
	l.page = clampPage(l.page, domain.TotalPagesFor(len(l.filteredLocked()), l.limit))
}

func (l *ClientList[T]) infoLocked() domain.PaginationInfo {
	return infoFor(l.page, l.limit, len(l.filteredLocked()))
}
