// Package pagination содержит контроллеры постраничных списков: серверный (страницы
// запрашиваются у бэкенда) и клиентский (вся коллекция загружена, окно вычисляется локально).
package pagination

import "github.com/pryve/pryve-admin/internal/domain"

// DefaultLimit - размер страницы по умолчанию
const DefaultLimit = 10

// PageSizes - размеры страниц, которые предлагает дашборд
var PageSizes = []int{5, 10, 20, 50}

// NormalizeLimit возвращает DefaultLimit для неположительных значений
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// clampPage ограничивает страницу диапазоном [1, totalPages]
func clampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

func infoFor(page, limit, total int) domain.PaginationInfo {
	totalPages := domain.TotalPagesFor(total, limit)
	return domain.PaginationInfo{
		CurrentPage: clampPage(page, totalPages),
		TotalPages:  totalPages,
		TotalItems:  total,
		Limit:       limit,
	}
}
