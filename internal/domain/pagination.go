package domain

// PaginationInfo описывает текущее окно списка, общее для всех табличных представлений
type PaginationInfo struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
	Limit       int `json:"limit"`
}

// TotalPagesFor возвращает количество страниц для коллекции из total элементов, минимум 1
func TotalPagesFor(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}
