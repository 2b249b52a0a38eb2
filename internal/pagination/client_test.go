package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pryve/pryve-admin/internal/domain"
)

type row struct {
	ID     int
	Active bool
}

func rows(n int) []row {
	out := make([]row, n)
	for i := range out {
		out[i] = row{ID: i + 1, Active: true}
	}
	return out
}

func onlyActive(r row) bool { return r.Active }

func TestClientList_PageSlicing(t *testing.T) {
	list := NewClientList[row](10)
	list.SetItems(rows(25))

	assert.Equal(t, domain.PaginationInfo{CurrentPage: 1, TotalPages: 3, TotalItems: 25, Limit: 10}, list.Info())

	page := list.Page()
	require.Len(t, page, 10)
	assert.Equal(t, 1, page[0].ID)

	list.ChangePage(3)
	page = list.Page()
	require.Len(t, page, 5)
	assert.Equal(t, 21, page[0].ID)
	assert.Equal(t, 25, page[4].ID)
}

func TestClientList_ClampsWhenFilteredCountShrinks(t *testing.T) {
	list := NewClientList[row](10)
	list.SetItems(rows(55))
	list.SetFilter(onlyActive)
	list.ChangePage(5)
	require.Equal(t, 5, list.Info().CurrentPage)

	// 43 элемента выпадают из фильтра, остается 12
	list.Update(func(r row) bool { return r.ID > 12 }, func(r *row) { r.Active = false })

	info := list.Info()
	assert.Equal(t, 2, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, 12, info.TotalItems)

	page := list.Page()
	require.Len(t, page, 2)
	assert.Equal(t, 11, page[0].ID)
}

func TestClientList_ChangeLimitResetsPage(t *testing.T) {
	list := NewClientList[row](5)
	list.SetItems(rows(30))
	list.ChangePage(4)

	info := list.ChangeLimit(20)
	assert.Equal(t, 1, info.CurrentPage)
	assert.Equal(t, 2, info.TotalPages)
	assert.Equal(t, 20, info.Limit)
}

func TestClientList_ChangePageIsClamped(t *testing.T) {
	list := NewClientList[row](10)
	list.SetItems(rows(15))

	assert.Equal(t, 2, list.ChangePage(9).CurrentPage)
	assert.Equal(t, 1, list.ChangePage(-1).CurrentPage)
}

func TestClientList_EmptyCollection(t *testing.T) {
	list := NewClientList[row](0)

	assert.Equal(t, domain.PaginationInfo{CurrentPage: 1, TotalPages: 1, TotalItems: 0, Limit: DefaultLimit}, list.Info())
	assert.Empty(t, list.Page())
}

func TestClientList_FilterAndRemove(t *testing.T) {
	list := NewClientList[row](10)
	items := rows(4)
	items[1].Active = false
	list.SetItems(items)
	list.SetFilter(onlyActive)

	assert.Equal(t, 3, list.Info().TotalItems)

	removed := list.Remove(func(r row) bool { return r.ID == 1 })
	assert.Equal(t, 1, removed)
	assert.Equal(t, []row{{ID: 3, Active: true}, {ID: 4, Active: true}}, list.Page())

	list.SetFilter(nil)
	assert.Equal(t, 3, list.Info().TotalItems)
}

func TestClientList_Append(t *testing.T) {
	list := NewClientList[row](5)
	list.SetItems(rows(5))
	require.Equal(t, 1, list.Info().TotalPages)

	list.Append(row{ID: 6, Active: true})

	info := list.ChangePage(2)
	assert.Equal(t, 2, info.TotalPages)
	assert.Equal(t, 6, info.TotalItems)
	assert.Equal(t, []row{{ID: 6, Active: true}}, list.Page())
}

func TestClientList_Navigate(t *testing.T) {
	list := NewClientList[row](10)
	list.SetItems(rows(45))

	info := list.Navigate(2, 10)
	assert.Equal(t, 2, info.CurrentPage)

	info = list.Navigate(2, 20)
	assert.Equal(t, domain.PaginationInfo{CurrentPage: 1, TotalPages: 3, TotalItems: 45, Limit: 20}, info)
	assert.Equal(t, 1, list.Page()[0].ID)

	info = list.Navigate(3, 20)
	assert.Equal(t, 3, info.CurrentPage)
	assert.Len(t, list.Page(), 5)

	// нулевые значения оставляют окно
	info = list.Navigate(0, 0)
	assert.Equal(t, 3, info.CurrentPage)
	assert.Equal(t, 20, info.Limit)
}

func TestClientList_FirstNavigateOpensRequestedWindow(t *testing.T) {
	list := NewClientList[row](10)
	list.SetItems(rows(12))

	info := list.Navigate(3, 5)
	assert.Equal(t, domain.PaginationInfo{CurrentPage: 3, TotalPages: 3, TotalItems: 12, Limit: 5}, info)
	assert.Equal(t, []row{{ID: 11, Active: true}, {ID: 12, Active: true}}, list.Page())
}
