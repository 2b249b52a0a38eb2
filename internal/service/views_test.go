package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type counterView struct{ n int }

func TestViewStore_SlidingExpiry(t *testing.T) {
	created := 0
	store := newViewStore(60*time.Millisecond, func() *counterView {
		created++
		return &counterView{}
	})

	first := store.get("admin-1")
	first.n = 7

	// обращения чаще ttl держат запись живой
	for i := 0; i < 5; i++ {
		time.Sleep(30 * time.Millisecond)
		assert.Same(t, first, store.get("admin-1"))
	}
	assert.Equal(t, 1, created)

	time.Sleep(90 * time.Millisecond)
	assert.NotSame(t, first, store.get("admin-1"))
	assert.Equal(t, 2, created)

	store.release("admin-1")
	store.get("admin-1")
	assert.Equal(t, 3, created)
}
