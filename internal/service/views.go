package service

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// viewStore хранит состояние представлений по администратору. Запись живет ttl
// с последнего обращения, после чего создается заново.
type viewStore[V any] struct {
	mu     sync.Mutex
	cache  *gocache.Cache
	ttl    time.Duration
	create func() V
}

func newViewStore[V any](ttl time.Duration, create func() V) *viewStore[V] {
	return &viewStore[V]{
		cache:  gocache.New(ttl, ttl/2+time.Minute),
		ttl:    ttl,
		create: create,
	}
}

func (s *viewStore[V]) get(owner string) V {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cache.Get(owner); ok {
		view := cached.(V)
		// каждое обращение продлевает срок жизни
		s.cache.Set(owner, view, s.ttl)
		return view
	}
	view := s.create()
	s.cache.Set(owner, view, s.ttl)
	return view
}

func (s *viewStore[V]) release(owner string) {
	s.cache.Delete(owner)
}

