// Package loading считает выполняющиеся запросы к бэкенду для глобального индикатора загрузки.
package loading

import "sync"

// Counter - счетчик запросов в полете с подпиской на изменения.
// Экземпляр создается корнем приложения и передается явно.
type Counter struct {
	mu     sync.Mutex
	count  int
	nextID int
	subs   map[int]func(int)
}

// NewCounter создает новый счетчик
func NewCounter() *Counter {
	return &Counter{subs: make(map[int]func(int))}
}

// Increment увеличивает счетчик на единицу
func (c *Counter) Increment() {
	c.mu.Lock()
	c.count++
	c.notifyLocked()
	c.mu.Unlock()
}

// Decrement уменьшает счетчик на единицу, не опускаясь ниже нуля
func (c *Counter) Decrement() {
	c.mu.Lock()
	if c.count == 0 {
		c.mu.Unlock()
		return
	}
	c.count--
	c.notifyLocked()
	c.mu.Unlock()
}

// Count возвращает текущее значение
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Subscribe регистрирует подписчика. Подписчик сразу получает текущее значение.
// Возвращаемая функция отменяет подписку.
func (c *Counter) Subscribe(fn func(int)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	fn(c.count)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// подписчики вызываются под блокировкой, чтобы порядок уведомлений совпадал с порядком изменений
func (c *Counter) notifyLocked() {
	for _, fn := range c.subs {
		fn(c.count)
	}
}
