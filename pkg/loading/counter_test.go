package loading

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounter_NeverNegative(t *testing.T) {
	c := NewCounter()

	c.Decrement()
	assert.Equal(t, 0, c.Count())

	c.Increment()
	c.Decrement()
	c.Decrement()
	assert.Equal(t, 0, c.Count())
}

func TestCounter_SubscribeReceivesCurrentAndChanges(t *testing.T) {
	c := NewCounter()
	c.Increment()

	var seen []int
	unsubscribe := c.Subscribe(func(n int) { seen = append(seen, n) })

	c.Increment()
	c.Decrement()
	unsubscribe()
	c.Decrement()

	assert.Equal(t, []int{1, 2, 1}, seen)
}

func TestCounter_ConcurrentUse(t *testing.T) {
	c := NewCounter()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Increment()
			c.Decrement()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, c.Count())
}

func TestCounter_InstancesAreIsolated(t *testing.T) {
	a, b := NewCounter(), NewCounter()
	a.Increment()

	assert.Equal(t, 1, a.Count())
	assert.Equal(t, 0, b.Count())
}
