package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator_Order(t *testing.T) {
	gen := NewFixedIDGenerator("root", "c1")
	assert.Equal(t, "root", gen.Generate())
	assert.Equal(t, "c1", gen.Generate())
	assert.Equal(t, "extra-1", gen.Generate())
	assert.Equal(t, "extra-2", gen.Generate())
}

func TestFixedIDGenerator_ConcurrentUnique(t *testing.T) {
	gen := NewFixedIDGenerator()
	const goroutines = 50

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := gen.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines)
}
