package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceIDGenerator_Sequence(t *testing.T) {
	gen := NewSequenceIDGenerator("q")

	assert.Equal(t, "q-0001", gen.Generate())
	assert.Equal(t, "q-0002", gen.Generate())
	assert.Equal(t, 2, gen.Issued())
}

func TestSequenceIDGenerator_DefaultPrefix(t *testing.T) {
	gen := NewSequenceIDGenerator("")
	assert.Equal(t, "id-0001", gen.Generate())
}

func TestSequenceIDGenerator_Reset(t *testing.T) {
	gen := NewSequenceIDGenerator("q")
	gen.Generate()
	gen.Generate()

	gen.Reset()

	assert.Equal(t, 0, gen.Issued())
	assert.Equal(t, "q-0001", gen.Generate())
}

func TestSequenceIDGenerator_ConcurrentUnique(t *testing.T) {
	gen := NewSequenceIDGenerator("q")

	const goroutines = 50
	ids := make(chan string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- gen.Generate()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, goroutines)
}
