package registry

import (
	"sync"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestTable_GetOrCreateIsIdempotent(t *testing.T) {
	table := NewTable()

	first := table.GetOrCreate("app")
	second := table.GetOrCreate("app")
	require.Same(t, first, second)

	other := table.GetOrCreate("other")
	require.NotSame(t, first, other)
}

func TestTable_RemoveDropsInstance(t *testing.T) {
	table := NewTable()

	before := table.GetOrCreate("app")
	table.Remove("app")

	_, ok := table.Get("app")
	require.False(t, ok)

	// A fresh lookup after removal yields a new, empty registry.
	after := table.GetOrCreate("app")
	require.NotSame(t, before, after)
}

func TestTable_RemoveMissingIsNoop(t *testing.T) {
	table := NewTable()
	table.Remove("never-created")
	require.Empty(t, table.Names())
}

func TestTable_Names(t *testing.T) {
	table := NewTable()
	table.GetOrCreate("a")
	table.GetOrCreate("b")
	require.ElementsMatch(t, []string{"a", "b"}, table.Names())
}

func TestTable_ConcurrentGetOrCreate(t *testing.T) {
	table := NewTable()

	const goroutines = 32
	results := make([]*prom.Registry, goroutines)

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = table.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		require.Same(t, results[0], results[i])
	}
}
