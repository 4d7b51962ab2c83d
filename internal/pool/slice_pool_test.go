package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInt64Slice(t *testing.T) {
	t.Run("returns slice with correct size", func(t *testing.T) {
		slice, cleanup := GetInt64Slice(100)
		defer cleanup()

		require.Len(t, slice, 100)
		require.GreaterOrEqual(t, cap(slice), 100)
	})

	t.Run("shrinks a larger pooled slice", func(t *testing.T) {
		_, cleanup1 := GetInt64Slice(1000)
		cleanup1()

		slice, cleanup2 := GetInt64Slice(3)
		defer cleanup2()

		require.Len(t, slice, 3)
	})

	t.Run("grows past pooled capacity", func(t *testing.T) {
		_, cleanup1 := GetInt64Slice(10)
		cleanup1()

		slice, cleanup2 := GetInt64Slice(1000)
		defer cleanup2()

		require.Len(t, slice, 1000)
	})

	t.Run("zero size", func(t *testing.T) {
		slice, cleanup := GetInt64Slice(0)
		defer cleanup()

		require.Empty(t, slice)
	})
}

func TestGetInt64Slice_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			slice, cleanup := GetInt64Slice(50)
			defer cleanup()

			for j := range slice {
				slice[j] = int64(j)
			}
		}()
	}
	wg.Wait()
}
