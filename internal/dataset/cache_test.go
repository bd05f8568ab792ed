package dataset_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KaramelBytes/datadash/internal/dataset"
	"github.com/KaramelBytes/datadash/internal/table/tabletest"
)

func TestCacheKeysAreCleanedPaths(t *testing.T) {
	c := dataset.NewCache()
	tbl := tabletest.Sensors(t, 3, 1)
	c.Put("/data/./a.parquet", tbl)

	got, ok := c.Get("/data/a.parquet")
	assert.True(t, ok)
	assert.Same(t, tbl, got)
	_, ok = c.LoadedAt("/data/a.parquet")
	assert.True(t, ok)
	assert.Equal(t, []string{"/data/a.parquet"}, c.Keys())

	c.Put("/data/b.parquet", tbl)
	assert.Equal(t, []string{"/data/a.parquet", "/data/b.parquet"}, c.Keys())
	c.Forget("/data/a.parquet")
	_, ok = c.Get("/data/a.parquet")
	assert.False(t, ok)
	c.Clear()
	assert.Zero(t, c.Len())
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := dataset.NewCache()
	tbl := tabletest.Sensors(t, 3, 1)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Put("/x", tbl)
			_, _ = c.Get("/x")
			_ = c.Keys()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}
