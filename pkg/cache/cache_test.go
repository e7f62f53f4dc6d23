package cache_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/Klebert-Engineering/simfil/pkg/cache"
)

func TestCacheNew(t *testing.T) {
	c := cache.New[int](10)
	if got := c.Len(); got != 0 {
		t.Fatalf("expected empty cache, got %d", got)
	}
	if got := c.Capacity(); got != 10 {
		t.Fatalf("expected capacity 10, got %d", got)
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	c := cache.New[int](0)
	if got := c.Capacity(); got != 256 {
		t.Fatalf("expected default capacity 256, got %d", got)
	}
}

func TestCacheSetGet(t *testing.T) {
	c := cache.New[string](4)
	c.Set("k", "v")
	if got := c.Len(); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "v" {
		t.Fatalf("expected v, got %q", got)
	}
}

func TestCacheMiss(t *testing.T) {
	c := cache.New[string](4)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected cache miss")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := cache.New[int](3)
	for i, k := range []string{"a", "b", "c"} {
		c.Set(k, i)
	}

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}
	c.Set("d", 3)

	if got := c.Len(); got != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", got)
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %s to survive", k)
		}
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c := cache.New[string](4)
	calls := 0
	create := func() (string, error) {
		calls++
		return "built", nil
	}

	for range 3 {
		v, err := c.GetOrCreate("k", create)
		if err != nil {
			t.Fatal(err)
		}
		if v != "built" {
			t.Fatalf("expected built, got %q", v)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 create call, got %d", calls)
	}
}

func TestCacheGetOrCreateErrorNotCached(t *testing.T) {
	c := cache.New[string](4)
	fail := errors.New("boom")
	calls := 0

	for range 2 {
		_, err := c.GetOrCreate("k", func() (string, error) {
			calls++
			return "", fail
		})
		if !errors.Is(err, fail) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("failing keys must be retried, got %d calls", calls)
	}
	if c.Len() != 0 {
		t.Fatal("errors must not be cached")
	}
}

func TestCacheInvalidateAndClear(t *testing.T) {
	c := cache.New[int](4)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to be invalidated")
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after clear, got %d", c.Len())
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := cache.New[int](64)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys := []string{"a", "b", "c", "d"}
			for j := range 1000 {
				k := keys[(i+j)%len(keys)]
				c.Set(k, j)
				c.Get(k)
			}
		}()
	}
	wg.Wait()
}
