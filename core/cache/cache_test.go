package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestLRU_BasicOperations(t *testing.T) {
	c := NewLRU[string, int](10)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss on empty cache")
	}
	c.Put("a", 1)
	c.Put("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v", v, ok)
	}
	c.Put("a", 3)
	if v, _ := c.Get("a"); v != 3 {
		t.Errorf("updated value = %d, want 3", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry should be evicted")
	}
	for _, key := range []string{"a", "c"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s should still be cached", key)
		}
	}
	if s := c.Stats(); s.Evictions != 1 || s.Size != 2 || s.MaxSize != 2 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestLRU_Stats(t *testing.T) {
	c := NewLRU[string, int](0)
	c.Put("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("b")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 || s.Evictions != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestLRU_UnlimitedSize(t *testing.T) {
	for _, size := range []int{0, -5} {
		c := NewLRU[int, int](size)
		for i := 0; i < 1000; i++ {
			c.Put(i, i)
		}
		if c.Len() != 1000 {
			t.Errorf("size %d: Len() = %d, want 1000", size, c.Len())
		}
	}
}

func TestLRU_Concurrency(t *testing.T) {
	c := NewLRU[string, int](50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%80)
				c.Put(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 50 {
		t.Errorf("Len() = %d exceeds max size", c.Len())
	}
}
