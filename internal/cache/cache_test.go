package cache

import "testing"

func TestLRUEvict(t *testing.T) {
	t.Parallel()

	var evicted []interface{}
	c, err := NewLRU(2, func(key, value interface{}) {
		evicted = append(evicted, key)
	})
	if err != nil {
		t.Fatalf("new lru: %v", err)
	}

	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a")
	c.Add("c", 3)

	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("expected [b] evicted, got %v", evicted)
	}

	c.Delete("a")
	c.Purge()
	if len(evicted) != 3 {
		t.Errorf("expected every entry to be evicted, got %v", evicted)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
}
