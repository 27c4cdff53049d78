package strpool

import (
	"strings"
	"sync"
)

var pool = sync.Pool{
	New: func() interface{} {
		return &strings.Builder{}
	},
}

// Get returns an empty builder.
func Get() *strings.Builder {
	return pool.Get().(*strings.Builder)
}

// Put resets b and returns it to the pool. Strings already built from b stay valid.
func Put(b *strings.Builder) {
	b.Reset()
	pool.Put(b)
}
