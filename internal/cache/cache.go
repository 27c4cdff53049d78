package cache

type Cache interface {
	Get(x interface{}) (interface{}, bool)
	Add(key, value interface{})
	Keys() []interface{}
	Delete(key interface{})
	Len() int
}

// EvictFn is called with entries pushed out by capacity or removed with Delete.
type EvictFn func(key, value interface{})
