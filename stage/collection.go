package stage

import (
	"github.com/kbukum/stagekit/errors"
)

// Pair is a keyed value. Keys identify records across stages: the
// output record for key K in one stage becomes the input for key K in
// the next.
type Pair[T any] struct {
	Key   string
	Value T
}

// Collection is an ordered, immutable set of keyed values bound to a
// pipeline Context. All keys are unique. Operations derive new
// collections; they never mutate the receiver.
type Collection[T any] struct {
	ctx   *Context
	pairs []Pair[T]
	index map[string]int
}

// New builds a collection from pairs, preserving their order.
// Returns a DUPLICATE_KEY error if two pairs share a key and an
// INVALID_KEY error for an empty key, which the artifact log cannot
// represent.
func New[T any](c *Context, pairs []Pair[T]) (*Collection[T], error) {
	index := make(map[string]int, len(pairs))
	for i, p := range pairs {
		if p.Key == "" {
			return nil, errors.EmptyKey()
		}
		if _, exists := index[p.Key]; exists {
			return nil, errors.DuplicateKey(p.Key)
		}
		index[p.Key] = i
	}
	return &Collection[T]{ctx: c, pairs: pairs, index: index}, nil
}

// FromValues builds a collection by deriving a key for each value.
func FromValues[T any](c *Context, values []T, key func(i int, v T) string) (*Collection[T], error) {
	pairs := make([]Pair[T], len(values))
	for i, v := range values {
		pairs[i] = Pair[T]{Key: key(i, v), Value: v}
	}
	return New(c, pairs)
}

// FromMap builds a collection from a map, ordering pairs by the given
// key slice. Keys absent from m are a KEY_NOT_FOUND error.
func FromMap[T any](c *Context, keys []string, m map[string]T) (*Collection[T], error) {
	pairs := make([]Pair[T], 0, len(keys))
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			return nil, errors.KeyNotFound(k)
		}
		pairs = append(pairs, Pair[T]{Key: k, Value: v})
	}
	return New(c, pairs)
}

// Len returns the number of records.
func (c *Collection[T]) Len() int { return len(c.pairs) }

// Keys returns the record keys in collection order.
func (c *Collection[T]) Keys() []string {
	keys := make([]string, len(c.pairs))
	for i, p := range c.pairs {
		keys[i] = p.Key
	}
	return keys
}

// Get returns the values in collection order.
func (c *Collection[T]) Get() []T {
	values := make([]T, len(c.pairs))
	for i, p := range c.pairs {
		values[i] = p.Value
	}
	return values
}

// Pairs returns a copy of the keyed records in collection order.
func (c *Collection[T]) Pairs() []Pair[T] {
	out := make([]Pair[T], len(c.pairs))
	copy(out, c.pairs)
	return out
}

// Value returns the value for key, reporting whether it exists.
func (c *Collection[T]) Value(key string) (T, bool) {
	if i, ok := c.index[key]; ok {
		return c.pairs[i].Value, true
	}
	var zero T
	return zero, false
}

// Context returns the pipeline context this collection is bound to.
func (c *Collection[T]) Context() *Context { return c.ctx }

// derive builds a sibling collection sharing the receiver's context.
// Callers guarantee pairs contain no duplicate keys.
func derive[T any](ctx *Context, pairs []Pair[T]) *Collection[T] {
	index := make(map[string]int, len(pairs))
	for i, p := range pairs {
		index[p.Key] = i
	}
	return &Collection[T]{ctx: ctx, pairs: pairs, index: index}
}
