package stage

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/kbukum/stagekit/errors"
)

// Filter returns the records for which keep is true, preserving order.
func (c *Collection[T]) Filter(keep func(key string, value T) bool) *Collection[T] {
	pairs := make([]Pair[T], 0, len(c.pairs))
	for _, p := range c.pairs {
		if keep(p.Key, p.Value) {
			pairs = append(pairs, p)
		}
	}
	return derive(c.ctx, pairs)
}

// Sort returns the records reordered by less. The sort is stable, so
// records that compare equal keep their input order.
func (c *Collection[T]) Sort(less func(a, b Pair[T]) bool) *Collection[T] {
	pairs := c.Pairs()
	sort.SliceStable(pairs, func(i, j int) bool { return less(pairs[i], pairs[j]) })
	return derive(c.ctx, pairs)
}

// Limit returns the first n records. If n exceeds the collection
// length the whole collection is returned; n < 0 yields an empty one.
func (c *Collection[T]) Limit(n int) *Collection[T] {
	if n < 0 {
		n = 0
	}
	if n > len(c.pairs) {
		n = len(c.pairs)
	}
	pairs := make([]Pair[T], n)
	copy(pairs, c.pairs[:n])
	return derive(c.ctx, pairs)
}

// Join pairs each record of a with the record of b sharing its key and
// combines them. Keys of a with no counterpart in b are dropped; the
// output keeps a's order. Use JoinStrict to treat a missing
// counterpart as an error.
func Join[A, B, O any](a *Collection[A], b *Collection[B], combine func(key string, av A, bv B) O) *Collection[O] {
	pairs := make([]Pair[O], 0, len(a.pairs))
	for _, p := range a.pairs {
		bv, ok := b.Value(p.Key)
		if !ok {
			continue
		}
		pairs = append(pairs, Pair[O]{Key: p.Key, Value: combine(p.Key, p.Value, bv)})
	}
	return derive(a.ctx, pairs)
}

// JoinStrict is Join, but a key of a with no counterpart in b is a
// KEY_NOT_FOUND error.
func JoinStrict[A, B, O any](a *Collection[A], b *Collection[B], combine func(key string, av A, bv B) O) (*Collection[O], error) {
	pairs := make([]Pair[O], 0, len(a.pairs))
	for _, p := range a.pairs {
		bv, ok := b.Value(p.Key)
		if !ok {
			return nil, errors.KeyNotFound(p.Key)
		}
		pairs = append(pairs, Pair[O]{Key: p.Key, Value: combine(p.Key, p.Value, bv)})
	}
	return derive(a.ctx, pairs), nil
}

// KeyPolicy decides what FlatMap does when expansion produces a key
// that already exists in the output.
type KeyPolicy int

const (
	// KeyPolicyReject fails the expansion with a DUPLICATE_KEY error.
	KeyPolicyReject KeyPolicy = iota
	// KeyPolicyLastWins keeps the later record in place of the earlier
	// one, at the earlier record's position.
	KeyPolicyLastWins
)

// FlatMap expands each record into zero or more keyed records,
// concatenated in input order. Duplicate output keys are handled per
// policy.
func FlatMap[I, O any](c *Collection[I], policy KeyPolicy, expand func(key string, value I) []Pair[O]) (*Collection[O], error) {
	var pairs []Pair[O]
	index := make(map[string]int)
	for _, p := range c.pairs {
		for _, out := range expand(p.Key, p.Value) {
			if out.Key == "" {
				return nil, errors.EmptyKey()
			}
			if at, exists := index[out.Key]; exists {
				if policy == KeyPolicyReject {
					return nil, errors.DuplicateKey(out.Key)
				}
				pairs[at] = out
				continue
			}
			index[out.Key] = len(pairs)
			pairs = append(pairs, out)
		}
	}
	return &Collection[O]{ctx: c.ctx, pairs: pairs, index: index}, nil
}

// ChildKeys derives output keys for FlatMap expansions as
// "<parent>:<i>", stable across runs.
func ChildKeys(parent string, i int) string {
	return fmt.Sprintf("%s:%d", parent, i)
}

// UUIDKeys derives random output keys. Expansions keyed this way are
// NOT stable across runs, so downstream stages cannot resume them.
func UUIDKeys(string, int) string {
	return uuid.NewString()
}
