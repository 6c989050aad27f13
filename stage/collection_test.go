package stage

import (
	"fmt"
	"testing"

	"github.com/kbukum/stagekit/errors"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	c, err := NewContext(t.TempDir())
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	return c
}

func TestNewRejectsDuplicateKeys(t *testing.T) {
	c := newTestContext(t)
	_, err := New(c, []Pair[int]{{Key: "a", Value: 1}, {Key: "a", Value: 2}})
	if errors.CodeOf(err) != errors.ErrCodeDuplicateKey {
		t.Fatalf("New() error = %v, want DUPLICATE_KEY", err)
	}
}

func TestNewRejectsEmptyKey(t *testing.T) {
	c := newTestContext(t)
	_, err := New(c, []Pair[int]{{Key: "a", Value: 1}, {Key: "", Value: 2}})
	if errors.CodeOf(err) != errors.ErrCodeInvalidKey {
		t.Fatalf("New() error = %v, want INVALID_KEY", err)
	}
}

func TestCollectionAccessors(t *testing.T) {
	c := newTestContext(t)
	coll, err := New(c, []Pair[int]{{Key: "a", Value: 1}, {Key: "b", Value: 2}, {Key: "c", Value: 3}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if coll.Len() != 3 {
		t.Errorf("Len() = %d, want 3", coll.Len())
	}
	wantKeys := []string{"a", "b", "c"}
	for i, k := range coll.Keys() {
		if k != wantKeys[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, k, wantKeys[i])
		}
	}
	wantVals := []int{1, 2, 3}
	for i, v := range coll.Get() {
		if v != wantVals[i] {
			t.Errorf("Get()[%d] = %d, want %d", i, v, wantVals[i])
		}
	}
	if v, ok := coll.Value("b"); !ok || v != 2 {
		t.Errorf("Value(b) = %d, %v; want 2, true", v, ok)
	}
	if _, ok := coll.Value("zzz"); ok {
		t.Error("Value(zzz) should not exist")
	}
}

func TestFromValues(t *testing.T) {
	c := newTestContext(t)
	coll, err := FromValues(c, []string{"x", "y"}, func(i int, v string) string {
		return fmt.Sprintf("item-%d", i)
	})
	if err != nil {
		t.Fatalf("FromValues() error = %v", err)
	}
	if got := coll.Keys()[1]; got != "item-1" {
		t.Errorf("Keys()[1] = %q, want item-1", got)
	}
}

func TestFromMap(t *testing.T) {
	c := newTestContext(t)
	m := map[string]int{"a": 1, "b": 2}

	coll, err := FromMap(c, []string{"b", "a"}, m)
	if err != nil {
		t.Fatalf("FromMap() error = %v", err)
	}
	if got := coll.Keys()[0]; got != "b" {
		t.Errorf("Keys()[0] = %q, want b", got)
	}

	_, err = FromMap(c, []string{"a", "missing"}, m)
	if errors.CodeOf(err) != errors.ErrCodeKeyNotFound {
		t.Fatalf("FromMap() with missing key error = %v, want KEY_NOT_FOUND", err)
	}
}

func TestPairsReturnsCopy(t *testing.T) {
	c := newTestContext(t)
	coll, _ := New(c, []Pair[int]{{Key: "a", Value: 1}})
	pairs := coll.Pairs()
	pairs[0].Value = 99
	if v, _ := coll.Value("a"); v != 1 {
		t.Errorf("mutating Pairs() result changed the collection: got %d", v)
	}
}
