package stage

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/stagekit/codec"
	"github.com/kbukum/stagekit/errors"
	"github.com/kbukum/stagekit/store"
)

func TestAMapPreservesInputOrder(t *testing.T) {
	c := newTestContext(t)
	ctx := context.Background()

	keys := make([]string, 20)
	for i := range keys {
		keys[i] = fmt.Sprintf("k%02d", i)
	}
	coll := seedColl(t, c, keys...)

	out, err := AMap(ctx, coll, "shuffle", codec.Text(), 4, func(_ context.Context, _ string, v string) (string, error) {
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
		return strings.ToUpper(v), nil
	})
	if err != nil {
		t.Fatalf("AMap() error = %v", err)
	}

	got := out.Keys()
	for i, k := range keys {
		if got[i] != k {
			t.Fatalf("output key[%d] = %q, want %q (order not preserved)", i, got[i], k)
		}
	}
	if v, _ := out.Value("k07"); v != "IN-K07" {
		t.Errorf("value for k07 = %q, want IN-K07", v)
	}
}

func TestAMapRespectsConcurrencyBound(t *testing.T) {
	c := newTestContext(t)
	ctx := context.Background()
	coll := seedColl(t, c, "a", "b", "c", "d", "e", "f", "g", "h")

	var inFlight, peak atomic.Int32
	_, err := AMap(ctx, coll, "bounded", codec.Text(), 2, func(_ context.Context, _ string, v string) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return v, nil
	})
	if err != nil {
		t.Fatalf("AMap() error = %v", err)
	}
	if peak.Load() > 2 {
		t.Errorf("observed %d concurrent transforms, want <= 2", peak.Load())
	}
}

func TestAMapInvokesEachKeyOnce(t *testing.T) {
	c := newTestContext(t)
	ctx := context.Background()
	coll := seedColl(t, c, "a", "b", "c", "d", "e")

	var mu sync.Mutex
	counts := make(map[string]int)
	_, err := AMap(ctx, coll, "once", codec.Text(), 3, func(_ context.Context, k string, v string) (string, error) {
		mu.Lock()
		counts[k]++
		mu.Unlock()
		return v, nil
	})
	if err != nil {
		t.Fatalf("AMap() error = %v", err)
	}
	for k, n := range counts {
		if n != 1 {
			t.Errorf("key %q transformed %d times, want 1", k, n)
		}
	}
	if len(counts) != 5 {
		t.Errorf("transformed %d keys, want 5", len(counts))
	}
}

func TestAMapFailurePersistsCompletedWork(t *testing.T) {
	c := newTestContext(t)
	ctx := context.Background()
	coll := seedColl(t, c, "k1", "k2", "k3", "k4", "k5")

	_, err := AMap(ctx, coll, "flaky", codec.Text(), 2, func(_ context.Context, k string, v string) (string, error) {
		if k == "k3" {
			return "", fmt.Errorf("transient failure")
		}
		return strings.ToUpper(v), nil
	})
	if errors.CodeOf(err) != errors.ErrCodeTransform {
		t.Fatalf("AMap() error = %v, want TRANSFORM_FAILED", err)
	}

	// The failed key must not be persisted; whatever completed before
	// teardown must be.
	st, oerr := store.Open(c.Dir(), "flaky", c.Logger())
	if oerr != nil {
		t.Fatalf("Open() error = %v", oerr)
	}
	if st.Contains("k3") {
		t.Error("failed key k3 was persisted")
	}
	persisted := st.Len()
	st.Close()

	// Re-running with a fixed transform computes only what is missing.
	var calls atomic.Int32
	out, err := AMap(ctx, coll, "flaky", codec.Text(), 2, func(_ context.Context, _ string, v string) (string, error) {
		calls.Add(1)
		return strings.ToUpper(v), nil
	})
	if err != nil {
		t.Fatalf("resumed AMap() error = %v", err)
	}
	if int(calls.Load()) != 5-persisted {
		t.Errorf("resumed run invoked transform %d times, want %d", calls.Load(), 5-persisted)
	}
	if got := strings.Join(out.Keys(), ","); got != "k1,k2,k3,k4,k5" {
		t.Errorf("resumed output keys = %q", got)
	}
	if v, _ := out.Value("k3"); v != "IN-K3" {
		t.Errorf("value for k3 = %q, want IN-K3", v)
	}
}

func TestAMapCancellation(t *testing.T) {
	c := newTestContext(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coll := seedColl(t, c, "a", "b", "c", "d", "e")

	var mu sync.Mutex
	var invoked []string
	_, err := AMap(ctx, coll, "canceled", codec.Text(), 1, func(_ context.Context, k string, v string) (string, error) {
		mu.Lock()
		invoked = append(invoked, k)
		mu.Unlock()
		if k == "c" {
			cancel()
		}
		return strings.ToUpper(v), nil
	})
	if !errors.IsCanceled(err) {
		t.Fatalf("AMap() error = %v, want CANCELED", err)
	}

	// No transform starts after the cancellation: with one worker,
	// exactly a, b and c ran, and all three finished and persisted.
	if got := strings.Join(invoked, ""); got != "abc" {
		t.Errorf("invoked keys after cancel = %q, want abc", got)
	}
	st, oerr := store.Open(c.Dir(), "canceled", c.Logger())
	if oerr != nil {
		t.Fatalf("Open() error = %v", oerr)
	}
	if st.Len() != 3 {
		t.Errorf("persisted %d records, want 3", st.Len())
	}
	for _, k := range []string{"a", "b", "c"} {
		if !st.Contains(k) {
			t.Errorf("key %q not persisted before cancellation", k)
		}
	}
	st.Close()

	// A fresh run completes the remainder.
	out, err := AMap(context.Background(), coll, "canceled", codec.Text(), 1, func(_ context.Context, _ string, v string) (string, error) {
		return strings.ToUpper(v), nil
	})
	if err != nil {
		t.Fatalf("resumed AMap() error = %v", err)
	}
	if out.Len() != 5 {
		t.Errorf("resumed Len = %d, want 5", out.Len())
	}
}

func TestAMapReplaysCachedRecords(t *testing.T) {
	c := newTestContext(t)
	ctx := context.Background()
	coll := seedColl(t, c, "a", "b", "c")

	if _, err := AMap(ctx, coll, "cached", codec.Text(), 2, func(_ context.Context, _ string, v string) (string, error) {
		return strings.ToUpper(v), nil
	}); err != nil {
		t.Fatalf("first AMap() error = %v", err)
	}

	out, err := AMap(ctx, coll, "cached", codec.Text(), 2, func(_ context.Context, k string, _ string) (string, error) {
		t.Errorf("transform re-invoked for cached key %q", k)
		return "", fmt.Errorf("should not run")
	})
	if err != nil {
		t.Fatalf("second AMap() error = %v", err)
	}
	if v, _ := out.Value("a"); v != "IN-A" {
		t.Errorf("replayed value for a = %q, want IN-A", v)
	}
}

func TestAMapDefaultLimit(t *testing.T) {
	c := newTestContext(t)
	coll := seedColl(t, c, "a", "b")

	out, err := AMap(context.Background(), coll, "deflimit", codec.Text(), 0, func(_ context.Context, _ string, v string) (string, error) {
		return v, nil
	})
	if err != nil {
		t.Fatalf("AMap() error = %v", err)
	}
	if out.Len() != 2 {
		t.Errorf("Len = %d, want 2", out.Len())
	}
}

func TestMixedSyncAsyncPipeline(t *testing.T) {
	c := newTestContext(t)
	ctx := context.Background()

	seed, err := Init(ctx, c, "nums", codec.JSON[int](), func(context.Context) ([]Pair[int], error) {
		return []Pair[int]{{Key: "a", Value: 1}, {Key: "b", Value: 2}, {Key: "c", Value: 3}}, nil
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	doubled, err := AMap(ctx, seed, "doubled", codec.JSON[int](), 2, func(_ context.Context, _ string, n int) (int, error) {
		return n * 2, nil
	})
	if err != nil {
		t.Fatalf("AMap() error = %v", err)
	}

	labeled, err := Map(ctx, doubled, "labeled", codec.Text(), func(_ context.Context, k string, n int) (string, error) {
		return fmt.Sprintf("%s=%d", k, n), nil
	})
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}

	if v, _ := labeled.Value("c"); v != "c=6" {
		t.Errorf("value for c = %q, want c=6", v)
	}
	if got := strings.Join(labeled.Keys(), ""); got != "abc" {
		t.Errorf("pipeline keys = %q, want abc", got)
	}
}
