package stage

import (
	"context"
	"sync"

	"github.com/kbukum/stagekit/codec"
	"github.com/kbukum/stagekit/errors"
	"github.com/kbukum/stagekit/logger"
	"github.com/kbukum/stagekit/observability"
)

// aresult carries one completed transform from a worker to the
// collector.
type aresult[O any] struct {
	key string
	val O
	err error
}

// AMap applies fn to every pending record of coll with up to limit
// concurrent workers (the context default when limit <= 0). Keys are
// dispatched in input order and each result is persisted the moment
// its transform completes, so an interrupted run resumes without
// repeating finished work. The output collection is in input order
// regardless of completion order.
//
// On the first transform error, dispatch stops, in-flight transforms
// are allowed to finish and persist, and that first error is returned.
// On ctx cancellation the same teardown runs and a CANCELED error is
// returned instead.
func AMap[I, O any](ctx context.Context, coll *Collection[I], name string, cdc codec.Codec[O], limit int, fn Transform[I, O]) (*Collection[O], error) {
	if limit <= 0 {
		limit = coll.ctx.concurrency
	}

	r, err := openRun(coll.ctx, name, cdc)
	if err != nil {
		return nil, err
	}

	in := coll.pairs
	cached, pending, err := partition(r, in)
	if err != nil {
		r.finish(ctx, "error", len(cached), 0)
		return nil, err
	}

	ctx, span := r.span(ctx, "async", len(in), len(cached), len(pending))
	defer span.End()

	r.log.Info("stage started", logger.Fields(
		logger.FieldRecords, len(in),
		logger.FieldCached, len(cached),
		logger.FieldPending, len(pending),
		"concurrency", limit,
	))
	r.rep.Start(len(in), len(cached))

	work := make(chan Pair[I])
	out := make(chan aresult[O], limit)
	stop := make(chan struct{})
	var stopOnce sync.Once
	halt := func() { stopOnce.Do(func() { close(stop) }) }

	// Producer: dispatch pending keys in input order until done,
	// halted, or canceled. In-flight transforms are never interrupted;
	// they drain through the result channel below. Cancellation is
	// checked before every send so a cancel that lands between sends
	// never dispatches another key.
	go func() {
		defer close(work)
		for _, p := range pending {
			if ctx.Err() != nil {
				halt()
				return
			}
			select {
			case work <- p:
			case <-stop:
				return
			case <-ctx.Done():
				halt()
				return
			}
		}
	}()

	// Workers: transform and persist, reporting each outcome. A key
	// received after cancellation is dropped unstarted; once fn has
	// been invoked it always runs to completion and persists.
	var wg sync.WaitGroup
	for range limit {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range work {
				if ctx.Err() != nil {
					continue
				}
				v, err := fn(ctx, p.Key, p.Value)
				if err != nil {
					halt()
					out <- aresult[O]{key: p.Key, err: errors.Transform(r.name, p.Key, err)}
					continue
				}
				if err := r.persist(p.Key, v); err != nil {
					halt()
					out <- aresult[O]{key: p.Key, err: err}
					continue
				}
				out <- aresult[O]{key: p.Key, val: v}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	// Collector: drain every in-flight result, keeping the first error.
	computed := make(map[string]O, len(pending))
	var firstErr error
	for res := range out {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			if r.c.metrics != nil {
				r.c.metrics.RecordTransformError(ctx, r.name)
			}
			continue
		}
		computed[res.key] = res.val
		r.rep.Update(len(cached)+len(computed), len(in))
	}

	if ctx.Err() != nil {
		appErr := errors.Canceled(r.name, ctx.Err())
		observability.SetSpanError(ctx, appErr)
		r.log.Warn("stage canceled", logger.Fields(
			logger.FieldCached, len(cached),
			logger.FieldComputed, len(computed),
		))
		r.finish(ctx, "canceled", len(cached), len(computed))
		return nil, appErr
	}
	if firstErr != nil {
		observability.SetSpanError(ctx, firstErr)
		r.log.Error("stage failed", logger.Fields(
			logger.FieldCached, len(cached),
			logger.FieldComputed, len(computed),
			logger.FieldError, firstErr.Error(),
		))
		r.finish(ctx, "error", len(cached), len(computed))
		return nil, firstErr
	}

	r.log.Info("stage finished", logger.Fields(
		logger.FieldCached, len(cached),
		logger.FieldComputed, len(computed),
	))
	r.finish(ctx, "ok", len(cached), len(computed))
	return assemble(coll.ctx, in, cached, computed), nil
}
