package stage

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/stagekit/codec"
	"github.com/kbukum/stagekit/errors"
	"github.com/kbukum/stagekit/logger"
	"github.com/kbukum/stagekit/observability"
	"github.com/kbukum/stagekit/progress"
	"github.com/kbukum/stagekit/store"
	"github.com/kbukum/stagekit/util"
)

// Transform computes the output record for a single key. It must not
// depend on being called in any particular order relative to other
// keys. Transforms passed to AMap must be safe for concurrent use.
type Transform[I, O any] func(ctx context.Context, key string, value I) (O, error)

// InitFunc produces the seed records of a pipeline.
type InitFunc[T any] func(ctx context.Context) ([]Pair[T], error)

// run bundles the per-stage state shared by Map and AMap.
type run[O any] struct {
	c     *Context
	name  string
	cdc   codec.Codec[O]
	st    *store.Store
	log   *logger.Logger
	rep   progress.Reporter
	start time.Time
}

func openRun[O any](c *Context, name string, cdc codec.Codec[O]) (*run[O], error) {
	if !util.ValidStageName(name) {
		return nil, errors.InvalidStageName(name)
	}
	st, err := store.Open(c.dir, name, c.log)
	if err != nil {
		return nil, err
	}
	return &run[O]{
		c:     c,
		name:  name,
		cdc:   cdc,
		st:    st,
		log:   c.log.WithStage(name),
		rep:   c.reporter(name),
		start: time.Now(),
	}, nil
}

// partition splits the input into records already persisted for this
// stage (decoded) and records still pending, both in input order.
func partition[I, O any](r *run[O], in []Pair[I]) (cached map[string]O, pending []Pair[I], err error) {
	cached = make(map[string]O)
	for _, p := range in {
		raw, ok := r.st.Get(p.Key)
		if !ok {
			pending = append(pending, p)
			continue
		}
		v, err := r.cdc.Decode(raw)
		if err != nil {
			return nil, nil, errors.Serialization(r.name, p.Key, err)
		}
		cached[p.Key] = v
	}
	return cached, pending, nil
}

// persist encodes and appends one computed record.
func (r *run[O]) persist(key string, value O) error {
	raw, err := r.cdc.Encode(value)
	if err != nil {
		return errors.Serialization(r.name, key, err)
	}
	return r.st.Append(key, raw)
}

// assemble produces the output collection in input order from cached
// and freshly computed values.
func assemble[I, O any](c *Context, in []Pair[I], cached, computed map[string]O) *Collection[O] {
	pairs := make([]Pair[O], len(in))
	for i, p := range in {
		v, ok := cached[p.Key]
		if !ok {
			v = computed[p.Key]
		}
		pairs[i] = Pair[O]{Key: p.Key, Value: v}
	}
	return derive(c, pairs)
}

// finish records observability signals and releases the store.
func (r *run[O]) finish(ctx context.Context, status string, cached, computed int) {
	if r.c.metrics != nil {
		r.c.metrics.RecordRun(ctx, r.name, status, cached, computed, time.Since(r.start))
	}
	r.rep.Done()
	if err := r.st.Close(); err != nil {
		r.log.Warn("failed to close stage store", logger.ErrorFields("close", err))
	}
}

// span opens a stage span when tracing is enabled; its closer is a
// no-op otherwise.
func (r *run[O]) span(ctx context.Context, scheduler string, records, cached, pending int) (context.Context, trace.Span) {
	if !r.c.tracing {
		// Noop span; End() must not touch any span the caller owns.
		return ctx, trace.SpanFromContext(context.Background())
	}
	return observability.StartSpan(ctx, observability.SpanStageRun,
		trace.WithAttributes(
			attribute.String(observability.AttrStageName, r.name),
			attribute.Int(observability.AttrStageRecords, records),
			attribute.Int(observability.AttrStageCached, cached),
			attribute.Int(observability.AttrStagePending, pending),
			attribute.String(observability.AttrStageScheduler, scheduler),
		))
}

// Map applies fn to every record of coll under the stage name,
// persisting each output as soon as it is computed and replaying
// persisted outputs from earlier runs instead of recomputing them.
// Records are processed sequentially in input order; the first
// transform error aborts the stage, keeping everything persisted so
// far.
func Map[I, O any](ctx context.Context, coll *Collection[I], name string, cdc codec.Codec[O], fn Transform[I, O]) (*Collection[O], error) {
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

	ctx, span := r.span(ctx, "sync", len(in), len(cached), len(pending))
	defer span.End()

	r.log.Info("stage started", logger.Fields(
		logger.FieldRecords, len(in),
		logger.FieldCached, len(cached),
		logger.FieldPending, len(pending),
	))
	r.rep.Start(len(in), len(cached))

	computed := make(map[string]O, len(pending))
	for i, p := range pending {
		if err := ctx.Err(); err != nil {
			appErr := errors.Canceled(r.name, err)
			observability.SetSpanError(ctx, appErr)
			r.finish(ctx, "canceled", len(cached), i)
			return nil, appErr
		}

		out, err := fn(ctx, p.Key, p.Value)
		if err != nil {
			appErr := errors.Transform(r.name, p.Key, err)
			if r.c.metrics != nil {
				r.c.metrics.RecordTransformError(ctx, r.name)
			}
			observability.SetSpanError(ctx, appErr)
			r.finish(ctx, "error", len(cached), i)
			return nil, appErr
		}
		if err := r.persist(p.Key, out); err != nil {
			observability.SetSpanError(ctx, err)
			r.finish(ctx, "error", len(cached), i)
			return nil, err
		}
		computed[p.Key] = out
		r.rep.Update(len(cached)+i+1, len(in))
	}

	r.log.Info("stage finished", logger.Fields(
		logger.FieldCached, len(cached),
		logger.FieldComputed, len(computed),
	))
	r.finish(ctx, "ok", len(cached), len(computed))
	return assemble(coll.ctx, in, cached, computed), nil
}

// Init produces the seed collection of a pipeline. On the first run fn
// is invoked and its records are persisted under the stage name; on
// later runs the persisted records are replayed and fn is not called.
func Init[T any](ctx context.Context, c *Context, name string, cdc codec.Codec[T], fn InitFunc[T]) (*Collection[T], error) {
	if !util.ValidStageName(name) {
		return nil, errors.InvalidStageName(name)
	}

	if store.Exists(c.dir, name) {
		return Load(ctx, c, name, cdc)
	}

	pairs, err := fn(ctx)
	if err != nil {
		return nil, errors.Transform(name, "", err)
	}
	coll, err := New(c, pairs)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(c.dir, name, c.log)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	for _, p := range pairs {
		raw, err := cdc.Encode(p.Value)
		if err != nil {
			return nil, errors.Serialization(name, p.Key, err)
		}
		if err := st.Append(p.Key, raw); err != nil {
			return nil, err
		}
	}
	c.log.WithStage(name).Info("stage seeded", logger.Fields(logger.FieldRecords, len(pairs)))
	return coll, nil
}

// Load replays a previously persisted stage into a collection, in the
// order records were first written. Returns STAGE_NOT_FOUND if the
// stage has no artifact file.
func Load[T any](_ context.Context, c *Context, name string, cdc codec.Codec[T]) (*Collection[T], error) {
	if !util.ValidStageName(name) {
		return nil, errors.InvalidStageName(name)
	}
	if !store.Exists(c.dir, name) {
		return nil, errors.StageNotFound(name)
	}

	st, err := store.Open(c.dir, name, c.log)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	keys := st.Keys()
	pairs := make([]Pair[T], 0, len(keys))
	for _, k := range keys {
		raw, _ := st.Get(k)
		v, err := cdc.Decode(raw)
		if err != nil {
			return nil, errors.Serialization(name, k, err)
		}
		pairs = append(pairs, Pair[T]{Key: k, Value: v})
	}
	c.log.WithStage(name).Debug("stage loaded", logger.Fields(logger.FieldRecords, len(pairs)))
	return derive(c, pairs), nil
}
