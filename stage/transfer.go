package stage

import (
	"bytes"
	"context"
	"os"

	"github.com/kbukum/stagekit/codec"
	"github.com/kbukum/stagekit/errors"
	"github.com/kbukum/stagekit/logger"
	"github.com/kbukum/stagekit/storage"
	"github.com/kbukum/stagekit/store"
	"github.com/kbukum/stagekit/util"
)

// Upload writes coll to remote storage at path, in the same framed
// record format the local cache uses, so DownloadCached can replay it.
func Upload[T any](ctx context.Context, coll *Collection[T], st storage.Storage, path string, cdc codec.Codec[T]) error {
	records := make([]store.Record, len(coll.pairs))
	for i, p := range coll.pairs {
		raw, err := cdc.Encode(p.Value)
		if err != nil {
			return errors.Serialization("", p.Key, err)
		}
		records[i] = store.Record{Key: p.Key, Value: raw}
	}

	var buf bytes.Buffer
	if err := store.WriteRecords(&buf, records); err != nil {
		return errors.RemoteTransfer("upload", path, err)
	}
	if err := st.Upload(ctx, path, &buf); err != nil {
		return errors.RemoteTransfer("upload", path, err)
	}
	coll.ctx.log.Info("uploaded records", logger.Fields(
		logger.FieldPath, path,
		logger.FieldRecords, len(records),
	))
	return nil
}

// UploadStage uploads a stage's artifact file as-is, without decoding it.
func UploadStage(ctx context.Context, c *Context, name string, st storage.Storage, path string) error {
	if !util.ValidStageName(name) {
		return errors.InvalidStageName(name)
	}
	if !store.Exists(c.dir, name) {
		return errors.StageNotFound(name)
	}

	f, err := os.Open(store.Path(c.dir, name))
	if err != nil {
		return errors.StoreIO(name, "open", err)
	}
	defer f.Close()

	if err := st.Upload(ctx, path, f); err != nil {
		return errors.RemoteTransfer("upload", path, err)
	}
	c.log.WithStage(name).Info("uploaded stage artifact", logger.Fields(logger.FieldPath, path))
	return nil
}

// DownloadCached materializes a collection from remote storage unless
// the stage is already cached locally, in which case the local
// artifact is replayed and nothing is fetched. A fetched artifact is
// persisted under the stage name so later runs hit the local cache.
func DownloadCached[T any](ctx context.Context, c *Context, name string, st storage.Storage, path string, cdc codec.Codec[T]) (*Collection[T], error) {
	if !util.ValidStageName(name) {
		return nil, errors.InvalidStageName(name)
	}

	if store.Exists(c.dir, name) {
		return Load(ctx, c, name, cdc)
	}

	rc, err := st.Download(ctx, path)
	if err != nil {
		return nil, errors.RemoteTransfer("download", path, err)
	}
	defer rc.Close()

	records, err := store.ReadRecords(rc)
	if err != nil {
		return nil, errors.RemoteTransfer("download", path, err)
	}

	local, err := store.Open(c.dir, name, c.log)
	if err != nil {
		return nil, err
	}
	defer local.Close()

	pairs := make([]Pair[T], 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if seen[rec.Key] {
			return nil, errors.DuplicateKey(rec.Key)
		}
		seen[rec.Key] = true

		v, err := cdc.Decode(rec.Value)
		if err != nil {
			return nil, errors.Serialization(name, rec.Key, err)
		}
		if err := local.Append(rec.Key, rec.Value); err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair[T]{Key: rec.Key, Value: v})
	}

	c.log.WithStage(name).Info("downloaded stage artifact", logger.Fields(
		logger.FieldPath, path,
		logger.FieldRecords, len(pairs),
	))
	return derive(c, pairs), nil
}
