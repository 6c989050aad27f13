package stage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/stagekit/codec"
	"github.com/kbukum/stagekit/errors"
	"github.com/kbukum/stagekit/storage"
	"github.com/kbukum/stagekit/storage/local"
)

func newTestStorage(t *testing.T) storage.Storage {
	t.Helper()
	st, err := local.NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}
	return st
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	remote := newTestStorage(t)
	ctx := context.Background()

	src := newTestContext(t)
	coll, _ := New(src, []Pair[string]{
		{Key: "a", Value: "alpha"},
		{Key: "b", Value: "beta"},
	})
	if err := Upload(ctx, coll, remote, "runs/r1/words.log", codec.Text()); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	// A different pipeline context downloads and caches the artifact.
	dst := newTestContext(t)
	got, err := DownloadCached(ctx, dst, "words", remote, "runs/r1/words.log", codec.Text())
	if err != nil {
		t.Fatalf("DownloadCached() error = %v", err)
	}
	if gotKeys := strings.Join(got.Keys(), ""); gotKeys != "ab" {
		t.Errorf("downloaded keys = %q, want ab", gotKeys)
	}
	if v, _ := got.Value("b"); v != "beta" {
		t.Errorf("downloaded value for b = %q, want beta", v)
	}

	// Second call must replay the local cache, not the remote copy.
	if err := remote.Delete(ctx, "runs/r1/words.log"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	again, err := DownloadCached(ctx, dst, "words", remote, "runs/r1/words.log", codec.Text())
	if err != nil {
		t.Fatalf("cached DownloadCached() error = %v", err)
	}
	if again.Len() != 2 {
		t.Errorf("cached Len = %d, want 2", again.Len())
	}
}

func TestDownloadCachedMissingRemote(t *testing.T) {
	remote := newTestStorage(t)
	dst := newTestContext(t)

	_, err := DownloadCached(context.Background(), dst, "absent", remote, "nope.log", codec.Text())
	if errors.CodeOf(err) != errors.ErrCodeRemoteTransfer {
		t.Fatalf("DownloadCached() error = %v, want REMOTE_TRANSFER_FAILED", err)
	}
}

func TestUploadStage(t *testing.T) {
	remote := newTestStorage(t)
	ctx := context.Background()
	c := newTestContext(t)

	coll := seedColl(t, c, "a", "b")
	if _, err := Map(ctx, coll, "upper", codec.Text(), func(_ context.Context, _, v string) (string, error) {
		return strings.ToUpper(v), nil
	}); err != nil {
		t.Fatalf("Map() error = %v", err)
	}

	if err := UploadStage(ctx, c, "upper", remote, "backups/upper.log"); err != nil {
		t.Fatalf("UploadStage() error = %v", err)
	}

	rc, err := remote.Download(ctx, "backups/upper.log")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("uploaded artifact is empty")
	}

	// The uploaded artifact replays in a fresh pipeline.
	other := newTestContext(t)
	got, err := DownloadCached(ctx, other, "upper", remote, "backups/upper.log", codec.Text())
	if err != nil {
		t.Fatalf("DownloadCached() error = %v", err)
	}
	if v, _ := got.Value("a"); v != "IN-A" {
		t.Errorf("replayed value for a = %q, want IN-A", v)
	}
}

func TestUploadStageMissing(t *testing.T) {
	remote := newTestStorage(t)
	c := newTestContext(t)

	err := UploadStage(context.Background(), c, "ghost", remote, "x.log")
	if errors.CodeOf(err) != errors.ErrCodeStageNotFound {
		t.Fatalf("UploadStage() error = %v, want STAGE_NOT_FOUND", err)
	}
}

func TestUploadSerializationFailure(t *testing.T) {
	remote := newTestStorage(t)
	c := newTestContext(t)

	coll, _ := New(c, []Pair[chan int]{{Key: "a", Value: make(chan int)}})
	err := Upload(context.Background(), coll, remote, "bad.log", codec.JSON[chan int]())
	if errors.CodeOf(err) != errors.ErrCodeSerialization {
		t.Fatalf("Upload() error = %v, want SERIALIZATION_FAILED", err)
	}
}
