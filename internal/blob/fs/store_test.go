package fs_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"opscore/internal/blob/core"
	"opscore/internal/blob/fs"
)

func newStore(t *testing.T) *fs.Store {
	t.Helper()
	store, err := fs.New(filepath.Join(t.TempDir(), "artifacts"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	put, err := store.Put(ctx, "exports/run-1/customers.csv", strings.NewReader("id,name\n1,Ada\n"), core.PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"collection": "customers"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if put.Size != int64(len("id,name\n1,Ada\n")) {
		t.Fatalf("unexpected size %d", put.Size)
	}
	if put.ETag == "" {
		t.Fatalf("expected checksum etag")
	}

	info, reader, err := store.Get(ctx, "exports/run-1/customers.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = reader.Close() }()
	body, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "id,name\n1,Ada\n" {
		t.Fatalf("unexpected body %q", body)
	}
	if info.ContentType != "text/csv" {
		t.Fatalf("unexpected content type %q", info.ContentType)
	}
	if info.Metadata["collection"] != "customers" {
		t.Fatalf("metadata lost: %v", info.Metadata)
	}
	if info.ETag != put.ETag {
		t.Fatalf("etag changed between put and get")
	}
}

func TestPutReplacesExistingContent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := store.Put(ctx, "report.json", strings.NewReader(`{"rows":1}`), core.PutOptions{})
	if err != nil {
		t.Fatalf("first put: %v", err)
	}
	second, err := store.Put(ctx, "report.json", strings.NewReader(`{"rows":2}`), core.PutOptions{})
	if err != nil {
		t.Fatalf("second put: %v", err)
	}
	if first.ETag == second.ETag {
		t.Fatalf("expected new checksum after replace")
	}

	_, reader, err := store.Get(ctx, "report.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = reader.Close() }()
	body, _ := io.ReadAll(reader)
	if string(body) != `{"rows":2}` {
		t.Fatalf("expected replaced content, got %q", body)
	}
}

func TestGetMissing(t *testing.T) {
	store := newStore(t)
	_, _, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	if _, err := store.Put(ctx, "tmp.txt", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}

	existed, err := store.Delete(ctx, "tmp.txt")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "tmp.txt")
	if err != nil || existed {
		t.Fatalf("second delete: existed=%v err=%v", existed, err)
	}
	if _, _, err := store.Get(ctx, "tmp.txt"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestListFiltersByPrefix(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	for _, key := range []string{"a/one.csv", "a/two.csv", "b/three.csv"} {
		if _, err := store.Put(ctx, key, strings.NewReader(key), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "a/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected two artifacts under a/, got %d", len(infos))
	}
	if infos[0].Key != "a/one.csv" || infos[1].Key != "a/two.csv" {
		t.Fatalf("expected key-ordered listing, got %v", infos)
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected three artifacts, got %d", len(all))
	}
}

func TestRejectsUnsafeKeys(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	for _, key := range []string{"", "  ", "/abs/path", "../escape"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("expected rejection for key %q", key)
		}
	}
}
