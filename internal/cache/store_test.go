package cache

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStorePutAndGet(t *testing.T) {
	store := newTestStore(t, "v1")
	locator := Locator{Host: "salat.example.org", Path: "/latest/lockscreen.png"}

	modTime := time.Now().Add(-time.Hour).UTC()
	payload := []byte("payload")
	resp := StoredResponse{Status: 200, Header: http.Header{"Content-Type": []string{"image/png"}}}
	if _, err := store.Put(context.Background(), locator, resp, bytes.NewReader(payload), PutOptions{ModTime: modTime}); err != nil {
		t.Fatalf("put error: %v", err)
	}

	result, err := store.Get(context.Background(), locator)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	defer result.Reader.Close()

	body, err := io.ReadAll(result.Reader)
	if err != nil {
		t.Fatalf("read cached body error: %v", err)
	}
	if string(body) != string(payload) {
		t.Fatalf("cached payload mismatch: %s", string(body))
	}
	if result.Entry.SizeBytes != int64(len(payload)) {
		t.Fatalf("size mismatch: %d", result.Entry.SizeBytes)
	}
	if !result.Entry.ModTime.Equal(modTime) {
		t.Fatalf("modtime mismatch: expected %v got %v", modTime, result.Entry.ModTime)
	}
	if result.Entry.Status != 200 {
		t.Fatalf("status mismatch: %d", result.Entry.Status)
	}
	if got := result.Entry.Header.Get("Content-Type"); got != "image/png" {
		t.Fatalf("header mismatch: %s", got)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := newTestStore(t, "v1")
	_, err := store.Get(context.Background(), Locator{Host: "salat.example.org", Path: "/missing"})
	if err == nil || err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreQueryStringsGetDistinctEntries(t *testing.T) {
	store := newTestStore(t, "v1")
	ctx := context.Background()
	base := Locator{Host: "fonts.googleapis.com", Path: "/css2"}
	first := base
	first.Query = "family=Amiri"
	second := base
	second.Query = "family=Lateef"

	resp := StoredResponse{Status: 200}
	if _, err := store.Put(ctx, first, resp, bytes.NewReader([]byte("amiri")), PutOptions{}); err != nil {
		t.Fatalf("put error: %v", err)
	}
	if _, err := store.Put(ctx, second, resp, bytes.NewReader([]byte("lateef")), PutOptions{}); err != nil {
		t.Fatalf("put error: %v", err)
	}

	result, err := store.Get(ctx, first)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	body, _ := io.ReadAll(result.Reader)
	result.Reader.Close()
	if string(body) != "amiri" {
		t.Fatalf("query 变体相互覆盖: %s", string(body))
	}
}

func TestStoreRemove(t *testing.T) {
	store := newTestStore(t, "v1")
	locator := Locator{Host: "salat.example.org", Path: "/cache/remove"}
	if _, err := store.Put(context.Background(), locator, StoredResponse{Status: 200}, bytes.NewReader([]byte("data")), PutOptions{}); err != nil {
		t.Fatalf("put error: %v", err)
	}
	if err := store.Remove(context.Background(), locator); err != nil {
		t.Fatalf("remove error: %v", err)
	}
	if _, err := store.Get(context.Background(), locator); err == nil || err != ErrNotFound {
		t.Fatalf("expected not found after remove, got %v", err)
	}
}

func TestStoreBodyWithoutMetaIsInvisible(t *testing.T) {
	store := newTestStore(t, "v1")
	locator := Locator{Host: "salat.example.org", Path: "/half-written"}

	fs, ok := store.(*fileStore)
	if !ok {
		t.Fatalf("unexpected store type %T", store)
	}
	filePath, err := fs.entryPath(locator)
	if err != nil {
		t.Fatalf("path error: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}
	if err := os.WriteFile(filePath+bodySuffix, []byte("orphan"), 0o644); err != nil {
		t.Fatalf("write error: %v", err)
	}

	if _, err := store.Get(context.Background(), locator); err == nil || err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for metadata-less body, got %v", err)
	}
}

func TestStoreGenerations(t *testing.T) {
	base := t.TempDir()
	old, err := NewStore(base, "v1")
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	locator := Locator{Host: "salat.example.org", Path: "/index.html"}
	if _, err := old.Put(context.Background(), locator, StoredResponse{Status: 200}, bytes.NewReader([]byte("old")), PutOptions{}); err != nil {
		t.Fatalf("put error: %v", err)
	}

	current, err := NewStore(base, "v2")
	if err != nil {
		t.Fatalf("store error: %v", err)
	}

	generations, err := current.Generations()
	if err != nil {
		t.Fatalf("generations error: %v", err)
	}
	if len(generations) != 2 {
		t.Fatalf("expected two generations, got %v", generations)
	}

	if err := current.DropGeneration("v1"); err != nil {
		t.Fatalf("drop error: %v", err)
	}
	generations, err = current.Generations()
	if err != nil {
		t.Fatalf("generations error: %v", err)
	}
	if len(generations) != 1 || generations[0] != "v2" {
		t.Fatalf("expected only v2 to remain, got %v", generations)
	}

	// 旧代条目不可见：当前代从未写入该条目。
	if _, err := current.Get(context.Background(), locator); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound in new generation, got %v", err)
	}
}

func TestStoreRejectsBadGenerationName(t *testing.T) {
	store := newTestStore(t, "v1")
	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		if err := store.DropGeneration(name); err == nil {
			t.Fatalf("expected error for generation name %q", name)
		}
	}
}

// newTestStore returns a Store backed by a temporary directory.
func newTestStore(t *testing.T, version string) Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), version)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}
