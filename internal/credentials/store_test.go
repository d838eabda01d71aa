package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// exerciseStore runs the behaviour every Store implementation must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, TokenKey); err != nil || ok {
		t.Fatalf("Get on empty store = ok:%v err:%v", ok, err)
	}

	if err := s.Set(ctx, TokenKey, "tok-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, UserKey, `{"id":"u1"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, TokenKey, "tok-2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	v, ok, err := s.Get(ctx, TokenKey)
	if err != nil || !ok || v != "tok-2" {
		t.Fatalf("Get = %q ok:%v err:%v", v, ok, err)
	}

	if err := s.Delete(ctx, TokenKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, TokenKey); err != nil {
		t.Fatalf("Delete should be idempotent: %v", err)
	}
	if _, ok, _ := s.Get(ctx, TokenKey); ok {
		t.Fatal("token still present after Delete")
	}
	if v, ok, _ := s.Get(ctx, UserKey); !ok || v != `{"id":"u1"}` {
		t.Fatalf("user key disturbed: %q ok:%v", v, ok)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	exerciseStore(t, NewFileStore(path))

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("file mode = %o, want 600", perm)
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")

	if err := NewFileStore(path).Set(ctx, TokenKey, "durable"); err != nil {
		t.Fatal(err)
	}

	v, ok, err := NewFileStore(path).Get(ctx, TokenKey)
	if err != nil || !ok || v != "durable" {
		t.Fatalf("Get = %q ok:%v err:%v", v, ok, err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := NewFileStore(path).Get(context.Background(), TokenKey); err == nil {
		t.Fatal("expected decode error")
	}
}
