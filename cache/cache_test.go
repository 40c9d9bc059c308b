package cache

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/chazu/brainfrick/compiler"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := openTestCache(t)

	prog, err := compiler.Compile("++[->+++<]>.")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if err := c.Put(prog); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := c.Get(prog.SourceHash)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.Len() != prog.Len() {
		t.Fatalf("cached program has %d instructions, want %d", got.Len(), prog.Len())
	}
	for i := range prog.Instructions {
		if got.Instructions[i] != prog.Instructions[i] {
			t.Errorf("instruction %d = %v, want %v", i, got.Instructions[i], prog.Instructions[i])
		}
	}
	for i := range prog.LoopMap {
		if got.LoopMap[i] != prog.LoopMap[i] {
			t.Errorf("loop map[%d] = %d, want %d", i, got.LoopMap[i], prog.LoopMap[i])
		}
	}
	if got.SourceHash != prog.SourceHash {
		t.Error("cached program has a different source hash")
	}
	if got.Stats != prog.Stats {
		t.Errorf("cached stats = %+v, want %+v", got.Stats, prog.Stats)
	}
}

func TestCacheMiss(t *testing.T) {
	c := openTestCache(t)

	var unknown [32]byte
	unknown[0] = 0xff

	_, err := c.Get(unknown)
	if !errors.Is(err, ErrMiss) {
		t.Errorf("Get on empty cache = %v, want ErrMiss", err)
	}
}

func TestCachePutReplaces(t *testing.T) {
	c := openTestCache(t)

	prog, err := compiler.Compile("+++.")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if err := c.Put(prog); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	if err := c.Put(prog); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	n, err := c.Len()
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 1 {
		t.Errorf("cache holds %d programs, want 1", n)
	}
}

func TestCacheCorruptArtifact(t *testing.T) {
	c := openTestCache(t)

	prog, err := compiler.Compile("+.")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if err := c.Put(prog); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Clobber the stored artifact behind the cache's back
	if _, err := c.db.Exec("UPDATE programs SET artifact = ?", []byte("garbage")); err != nil {
		t.Fatalf("corrupting artifact: %v", err)
	}

	_, err = c.Get(prog.SourceHash)
	if err == nil {
		t.Fatal("Get returned a program from a corrupt artifact")
	}
	if errors.Is(err, ErrMiss) {
		t.Error("corrupt artifact reported as a miss")
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".bfk", "nested", "cache.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed to create parent directories: %v", err)
	}
	c.Close()
}
