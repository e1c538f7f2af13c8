package cache

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/chazu/clox/compiler"
	"github.com/chazu/clox/lox"
	"github.com/chazu/clox/vm"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func compileQuiet(t *testing.T, source string) *vm.Chunk {
	t.Helper()
	chunk, err := compiler.New(compiler.WithDisassembly(nil)).Compile(source)
	if err != nil {
		t.Fatalf("Compile(%q): %v", source, err)
	}
	return chunk
}

func TestKey(t *testing.T) {
	if Key("1 + 2") != Key("1 + 2") {
		t.Error("Key is not deterministic")
	}
	if Key("1 + 2") == Key("1 +  2") {
		t.Error("different sources share a key")
	}
	if len(Key("")) != 64 {
		t.Errorf("Key length = %d, want 64", len(Key("")))
	}
}

func TestPutGet(t *testing.T) {
	c := openTemp(t)

	if _, ok, err := c.Get("1 + 2"); err != nil || ok {
		t.Fatalf("Get on empty cache = %v, %v", ok, err)
	}

	chunk := compileQuiet(t, "1 + 2")
	if err := c.Put("1 + 2", chunk); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get("1 + 2")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v; want hit", ok, err)
	}
	if got.Disassemble("x") != chunk.Disassemble("x") {
		t.Errorf("cached chunk differs:\n%s\nwant\n%s", got.Disassemble("x"), chunk.Disassemble("x"))
	}

	// Replace
	if err := c.Put("1 + 2", chunk); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if n, err := c.Len(); err != nil || n != 1 {
		t.Errorf("Len() = %d, %v; want 1", n, err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, _ := c.Len(); n != 0 {
		t.Errorf("Len() after Clear = %d", n)
	}
}

func TestGetDropsUndecodableRows(t *testing.T) {
	c := openTemp(t)

	if _, err := c.db.Exec("INSERT INTO chunks (hash, data, created_at) VALUES (?, ?, 0)", Key("nil"), []byte{0xFF}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, ok, err := c.Get("nil"); err != nil || ok {
		t.Errorf("Get = %v, %v; want miss", ok, err)
	}
	if n, _ := c.Len(); n != 0 {
		t.Errorf("undecodable row kept: Len() = %d", n)
	}
}

func TestReopenKeepsChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Put("true", compileQuiet(t, "true")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	c.Close()

	c, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()
	if _, ok, err := c.Get("true"); err != nil || !ok {
		t.Errorf("Get after reopen = %v, %v; want hit", ok, err)
	}
}

func TestCacheServesInterpreter(t *testing.T) {
	c := openTemp(t)
	var out bytes.Buffer
	in := lox.New(lox.WithOutput(&out), lox.WithDisassembly(nil), lox.WithCache(c))

	for i := 0; i < 2; i++ {
		if _, err := in.Run("2 * 21"); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if out.String() != "42\n42\n" {
		t.Errorf("printed %q", out.String())
	}
	if n, _ := c.Len(); n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}
}
