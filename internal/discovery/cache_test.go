package discovery

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "filters")
	if err := os.MkdirAll(watched, 0o755); err != nil {
		t.Fatal(err)
	}
	cachePath := filepath.Join(dir, "cache.bin")

	if err := Save(cachePath, []string{watched}, []string{"git/status"}); err != nil {
		t.Fatal(err)
	}

	c := Load(cachePath)
	if c == nil {
		t.Fatal("expected cache to load")
	}
	if len(c.Names) != 1 || c.Names[0] != "git/status" {
		t.Fatalf("got %v", c.Names)
	}
	if !c.Fresh([]string{watched}) {
		t.Fatal("expected freshly-saved cache to be fresh")
	}
}

func TestLoadMissingFileIsCacheMiss(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	if c != nil {
		t.Fatal("expected nil on missing file")
	}
}

func TestLoadCorruptFileIsCacheMiss(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.bin")
	if err := os.WriteFile(path, []byte("not a gob stream"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := Load(path)
	if c != nil {
		t.Fatal("expected corrupt file to be treated as a cache miss")
	}
}

func TestFreshDetectsMtimeChange(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "filters")
	if err := os.MkdirAll(watched, 0o755); err != nil {
		t.Fatal(err)
	}
	cachePath := filepath.Join(dir, "cache.bin")
	if err := Save(cachePath, []string{watched}, nil); err != nil {
		t.Fatal(err)
	}
	c := Load(cachePath)

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(watched, future, future); err != nil {
		t.Fatal(err)
	}
	if c.Fresh([]string{watched}) {
		t.Fatal("expected staleness after mtime change")
	}
}
