package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHuman(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KB"},
		{3 << 20, "3.00 MB"},
		{5 << 30, "5.00 GB"},
	}

	for _, tt := range tests {
		if got := Human(tt.in); got != tt.want {
			t.Errorf("Human(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanupPartialFiles(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "Novel.Chapters1-2.epub")
	partial := filepath.Join(dir, "Other.Chapters1-9.epub"+PartialSuffix)

	for _, p := range []string{keep, partial} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	removed := CleanupPartialFiles(dir)
	if len(removed) != 1 || removed[0] != partial {
		t.Fatalf("removed = %v, want [%s]", removed, partial)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("finished output should be kept: %v", err)
	}
	if _, err := os.Stat(partial); !os.IsNotExist(err) {
		t.Fatalf("partial output should be gone, stat err = %v", err)
	}
}
