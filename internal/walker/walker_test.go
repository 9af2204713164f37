package walker

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(f), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func relPaths(files []FileInfo) []string {
	var out []string
	for _, f := range files {
		out = append(out, filepath.ToSlash(f.RelPath))
	}
	sort.Strings(out)
	return out
}

func TestNewWalkerValidatesRoot(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "file.txt")

	if _, err := NewWalker(filepath.Join(dir, "missing"), nil); err == nil {
		t.Error("NewWalker() on missing root should fail")
	}

	_, err := NewWalker(filepath.Join(dir, "file.txt"), nil)
	if !errors.Is(err, ErrNotDirectory) {
		t.Errorf("NewWalker() on file error = %v, want ErrNotDirectory", err)
	}

	if _, err := NewWalker(dir, []string{"[unclosed"}); err == nil {
		t.Error("NewWalker() with invalid pattern should fail")
	}
}

func TestWalk(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		excludes []string
		want     []string
	}{
		{
			name:  "nested tree",
			files: []string{"doc.md", "img/a.png", "img/deep/b.png", "z/c.png"},
			want:  []string{"doc.md", "img/a.png", "img/deep/b.png", "z/c.png"},
		},
		{
			name:     "file pattern exclude",
			files:    []string{"doc.md", "img/a.png", "img/.DS_Store"},
			excludes: []string{"**/.DS_Store"},
			want:     []string{"doc.md", "img/a.png"},
		},
		{
			name:     "directory pattern exclude",
			files:    []string{"doc.md", "img/a.png", "red_files/img/old.png"},
			excludes: []string{"red_files/"},
			want:     []string{"doc.md", "img/a.png"},
		},
		{
			name:  "empty tree",
			files: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeTree(t, dir, tt.files...)

			w, err := NewWalker(dir, tt.excludes)
			if err != nil {
				t.Fatalf("NewWalker() error = %v", err)
			}
			files, err := w.Walk()
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}

			got := relPaths(files)
			if len(got) != len(tt.want) {
				t.Fatalf("Walk() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Walk()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestWalkAbsolutePathsNoDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a/b/c/d.png", "a/e.png", "f.png")

	w, err := NewWalker(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	files, err := w.Walk()
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for _, f := range files {
		if !filepath.IsAbs(f.Path) {
			t.Errorf("Path %q is not absolute", f.Path)
		}
		if seen[f.Path] {
			t.Errorf("Path %q reported twice", f.Path)
		}
		seen[f.Path] = true
		if f.Size == 0 {
			t.Errorf("Size of %q is 0", f.Path)
		}
	}
	if len(files) != 3 {
		t.Errorf("Walk() returned %d files, want 3", len(files))
	}
}

func TestWalkSkip(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "doc.md", "run.log", "img/a.png")

	w, err := NewWalker(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Skip(filepath.Join(dir, "run.log"), "")

	files, err := w.Walk()
	if err != nil {
		t.Fatal(err)
	}
	got := relPaths(files)
	want := []string{"doc.md", "img/a.png"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Walk() = %v, want %v", got, want)
	}
}

func TestIsExcluded(t *testing.T) {
	w := &Walker{excludes: []string{"red_files/", "*.tmp", "**/cache/**"}}

	tests := []struct {
		path string
		want bool
	}{
		{"red_files/img/a.png", true},
		{"red_files", false},
		{"notes.tmp", true},
		{"img/notes.tmp", false},
		{"img/cache/x.png", true},
		{"img/a.png", false},
	}
	for _, tt := range tests {
		if got := w.isExcluded(tt.path); got != tt.want {
			t.Errorf("isExcluded(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
