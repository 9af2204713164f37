package document

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yuya-takeyama/mdsweep/internal/walker"
)

func fileInfos(rels ...string) []walker.FileInfo {
	var out []walker.FileInfo
	for _, r := range rels {
		out = append(out, walker.FileInfo{
			Path:    filepath.Join("/root", filepath.FromSlash(r)),
			RelPath: filepath.FromSlash(r),
		})
	}
	return out
}

func TestIsDocument(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"notes.md", true},
		{"dir/notes.md", true},
		{"README.MD", true},
		{"archive.mdx", false},
		{"notes.md.bak", false},
		{"sample.md/image.png", false},
		{"img.png", false},
		{"md", false},
		{".md", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsDocument(tt.path, DefaultExtensions); got != tt.want {
				t.Errorf("IsDocument(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestClassifyPartition(t *testing.T) {
	files := fileInfos("doc.md", "img/a.png", "archive.mdx", "sub/readme.md", "notes.md.bak", "b.pdf")

	docs, assets := Classify(files, DefaultExtensions)

	if len(docs)+len(assets) != len(files) {
		t.Fatalf("partition lost files: %d + %d != %d", len(docs), len(assets), len(files))
	}

	seen := make(map[string]int)
	for _, d := range docs {
		seen[d.Path]++
	}
	for _, a := range assets {
		seen[a.Path]++
	}
	for _, f := range files {
		if seen[f.Path] != 1 {
			t.Errorf("%s appears %d times across partitions", f.Path, seen[f.Path])
		}
	}

	wantDocs := []string{"doc.md", "sub/readme.md"}
	if len(docs) != len(wantDocs) {
		t.Fatalf("docs = %v, want %v", docs, wantDocs)
	}
	for i, d := range docs {
		if filepath.ToSlash(d.RelPath) != wantDocs[i] {
			t.Errorf("docs[%d] = %q, want %q", i, d.RelPath, wantDocs[i])
		}
	}
}

func TestAnomalies(t *testing.T) {
	assets := fileInfos("img/a.png", "archive.mdx", "notes.md.bak", "docs/manual.pdf", "SCAN.PDF", "notes.MD.bak", "img/B.PNG")

	got, err := Anomalies(assets, DefaultWarnPatterns)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"archive.mdx":     "**/*.md*",
		"notes.md.bak":    "**/*.md*",
		"docs/manual.pdf": "**/*.pdf",
		"SCAN.PDF":        "**/*.pdf",
		"notes.MD.bak":    "**/*.md*",
	}
	if len(got) != len(want) {
		t.Fatalf("Anomalies() = %v, want %d entries", got, len(want))
	}
	for _, a := range got {
		rel := filepath.ToSlash(a.File.RelPath)
		if want[rel] != a.Pattern {
			t.Errorf("anomaly %q matched %q, want %q", rel, a.Pattern, want[rel])
		}
	}

	if _, err := Anomalies(assets, []string{"[bad"}); err == nil {
		t.Error("Anomalies() with invalid pattern should fail")
	}
}

func TestClassifierLogsWarnings(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := NewClassifier([]string{"md"}, nil, zap.New(core))

	docs, assets, err := c.Classify(fileInfos("doc.md", "img/a.png", "old.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || len(assets) != 2 {
		t.Fatalf("Classify() docs=%d assets=%d, want 1 and 2", len(docs), len(assets))
	}

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if warnings[0].ContextMap()["path"] != filepath.Join("/root", "old.pdf") {
		t.Errorf("warning path = %v", warnings[0].ContextMap()["path"])
	}
}

func TestClassifierNoWarnPatterns(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := NewClassifier(nil, []string{}, zap.New(core))

	if _, _, err := c.Classify(fileInfos("doc.md", "old.pdf")); err != nil {
		t.Fatal(err)
	}
	if n := logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != 0 {
		t.Errorf("got %d warnings with patterns disabled, want 0", n)
	}
}
