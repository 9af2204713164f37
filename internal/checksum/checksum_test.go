package checksum

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty input",
			input: "",
			want:  "AAAAAAAAAAA=",
		},
		{
			name:  "short text",
			input: "Hello, World!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if tt.want != "" && got != tt.want {
				t.Errorf("Calculate() = %q, want %q", got, tt.want)
			}
			again, err := Calculate(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if got != again {
				t.Errorf("Calculate() not deterministic: %q != %q", got, again)
			}
		})
	}
}

func TestCalculateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	if err := os.WriteFile(path, []byte("png bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	fromFile, err := CalculateFile(path)
	if err != nil {
		t.Fatalf("CalculateFile() error = %v", err)
	}
	fromReader, err := Calculate(strings.NewReader("png bytes"))
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if fromFile != fromReader {
		t.Errorf("CalculateFile() = %q, Calculate() = %q", fromFile, fromReader)
	}

	if _, err := CalculateFile(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("CalculateFile() on missing file should fail")
	}
}

func TestTeeReader(t *testing.T) {
	tee := NewTeeReader(strings.NewReader("The quick brown fox jumps over the lazy dog"))

	if _, err := tee.Checksum(); err == nil {
		t.Error("Checksum() before EOF should fail")
	}

	if _, err := io.Copy(io.Discard, tee); err != nil {
		t.Fatal(err)
	}

	got, err := tee.Checksum()
	if err != nil {
		t.Fatalf("Checksum() error = %v", err)
	}
	want, _ := Calculate(strings.NewReader("The quick brown fox jumps over the lazy dog"))
	if got != want {
		t.Errorf("Checksum() = %q, want %q", got, want)
	}
}
