// Package reference extracts image references from Markdown documents and
// classifies their targets.
package reference

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Reference is an image target as written inside a document
type Reference struct {
	Target   string
	Document string // Absolute path of the source document
	Line     int    // 1-based, 0 when unknown
}

func (r Reference) String() string {
	if r.Line > 0 {
		return fmt.Sprintf("%s (%s:%d)", r.Target, r.Document, r.Line)
	}
	return fmt.Sprintf("%s (%s)", r.Target, r.Document)
}

// Class tells whether a reference can point at a file under the root
type Class string

const (
	ClassRemote   Class = "remote"
	ClassAbsolute Class = "absolute"
	ClassRelative Class = "relative"
)

var remoteSchemes = []string{"https://", "http://"}

// Classify returns the class of a raw target string
func Classify(target string) Class {
	for _, scheme := range remoteSchemes {
		if strings.Contains(target, scheme) {
			return ClassRemote
		}
	}
	if filepath.IsAbs(target) {
		return ClassAbsolute
	}
	return ClassRelative
}

// Extractor pulls image references out of a document
type Extractor interface {
	Extract(r io.Reader, document string) ([]Reference, error)
}

// ExtractFile reads one document with the given extractor
func ExtractFile(ext Extractor, path string) ([]Reference, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer file.Close()

	refs, err := ext.Extract(file, path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	return refs, nil
}

// NewExtractor returns the extractor registered under name
func NewExtractor(name string) (Extractor, error) {
	switch name {
	case "", "pattern":
		return NewPatternExtractor(), nil
	case "markdown":
		return NewMarkdownExtractor(), nil
	default:
		return nil, fmt.Errorf("unknown parser: %q (want pattern or markdown)", name)
	}
}
