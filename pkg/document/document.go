// Package document separates Markdown documents from the candidate assets
// found next to them.
package document

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/yuya-takeyama/mdsweep/internal/walker"
)

var (
	// DefaultExtensions are the document extensions recognized by default
	DefaultExtensions = []string{".md"}

	// DefaultWarnPatterns flag candidates that look like documents or PDFs
	DefaultWarnPatterns = []string{"**/*.md*", "**/*.pdf"}
)

// IsDocument reports whether path ends with one of the document extensions.
// Matching is on the final extension only and ignores case.
func IsDocument(path string, extensions []string) bool {
	ext := filepath.Ext(path)
	if ext == "" {
		return false
	}
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// Classify partitions files into documents and candidate assets. Both slices
// keep the input order and together contain every input exactly once.
func Classify(files []walker.FileInfo, extensions []string) (documents, assets []walker.FileInfo) {
	for _, f := range files {
		if IsDocument(f.Path, extensions) {
			documents = append(documents, f)
		} else {
			assets = append(assets, f)
		}
	}
	return documents, assets
}

// Anomaly is a candidate asset matching a warn pattern
type Anomaly struct {
	Pattern string
	File    walker.FileInfo
}

// Anomalies returns candidates whose slash-separated relative path matches
// one of the patterns. Matching ignores case, like IsDocument. Each file is
// reported once, for the first pattern.
func Anomalies(assets []walker.FileInfo, patterns []string) ([]Anomaly, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid warn pattern: %q", p)
		}
	}

	var out []Anomaly
	for _, f := range assets {
		rel := strings.ToLower(filepath.ToSlash(f.RelPath))
		for _, p := range patterns {
			if matched, _ := doublestar.Match(strings.ToLower(p), rel); matched {
				out = append(out, Anomaly{Pattern: p, File: f})
				break
			}
		}
	}
	return out, nil
}

// Classifier runs Classify and logs the outcome
type Classifier struct {
	extensions   []string
	warnPatterns []string
	log          *zap.Logger
}

// NewClassifier creates a classifier. Empty extensions or patterns fall back
// to the defaults.
func NewClassifier(extensions, warnPatterns []string, log *zap.Logger) *Classifier {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if warnPatterns == nil {
		warnPatterns = DefaultWarnPatterns
	}
	if log == nil {
		log = zap.NewNop()
	}
	normalized := make([]string, 0, len(extensions))
	for _, e := range extensions {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		normalized = append(normalized, e)
	}
	return &Classifier{
		extensions:   normalized,
		warnPatterns: warnPatterns,
		log:          log,
	}
}

// Classify partitions files and warns about candidates matching a warn pattern
func (c *Classifier) Classify(files []walker.FileInfo) (documents, assets []walker.FileInfo, err error) {
	documents, assets = Classify(files, c.extensions)

	c.log.Info("Documents classified",
		zap.Int("documents", len(documents)),
		zap.Int("assets", len(assets)))
	var names strings.Builder
	for _, d := range documents {
		names.WriteString(d.Path)
		names.WriteByte('\n')
	}
	c.log.Info("All documents in this folder:\n" + names.String())

	anomalies, err := Anomalies(assets, c.warnPatterns)
	if err != nil {
		return nil, nil, err
	}
	for _, a := range anomalies {
		c.log.Warn("Suspicious format detected in asset list after document separation",
			zap.String("pattern", a.Pattern),
			zap.String("path", a.File.Path))
	}

	return documents, assets, nil
}
