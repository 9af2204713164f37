package reference

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Targets containing ')' or a quote inside the src attribute are cut short.
var defaultPatterns = []*regexp.Regexp{
	regexp.MustCompile(`!\[.*?\]\((.*?)\)`),
	regexp.MustCompile(`<img src=["'](.*?)["']`),
}

// PatternExtractor matches image syntax line by line with regular expressions
type PatternExtractor struct {
	patterns []*regexp.Regexp
}

func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{patterns: defaultPatterns}
}

func (e *PatternExtractor) Extract(r io.Reader, document string) ([]Reference, error) {
	var refs []Reference

	reader := bufio.NewReader(r)

	line := 0
	for {
		text, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read line %d: %w", line+1, err)
		}
		if text == "" && err == io.EOF {
			break
		}
		line++
		text = strings.TrimRight(text, "\r\n")
		for _, target := range e.ExtractLine(text) {
			refs = append(refs, Reference{
				Target:   target,
				Document: document,
				Line:     line,
			})
		}
		if err == io.EOF {
			break
		}
	}

	return refs, nil
}

// ExtractLine returns every target on a single line, Markdown images first
func (e *PatternExtractor) ExtractLine(text string) []string {
	var out []string
	for _, re := range e.patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			out = append(out, m[1])
		}
	}
	return out
}
