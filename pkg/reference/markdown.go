package reference

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// MarkdownExtractor walks a goldmark AST. Unlike PatternExtractor it resolves
// reference-style images, strips link titles and ignores code.
type MarkdownExtractor struct {
	md goldmark.Markdown
}

func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{md: goldmark.New()}
}

func (e *MarkdownExtractor) Extract(r io.Reader, document string) ([]Reference, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := e.md.Parser().Parse(text.NewReader(src))

	var refs []Reference
	add := func(target string, line int) {
		if target == "" {
			return
		}
		refs = append(refs, Reference{Target: target, Document: document, Line: line})
	}

	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Image:
			add(string(node.Destination), lineOf(node, src))
		case *ast.RawHTML:
			var buf bytes.Buffer
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				buf.Write(seg.Value(src))
			}
			line := 0
			if node.Segments.Len() > 0 {
				line = lineAt(src, node.Segments.At(0).Start)
			}
			for _, target := range imgSources(buf.String()) {
				add(target, line)
			}
		case *ast.HTMLBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				for _, target := range imgSources(string(seg.Value(src))) {
					add(target, lineAt(src, seg.Start))
				}
			}
			if node.HasClosure() {
				seg := node.ClosureLine
				for _, target := range imgSources(string(seg.Value(src))) {
					add(target, lineAt(src, seg.Start))
				}
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return refs, nil
}

// imgSources returns the src attribute of every img tag in an HTML fragment
func imgSources(fragment string) []string {
	var out []string
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "img" {
				continue
			}
			for _, attr := range tok.Attr {
				if attr.Key == "src" {
					out = append(out, attr.Val)
				}
			}
		}
	}
}

// lineOf finds the source line of an inline node through its first text
// child, falling back to the enclosing block.
func lineOf(n ast.Node, src []byte) int {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			return lineAt(src, t.Segment.Start)
		}
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == ast.TypeBlock && p.Lines().Len() > 0 {
			return lineAt(src, p.Lines().At(0).Start)
		}
	}
	return 0
}

func lineAt(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	return bytes.Count(src[:offset], []byte("\n")) + 1
}
