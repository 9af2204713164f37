package planner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/yuya-takeyama/mdsweep/internal/walker"
	"github.com/yuya-takeyama/mdsweep/pkg/document"
	"github.com/yuya-takeyama/mdsweep/pkg/reference"
)

type Planner struct {
	extractor reference.Extractor
	log       *zap.Logger
}

func NewPlanner(extractor reference.Extractor, log *zap.Logger) *Planner {
	if extractor == nil {
		extractor = reference.NewPatternExtractor()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{
		extractor: extractor,
		log:       log,
	}
}

// Plan scans root and returns the files to quarantine. Broken, remote and
// absolute references are logged and recorded in the plan; they never fail it.
func (p *Planner) Plan(ctx context.Context, root string, opts Options) (*Plan, error) {
	quarantineDir := opts.QuarantineDir
	if quarantineDir == "" {
		quarantineDir = DefaultQuarantineDir
	}
	if !filepath.IsLocal(quarantineDir) {
		return nil, fmt.Errorf("quarantine directory must be a relative path inside the root: %q", quarantineDir)
	}

	w, err := walker.NewWalker(root, opts.Excludes)
	if err != nil {
		return nil, fmt.Errorf("failed to create walker: %w", err)
	}
	w.Skip(opts.Skip...)

	p.log.Info("Processing folder", zap.String("root", w.Root()))

	files, err := w.Walk()
	if err != nil {
		return nil, fmt.Errorf("failed to gather local files: %w", err)
	}
	p.log.Info("Total file count", zap.Int("files", len(files)))

	classifier := document.NewClassifier(opts.Extensions, opts.WarnPatterns, p.log)
	documents, assets, err := classifier.Classify(files)
	if err != nil {
		return nil, fmt.Errorf("failed to classify files: %w", err)
	}

	if opts.ExcludeExternal {
		p.log.Info("Remote and absolute references are excluded from the used set")
	}

	var refs []reference.Reference
	for _, doc := range documents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		docRefs, err := reference.ExtractFile(p.extractor, doc.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		p.log.Debug("References extracted", zap.String("document", doc.Path), zap.Int("references", len(docRefs)))
		refs = append(refs, docRefs...)
	}

	used, external := ResolveUsed(refs, opts.ExcludeExternal)
	for _, ext := range external {
		msg := "Hyperlink detected in document image path"
		if ext.Class == reference.ClassAbsolute {
			msg = "Absolute path detected in document image path"
		}
		p.log.Warn(msg,
			zap.String("target", ext.Reference.Target),
			zap.String("document", ext.Reference.Document),
			zap.Int("line", ext.Reference.Line))
	}

	result := Compare(assets, used)

	for _, u := range result.Used {
		p.log.Debug("Image path in dir", zap.String("path", u))
	}

	broken := make([]BrokenReference, 0, len(result.Broken))
	for _, b := range result.Broken {
		br := BrokenReference{Path: b, References: used[b]}
		broken = append(broken, br)
		referencedBy := make([]string, 0, len(br.References))
		for _, ref := range br.References {
			referencedBy = append(referencedBy, ref.String())
		}
		p.log.Error("Image path is not in the dir",
			zap.String("path", b),
			zap.Strings("references", referencedBy))
	}

	quarantineRoot := filepath.Join(w.Root(), quarantineDir)
	items := GeneratePlan(result.Redundant, quarantineRoot)

	if len(items) == 0 {
		p.log.Info("There is no redundant path")
	} else {
		var list strings.Builder
		for _, item := range items {
			list.WriteString(item.Source)
			list.WriteByte('\n')
		}
		p.log.Info("All redundant paths are:\n"+list.String(), zap.Int("count", len(items)))
	}

	docPaths := make([]string, 0, len(documents))
	for _, d := range documents {
		docPaths = append(docPaths, d.Path)
	}

	return &Plan{
		Root:           w.Root(),
		QuarantineRoot: quarantineRoot,
		Files:          len(files),
		Documents:      docPaths,
		Used:           result.Used,
		Broken:         broken,
		External:       external,
		Items:          items,
	}, nil
}
