package planner

import (
	"path/filepath"
	"sort"

	"github.com/yuya-takeyama/mdsweep/internal/walker"
	"github.com/yuya-takeyama/mdsweep/pkg/reference"
)

// normalizePath brings a path to the canonical absolute form used for comparison
func normalizePath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// resolve joins a target with the directory of its document. Absolute
// targets are kept as they are.
func resolve(ref reference.Reference) string {
	if filepath.IsAbs(ref.Target) {
		return ref.Target
	}
	return filepath.Join(filepath.Dir(ref.Document), ref.Target)
}

// ResolveUsed builds the used asset set keyed by normalized path, with every
// reference pointing at it. With excludeExternal, remote and absolute
// references are returned separately and never resolved.
func ResolveUsed(refs []reference.Reference, excludeExternal bool) (map[string][]reference.Reference, []ExternalReference) {
	used := make(map[string][]reference.Reference)
	var external []ExternalReference

	for _, ref := range refs {
		if excludeExternal {
			if class := reference.Classify(ref.Target); class != reference.ClassRelative {
				external = append(external, ExternalReference{Class: class, Reference: ref})
				continue
			}
		}
		p := normalizePath(resolve(ref))
		used[p] = append(used[p], ref)
	}

	return used, external
}

// Compare computes assets minus used. Paths on both sides are normalized
// before the comparison.
func Compare(assets []walker.FileInfo, used map[string][]reference.Reference) CompareResult {
	assetMap := make(map[string]walker.FileInfo, len(assets))
	for _, a := range assets {
		assetMap[normalizePath(a.Path)] = a
	}

	result := CompareResult{
		Redundant: []walker.FileInfo{},
		Used:      []string{},
		Broken:    []string{},
	}

	for p, a := range assetMap {
		if _, ok := used[p]; !ok {
			result.Redundant = append(result.Redundant, a)
		}
	}

	for p := range used {
		if _, ok := assetMap[p]; ok {
			result.Used = append(result.Used, p)
		} else {
			result.Broken = append(result.Broken, p)
		}
	}

	sort.Slice(result.Redundant, func(i, j int) bool {
		return result.Redundant[i].Path < result.Redundant[j].Path
	})
	sort.Strings(result.Used)
	sort.Strings(result.Broken)

	return result
}

// GeneratePlan maps every redundant file to the same relative path under
// the quarantine root.
func GeneratePlan(redundant []walker.FileInfo, quarantineRoot string) []Item {
	items := []Item{}

	for _, f := range redundant {
		items = append(items, Item{
			Action:  ActionQuarantine,
			Source:  f.Path,
			Target:  filepath.Join(quarantineRoot, f.RelPath),
			RelPath: filepath.ToSlash(f.RelPath),
			Size:    f.Size,
			Reason:  "not referenced by any document",
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].RelPath < items[j].RelPath
	})

	return items
}
