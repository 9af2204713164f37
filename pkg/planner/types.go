package planner

import (
	"github.com/yuya-takeyama/mdsweep/internal/walker"
	"github.com/yuya-takeyama/mdsweep/pkg/reference"
)

// DefaultQuarantineDir is created directly under the scanned root
const DefaultQuarantineDir = "red_files"

type Options struct {
	Extensions      []string
	WarnPatterns    []string
	Excludes        []string
	Skip            []string // absolute paths never treated as candidates
	ExcludeExternal bool     // drop remote and absolute references with a warning
	QuarantineDir   string   // relative to the root
}

type Action string

const (
	ActionQuarantine Action = "quarantine"
)

type Item struct {
	Action  Action
	Source  string
	Target  string
	RelPath string
	Size    int64
	Reason  string
}

// BrokenReference is a used path with no matching file on disk
type BrokenReference struct {
	Path       string
	References []reference.Reference
}

// ExternalReference is a reference excluded from the used set
type ExternalReference struct {
	Class     reference.Class
	Reference reference.Reference
}

type CompareResult struct {
	Redundant []walker.FileInfo
	Used      []string
	Broken    []string
}

type Plan struct {
	Root           string
	QuarantineRoot string
	Files          int
	Documents      []string
	Used           []string
	Broken         []BrokenReference
	External       []ExternalReference
	Items          []Item
}
