package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yuya-takeyama/mdsweep/pkg/archiver"
	"github.com/yuya-takeyama/mdsweep/pkg/executor"
	"github.com/yuya-takeyama/mdsweep/pkg/planner"
)

// PlanResult represents the planned operations before execution
type PlanResult struct {
	Root       string        `json:"root"`
	Quarantine string        `json:"quarantine"`
	Files      []PlanFile    `json:"files"`
	Broken     []BrokenRef   `json:"broken"`
	External   []ExternalRef `json:"external"`
	Summary    PlanSummary   `json:"summary"`
}

type PlanFile struct {
	Action string `json:"action"` // "quarantine"
	Source string `json:"source"`
	Target string `json:"target"`
	Size   int64  `json:"size"`
	Reason string `json:"reason"`
}

type BrokenRef struct {
	Path      string   `json:"path"`
	Documents []string `json:"documents"`
	Targets   []string `json:"targets"`
}

type ExternalRef struct {
	Class    string `json:"class"` // "remote", "absolute"
	Target   string `json:"target"`
	Document string `json:"document"`
	Line     int    `json:"line,omitempty"`
}

type PlanSummary struct {
	Files      int `json:"files"`
	Documents  int `json:"documents"`
	Used       int `json:"used"`
	Quarantine int `json:"quarantine"`
	Broken     int `json:"broken"`
	External   int `json:"external"`
}

// RunResult represents the actual execution results
type RunResult struct {
	Files   []ResultFile  `json:"files"`
	Errors  []ErrorFile   `json:"errors"`
	Summary ResultSummary `json:"summary"`
}

type ResultFile struct {
	Action  string `json:"action"` // "quarantined"
	Source  string `json:"source"`
	Target  string `json:"target"`
	Archive string `json:"archive,omitempty"`
}

type ErrorFile struct {
	Action string `json:"action"` // "quarantine", "archive"
	Source string `json:"source"`
	Target string `json:"target"`
	Error  string `json:"error"`
}

type ResultSummary struct {
	Quarantined int `json:"quarantined"`
	Archived    int `json:"archived"`
	Failed      int `json:"failed"`
}

func buildPlanResult(plan *planner.Plan) PlanResult {
	result := PlanResult{
		Root:       plan.Root,
		Quarantine: plan.QuarantineRoot,
		Files:      []PlanFile{},
		Broken:     []BrokenRef{},
		External:   []ExternalRef{},
	}

	for _, item := range plan.Items {
		result.Files = append(result.Files, PlanFile{
			Action: string(item.Action),
			Source: item.Source,
			Target: item.Target,
			Size:   item.Size,
			Reason: item.Reason,
		})
	}

	for _, b := range plan.Broken {
		ref := BrokenRef{Path: b.Path, Documents: []string{}, Targets: []string{}}
		seen := make(map[string]bool)
		for _, r := range b.References {
			if !seen[r.Document] {
				seen[r.Document] = true
				ref.Documents = append(ref.Documents, r.Document)
			}
			ref.Targets = append(ref.Targets, r.Target)
		}
		result.Broken = append(result.Broken, ref)
	}

	for _, e := range plan.External {
		result.External = append(result.External, ExternalRef{
			Class:    string(e.Class),
			Target:   e.Reference.Target,
			Document: e.Reference.Document,
			Line:     e.Reference.Line,
		})
	}

	result.Summary = PlanSummary{
		Files:      plan.Files,
		Documents:  len(plan.Documents),
		Used:       len(plan.Used),
		Quarantine: len(plan.Items),
		Broken:     len(plan.Broken),
		External:   len(plan.External),
	}

	return result
}

func buildRunResult(results []executor.Result, archived []archiver.Result) RunResult {
	run := RunResult{
		Files:  []ResultFile{},
		Errors: []ErrorFile{},
	}

	archiveURI := make(map[string]string)
	for _, a := range archived {
		if a.Error != nil {
			run.Errors = append(run.Errors, ErrorFile{
				Action: "archive",
				Source: a.Item.Target,
				Target: a.URI,
				Error:  a.Error.Error(),
			})
			run.Summary.Failed++
			continue
		}
		archiveURI[a.Item.Target] = a.URI
		run.Summary.Archived++
	}

	for _, result := range results {
		if result.Error != nil {
			run.Errors = append(run.Errors, ErrorFile{
				Action: string(result.Item.Action),
				Source: result.Item.Source,
				Target: result.Item.Target,
				Error:  result.Error.Error(),
			})
			run.Summary.Failed++
			continue
		}
		run.Files = append(run.Files, ResultFile{
			Action:  "quarantined",
			Source:  result.Item.Source,
			Target:  result.Item.Target,
			Archive: archiveURI[result.Item.Target],
		})
		run.Summary.Quarantined++
	}

	return run
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
