// Package models defines the domain types for layoutsync.
package models

// TargetResult describes the outcome for a single target document.
type TargetResult struct {
	Path     string `json:"path"`
	Changed  bool   `json:"changed"`
	Checksum string `json:"checksum"`
	Diff     string `json:"diff,omitempty"`
}

// Report summarises a sync or check run.
type Report struct {
	Template string         `json:"template"`
	DryRun   bool           `json:"dry_run"`
	Targets  []TargetResult `json:"targets"`
}

// Changed returns the paths of targets whose content differs from the
// template's regions, in processing order.
func (r *Report) Changed() []string {
	var out []string
	for _, t := range r.Targets {
		if t.Changed {
			out = append(out, t.Path)
		}
	}
	return out
}
