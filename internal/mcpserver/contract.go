package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/layoutsync/internal/layout"
)

// MarkerContract describes, for LLM consumers, how the template and target
// pages of plan must mark their shared regions.
func MarkerContract(plan layout.Plan) string {
	var b strings.Builder
	b.WriteString("# Shared Layout Marker Contract\n\n")
	fmt.Fprintf(&b, "The template `%s` is the single source for every shared region.\n", plan.Template)
	b.WriteString("Each target page must contain every region below, start marker first:\n\n")
	for _, r := range plan.Regions {
		fmt.Fprintf(&b, "- **%s**: `%s` ... `%s`\n", r.Name, r.Start, r.End)
	}
	b.WriteString("\n## Targets\n\n")
	for _, t := range plan.Targets {
		fmt.Fprintf(&b, "- `%s`\n", t)
	}
	b.WriteString(`
## Rules

1. Everything from the start marker through the end marker is replaced verbatim
   with the template's block. Text outside the markers is never touched.
2. Only the first start marker of a region is used. Do not repeat markers.
3. A page missing either marker of any region fails the whole run.
4. Edit shared navigation in the template only; edits inside target regions are
   overwritten on the next sync.
`)
	return b.String()
}
