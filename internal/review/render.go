package review

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/taskfan/pkg/models"
)

// Render produces the review document. Section order is fixed regardless
// of task content: task summary, acceptance criteria, diff body, review
// checklist. The output suits both human readers and the external review
// agent.
func Render(req *models.ReviewRequest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Code Review Request - Task %s\n\n", req.TaskID)

	sb.WriteString("## Task Summary\n\n")
	fmt.Fprintf(&sb, "- **Title**: %s\n", req.Title)
	fmt.Fprintf(&sb, "- **Description**: %s\n", orNone(req.Description))
	fmt.Fprintf(&sb, "- **Branch**: %s\n", req.Branch)
	fmt.Fprintf(&sb, "- **Base**: %s\n\n", req.BaseRef)

	sb.WriteString("## Acceptance Criteria\n\n")
	fmt.Fprintf(&sb, "%s\n\n", orNone(req.TestStrategy))

	sb.WriteString("## Changes\n\n")
	if req.Empty() {
		sb.WriteString("_No changes yet: the workspace branch matches its base._\n\n")
	} else {
		sb.WriteString("```diff\n")
		sb.WriteString(req.Diff)
		if !strings.HasSuffix(req.Diff, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("```\n\n")
	}

	sb.WriteString("## Review Checklist\n\n")
	sb.WriteString("1. Does the implementation satisfy the acceptance criteria?\n")
	sb.WriteString("2. Are there bugs, races, or unhandled edge cases?\n")
	sb.WriteString("3. Are there security concerns?\n")
	sb.WriteString("4. Is the code readable and consistent with the surrounding style?\n")
	sb.WriteString("5. Should additional tests be added?\n")

	return sb.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
