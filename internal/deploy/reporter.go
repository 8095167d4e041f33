package deploy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fivetran/hybrid-agent-deploy/internal/stack"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7dcfff"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ece6a")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89"))
)

// FormatStatus renders the current state of the stack for display. Both the
// absent and present cases produce well-formed output.
func FormatStatus(stackName string, desc *stack.Description) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", titleStyle.Render("Stack "+stackName))
	if desc == nil {
		fmt.Fprintf(&b, "  Status: %s\n", dimStyle.Render("not found (no agent deployed)"))
		return b.String()
	}

	status := desc.Status
	switch {
	case strings.HasSuffix(status, "_COMPLETE") && !strings.HasPrefix(status, "DELETE"):
		status = successStyle.Render(status)
	case strings.HasSuffix(status, "_FAILED") || strings.Contains(status, "ROLLBACK"):
		status = errorStyle.Render(status)
	}
	fmt.Fprintf(&b, "  Status:  %s\n", status)
	if desc.StatusReason != "" {
		fmt.Fprintf(&b, "  Reason:  %s\n", desc.StatusReason)
	}
	if !desc.CreatedTime.IsZero() {
		fmt.Fprintf(&b, "  Created: %s\n", desc.CreatedTime.Format("2006-01-02 15:04:05 MST"))
	}
	if desc.UpdatedTime != nil {
		fmt.Fprintf(&b, "  Updated: %s\n", desc.UpdatedTime.Format("2006-01-02 15:04:05 MST"))
	}

	if len(desc.Outputs) > 0 {
		fmt.Fprintf(&b, "  Outputs:\n")
		keys := make([]string, 0, len(desc.Outputs))
		for k := range desc.Outputs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "    %s: %s\n", k, desc.Outputs[k])
		}
	}

	if strings.HasSuffix(desc.Status, "_FAILED") || strings.Contains(desc.Status, "ROLLBACK") {
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render("Inspect the stack events in the AWS console for the failure cause."))
	}

	return b.String()
}
