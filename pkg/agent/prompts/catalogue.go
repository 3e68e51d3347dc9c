package prompts

import (
	"fmt"
	"strings"

	"github.com/entrhq/tabpilot/pkg/agent/decision"
)

// FormatActionCatalogue renders the supported actions as a bullet list.
func FormatActionCatalogue(infos []decision.ActionInfo) string {
	if len(infos) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString("**Supported Actions:**\n")
	for _, s := range infos {
		if s.Description == "" {
			builder.WriteString(fmt.Sprintf("- `%s`\n", s.Example))
			continue
		}
		builder.WriteString(fmt.Sprintf("- `%s` - %s\n", s.Example, s.Description))
	}
	return strings.TrimSuffix(builder.String(), "\n")
}
