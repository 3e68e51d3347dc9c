package prompts

import (
	"strings"

	"github.com/entrhq/tabpilot/pkg/agent/decision"
)

// PromptBuilder assembles the system prompt sent with every provider call.
type PromptBuilder struct {
	actions            []decision.ActionInfo
	customInstructions string
}

// NewPromptBuilder creates a builder that advertises the full action catalogue.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		actions: decision.Catalogue(),
	}
}

// WithActions replaces the advertised actions.
func (pb *PromptBuilder) WithActions(infos []decision.ActionInfo) *PromptBuilder {
	pb.actions = infos
	return pb
}

// WithCustomInstructions adds user-provided instructions ahead of the core rules.
func (pb *PromptBuilder) WithCustomInstructions(instructions string) *PromptBuilder {
	pb.customInstructions = strings.TrimSpace(instructions)
	return pb
}

// Build constructs the complete system prompt by assembling all sections
func (pb *PromptBuilder) Build() string {
	var builder strings.Builder

	builder.WriteString(IdentityPrompt)
	builder.WriteString("\n\n")

	if pb.customInstructions != "" {
		builder.WriteString("**User Instructions:**\n")
		builder.WriteString(pb.customInstructions)
		builder.WriteString("\n\n")
	}

	builder.WriteString("**Core Instructions:**\n\n")
	for _, section := range []string{
		IntentPrompt,
		PageContextPrompt,
		FeedbackPrompt,
		SearchStrategyPrompt,
		FindingElementsPrompt,
		OutputFormatPrompt,
	} {
		builder.WriteString(section)
		builder.WriteString("\n\n")
	}

	if catalogue := FormatActionCatalogue(pb.actions); catalogue != "" {
		builder.WriteString(catalogue)
		builder.WriteString("\n\n")
	}

	builder.WriteString(ExamplesPrompt)
	builder.WriteString("\n")

	return builder.String()
}

// Default returns the system prompt with no custom instructions.
func Default() string {
	return NewPromptBuilder().Build()
}
