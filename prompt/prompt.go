// Package prompt builds the instructions sent to the generative-text service.
// Builders are pure: no network, no logging.
package prompt

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/rmgen/rmgen-backend/model"
)

const licenseSection = "License"

// GenerationInput gathers what the caller chose for a new README
type GenerationInput struct {
	ProjectType      string
	TeamContext      model.TeamContext
	SelectedSections []string
	SectionDrafts    map[string]string
	Repository       model.PromptRepository
}

// ComposeGenerationPrompt builds the prompt used to write a README restricted to the selected sections
func ComposeGenerationPrompt(in GenerationInput) string {
	var b strings.Builder

	b.WriteString("You are an expert technical writer creating a README.md file. ")
	b.WriteString("Your task is to generate content ONLY for the sections specified by the user.\n\n")

	b.WriteString("**CRITICAL INSTRUCTIONS:**\n")
	fmt.Fprintf(&b, "1. You MUST ONLY generate the sections listed here: %s.\n", strings.Join(in.SelectedSections, ", "))
	b.WriteString("2. Do NOT invent or add any sections that are not in that list.\n")
	b.WriteString("3. If the user has provided content for a section, use it as the primary source and enhance it. Do not replace it.\n")
	b.WriteString("4. If the user has NOT provided content, generate it based on the project context below.\n")
	b.WriteString("5. When generating a project tagline or overview, be creative and do not simply repeat the project name.\n")
	fmt.Fprintf(&b, "6. Write in the first person using \"%s\".\n", in.TeamContext.Pronoun())
	b.WriteString("7. Generate the output as a single, complete README.md file in Markdown format.\n\n")

	b.WriteString("**Formatting Rules:**\n")
	b.WriteString("- All section headers (e.g., `## My Header`) must be in Title Case.\n")
	b.WriteString("- Do NOT leave a blank line between a section header and the content that follows it.\n\n")

	b.WriteString("---\n**Project Context:**\n")
	for _, line := range contextLines(in) {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteString("\n---\n**User-Provided Content for Each Section:**\n")
	b.WriteString(formatDrafts(in.SectionDrafts))

	b.WriteString("\n\n---\nBegin generating the README.md file now.\n")

	return b.String()
}

// ComposeRefinementPrompt builds the prompt applying a free-text instruction to an existing README
func ComposeRefinementPrompt(currentContent, instruction string) string {
	var b strings.Builder

	b.WriteString("You are an expert technical writer. ")
	b.WriteString("Your task is to refine the provided README content based on the user's specific instructions.\n\n")

	b.WriteString("**CRITICAL INSTRUCTIONS:**\n")
	b.WriteString("1. You MUST ONLY apply the changes requested by the user's prompt to the existing README content.\n")
	b.WriteString("2. Do NOT generate new sections unless explicitly asked by the user's prompt.\n")
	b.WriteString("3. Ensure the output is a complete, valid Markdown document.\n")
	b.WriteString("4. Address the user's prompt precisely. If the prompt is vague, make a reasonable interpretation.\n\n")

	b.WriteString("---\n**Current README Content:**\n")
	b.WriteString(currentContent)

	b.WriteString("\n\n---\n**User's Refinement Prompt:**\n")
	b.WriteString(instruction)

	b.WriteString("\n\n---\nBegin the refined README.md content now.\n")

	return b.String()
}

func contextLines(in GenerationInput) []string {
	lines := []string{
		"- Project Type: " + in.ProjectType,
		fmt.Sprintf("- Team Context: %s (use \"I\" for Solo, \"We\" for Team)", in.TeamContext),
	}

	repo := in.Repository
	if !repo.IsEmpty() {
		lines = append(lines,
			"- Repository: "+valueOr(repo.Name, "Unknown"),
			"- Description: "+valueOr(repo.Description, "No description provided"),
			"- Primary Language: "+valueOr(repo.Language, "Unknown"),
		)
	}

	if repo.License != "" && slices.Contains(in.SelectedSections, licenseSection) {
		lines = append(lines, "- License: "+repo.License)
	}

	return lines
}

// drafts are rendered as indented json so multi-line text stays unambiguous
func formatDrafts(drafts map[string]string) string {
	if len(drafts) == 0 {
		return "{}"
	}

	// a map of strings always marshals
	out, _ := json.MarshalIndent(drafts, "", "  ")
	return string(out)
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}
