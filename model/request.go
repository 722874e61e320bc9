package model

import "strings"

type ValidateRequest struct {
	RepoURL  string `json:"repo_url"`
	Owner    string `json:"owner"`
	RepoName string `json:"repo_name"`
}

// HasURL reports whether a non blank URL was given, it takes precedence over owner and name
func (r ValidateRequest) HasURL() bool {
	return strings.TrimSpace(r.RepoURL) != ""
}

// PromptRepository is the subset of repository metadata used to build prompts.
// Clients post back the metadata they received from validation, other fields are ignored.
type PromptRepository struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	License     string `json:"license"`
}

func (r PromptRepository) IsEmpty() bool {
	return r.Name == "" && r.Description == "" && r.Language == "" && r.License == ""
}

type GenerateRequest struct {
	ProjectType      string            `json:"project_type"`
	TeamContext      string            `json:"team_context"`
	SelectedSections []string          `json:"selected_sections"`
	SectionContent   map[string]string `json:"section_content"`
	RepoMetadata     PromptRepository  `json:"repo_metadata"`
}

type RefineRequest struct {
	CurrentContent string `json:"current_content"`
	Prompt         string `json:"prompt"`
}

type CallbackRequest struct {
	Code string `json:"code"`
}
