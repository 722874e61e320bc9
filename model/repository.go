package model

import "time"

type TeamContext string

const (
	TeamContextSolo TeamContext = "Solo"
	TeamContextTeam TeamContext = "Team"
)

// Pronoun used by the generated text for this collaboration context
func (t TeamContext) Pronoun() string {
	if t == TeamContextTeam {
		return "We"
	}

	return "I"
}

// ParseTeamContext falls back to Solo for any unknown value
func ParseTeamContext(value string) TeamContext {
	if TeamContext(value) == TeamContextTeam {
		return TeamContextTeam
	}

	return TeamContextSolo
}

type RepositoryReference struct {
	Owner string
	Name  string
}

func (r RepositoryReference) FullName() string {
	return r.Owner + "/" + r.Name
}

type Contributor struct {
	Login         string `json:"login"`
	DisplayName   string `json:"name"`
	Contributions int    `json:"contributions"`
}

type RepositoryMetadata struct {
	Name                string        `json:"name"`
	Description         string        `json:"description"`
	Language            string        `json:"language"`
	License             string        `json:"license"`
	Stars               int           `json:"stars"`
	Forks               int           `json:"forks"`
	Topics              []string      `json:"topics"`
	DefaultBranch       string        `json:"default_branch"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
	DetectedTeamContext TeamContext   `json:"detected_team_context"`
	ExistingReadme      *string       `json:"existing_readme"` // null when the repository has no readable README
	Contributors        []Contributor `json:"contributors"`
	Owner               string        `json:"owner"`
	RepoName            string        `json:"repo_name"`
	DetectedProjectType string        `json:"detected_project_type"`
}

type UserRepositorySummary struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description *string   `json:"description"`
	Language    *string   `json:"language"`
	Private     bool      `json:"private"`
	Fork        bool      `json:"fork"`
	UpdatedAt   time.Time `json:"updated_at"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
}

type OAuthToken struct {
	AccessToken string
}
