package model

type ValidateResponse struct {
	Valid    bool                `json:"valid"`
	Metadata *RepositoryMetadata `json:"metadata,omitempty"`
	*APIError
}

type ContentResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	*APIError
}

type OAuthURLResponse struct {
	OAuthURL string `json:"oauth_url"`
}

type CallbackResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"access_token,omitempty"`
	*APIError
}

type RepositoriesResponse struct {
	Success bool                    `json:"success"`
	Repos   []UserRepositorySummary `json:"repos"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
