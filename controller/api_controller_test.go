package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rmgen/rmgen-backend/config"
	"github.com/rmgen/rmgen-backend/model"
	"github.com/rmgen/rmgen-backend/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	metadata *model.RepositoryMetadata
	err      error
}

func (f *fakeValidator) Validate(_ context.Context, req model.ValidateRequest) (*model.RepositoryMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := service.ResolveReference(req); err != nil {
		return nil, err
	}
	return f.metadata, nil
}

type fakeGenerator struct {
	content string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.content, f.err
}

type fakeOAuthBroker struct {
	url   string
	token string
	err   error
}

func (f *fakeOAuthBroker) AuthorizationURL() (string, error) {
	return f.url, f.err
}

func (f *fakeOAuthBroker) ExchangeCode(_ context.Context, code string) (*model.OAuthToken, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &model.OAuthError{Kind: model.ErrMissingCode}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.OAuthToken{AccessToken: f.token}, nil
}

type fakeGithubService struct {
	service.GithubService
	repos         []model.UserRepositorySummary
	err           error
	receivedToken string
}

func (f *fakeGithubService) ListUserRepositories(_ context.Context, accessToken string) ([]model.UserRepositorySummary, error) {
	f.receivedToken = accessToken
	if accessToken == "" {
		return nil, &model.AuthError{Kind: model.ErrMissingToken}
	}
	return f.repos, f.err
}

type testController struct {
	validator     *fakeValidator
	generator     *fakeGenerator
	oauthBroker   *fakeOAuthBroker
	githubService *fakeGithubService
}

func (tc testController) router() *gin.Engine {
	gin.SetMode(gin.TestMode)

	c := NewAPIController(*config.GetDefault(), tc.validator, tc.generator, tc.oauthBroker, tc.githubService)

	router := gin.New()
	router.POST("/api/validate-repo", c.ValidateRepository)
	router.POST("/api/generate-readme", c.GenerateReadme)
	router.POST("/api/refine-readme", c.RefineReadme)
	router.GET("/api/github-oauth-url", c.GetOAuthURL)
	router.POST("/api/github-callback", c.GithubCallback)
	router.GET("/api/github-repos", c.GetUserRepositories)
	router.GET("/api/health", c.HealthCheck)

	return router
}

func newTestController() testController {
	return testController{
		validator:     &fakeValidator{},
		generator:     &fakeGenerator{},
		oauthBroker:   &fakeOAuthBroker{},
		githubService: &fakeGithubService{},
	}
}

func perform(t *testing.T, router *gin.Engine, method, path, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded), recorder.Body.String())

	return recorder.Code, decoded
}

func TestValidateRepository(t *testing.T) {
	metadata := &model.RepositoryMetadata{Name: "hello", Owner: "octo", RepoName: "hello", DetectedProjectType: model.ProjectTypeGo}

	tests := []struct {
		name          string
		body          string
		validatorErr  error
		expectedValid bool
		expectedError string
	}{
		{
			name:          "Valid repository",
			body:          `{"repo_url":"https://github.com/octo/hello"}`,
			expectedValid: true,
		},
		{
			name:          "Missing information",
			body:          `{}`,
			expectedError: "Missing repository information",
		},
		{
			name:          "Empty body",
			body:          ``,
			expectedError: "Missing repository information",
		},
		{
			name:          "Malformed url",
			body:          `{"repo_url":"https://example.com/a/b"}`,
			validatorErr:  &model.ValidationError{Kind: model.ErrMalformedURL},
			expectedError: "Invalid GitHub URL format",
		},
		{
			name:          "Lookup failure",
			body:          `{"owner":"octo","repo_name":"missing"}`,
			validatorErr:  &model.ValidationError{Kind: model.ErrLookupFailed, Detail: "404 Not Found"},
			expectedError: "Repository lookup failed: 404 Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestController()
			tc.validator.metadata = metadata
			tc.validator.err = tt.validatorErr

			status, body := perform(t, tc.router(), http.MethodPost, "/api/validate-repo", tt.body, nil)

			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, tt.expectedValid, body["valid"])

			if tt.expectedValid {
				require.Contains(t, body, "metadata")
				assert.Equal(t, "Go Application", body["metadata"].(map[string]any)["detected_project_type"])
				assert.NotContains(t, body, "error")
				return
			}

			assert.Equal(t, tt.expectedError, body["error"])
			assert.NotContains(t, body, "metadata")
		})
	}
}

func TestGenerateReadme(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		generatorErr    error
		expectedSuccess bool
		expectedContent string
		expectedError   string
		expectedPrompts int
	}{
		{
			name:            "Generated",
			body:            `{"project_type":"Go Application","team_context":"Team","selected_sections":["Installation","License"],"repo_metadata":{"name":"hello","license":"MIT License"}}`,
			expectedSuccess: true,
			expectedContent: "# hello\n",
			expectedPrompts: 1,
		},
		{
			name:            "No sections selected",
			body:            `{"project_type":"Go Application","selected_sections":[]}`,
			expectedError:   "No sections selected",
			expectedPrompts: 0,
		},
		{
			name:            "Generation failure",
			body:            `{"selected_sections":["Usage"]}`,
			generatorErr:    &model.GenerationError{Detail: "quota exceeded"},
			expectedError:   "README generation failed: quota exceeded",
			expectedPrompts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestController()
			tc.generator.content = "# hello\n"
			tc.generator.err = tt.generatorErr

			status, body := perform(t, tc.router(), http.MethodPost, "/api/generate-readme", tt.body, nil)

			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, tt.expectedSuccess, body["success"])
			assert.Len(t, tc.generator.prompts, tt.expectedPrompts)

			if tt.expectedSuccess {
				assert.Equal(t, tt.expectedContent, body["content"])
				assert.Contains(t, tc.generator.prompts[0], "Installation, License")
				assert.Contains(t, tc.generator.prompts[0], `"We"`)
				return
			}

			assert.Equal(t, tt.expectedError, body["error"])
			assert.NotContains(t, body, "content")
		})
	}
}

func TestGenerateReadmeDefaultProjectType(t *testing.T) {
	tc := newTestController()
	tc.generator.content = "text"

	_, body := perform(t, tc.router(), http.MethodPost, "/api/generate-readme", `{"selected_sections":["Usage"]}`, nil)

	assert.Equal(t, true, body["success"])
	require.Len(t, tc.generator.prompts, 1)
	assert.Contains(t, tc.generator.prompts[0], "Project Type: "+model.ProjectTypeGeneric)
	assert.Contains(t, tc.generator.prompts[0], `"I"`)
}

func TestRefineReadme(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		generatorErr    error
		expectedStatus  int
		expectedContent string
		expectedError   string
		expectedPrompts int
	}{
		{
			name:            "Refined",
			body:            `{"current_content":"# Old","prompt":"add badges"}`,
			expectedStatus:  http.StatusOK,
			expectedContent: "# New",
			expectedPrompts: 1,
		},
		{
			name:            "Missing prompt",
			body:            `{"current_content":"# Old"}`,
			expectedStatus:  http.StatusBadRequest,
			expectedError:   "Missing current_content or prompt",
			expectedPrompts: 0,
		},
		{
			name:            "Blank content",
			body:            `{"current_content":"  ","prompt":"add badges"}`,
			expectedStatus:  http.StatusBadRequest,
			expectedError:   "Missing current_content or prompt",
			expectedPrompts: 0,
		},
		{
			name:            "Generation failure",
			body:            `{"current_content":"# Old","prompt":"add badges"}`,
			generatorErr:    &model.GenerationError{Detail: "timeout"},
			expectedStatus:  http.StatusInternalServerError,
			expectedError:   "README generation failed: timeout",
			expectedPrompts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestController()
			tc.generator.content = "# New"
			tc.generator.err = tt.generatorErr

			status, body := perform(t, tc.router(), http.MethodPost, "/api/refine-readme", tt.body, nil)

			assert.Equal(t, tt.expectedStatus, status)
			assert.Len(t, tc.generator.prompts, tt.expectedPrompts)

			if tt.expectedError != "" {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.expectedError, body["error"])
				return
			}

			assert.Equal(t, true, body["success"])
			assert.Equal(t, tt.expectedContent, body["content"])
			assert.Contains(t, tc.generator.prompts[0], "# Old")
			assert.Contains(t, tc.generator.prompts[0], "add badges")
		})
	}
}

func TestGetOAuthURL(t *testing.T) {
	t.Run("Configured", func(t *testing.T) {
		tc := newTestController()
		tc.oauthBroker.url = "https://github.com/login/oauth/authorize?client_id=abc"

		status, body := perform(t, tc.router(), http.MethodGet, "/api/github-oauth-url", "", nil)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, map[string]any{"oauth_url": "https://github.com/login/oauth/authorize?client_id=abc"}, body)
	})

	t.Run("Not configured", func(t *testing.T) {
		tc := newTestController()
		tc.oauthBroker.err = &model.ConfigError{Kind: model.ErrMissingClientID}

		status, body := perform(t, tc.router(), http.MethodGet, "/api/github-oauth-url", "", nil)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "GitHub OAuth not configured", body["error"])
		assert.NotContains(t, body, "oauth_url")
	})
}

func TestGithubCallback(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		brokerErr      error
		expectedStatus int
		expectedToken  string
		expectedError  string
	}{
		{
			name:           "Token exchanged",
			body:           `{"code":"test_code"}`,
			expectedStatus: http.StatusOK,
			expectedToken:  "abc",
		},
		{
			name:           "Missing code",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "No code provided",
		},
		{
			name:           "Code denied",
			body:           `{"code":"expired"}`,
			brokerErr:      &model.OAuthError{Kind: model.ErrDenied, Detail: "The code passed is incorrect or expired."},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "The code passed is incorrect or expired.",
		},
		{
			name:           "Token missing",
			body:           `{"code":"test_code"}`,
			brokerErr:      &model.OAuthError{Kind: model.ErrTokenMissing},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Could not retrieve access token",
		},
		{
			name:           "Network error",
			body:           `{"code":"test_code"}`,
			brokerErr:      &model.OAuthError{Kind: model.ErrNetwork, Detail: "connection refused"},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Network error: connection refused",
		},
		{
			name:           "Unexpected error",
			body:           `{"code":"test_code"}`,
			brokerErr:      errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestController()
			tc.oauthBroker.token = "abc"
			tc.oauthBroker.err = tt.brokerErr

			status, body := perform(t, tc.router(), http.MethodPost, "/api/github-callback", tt.body, nil)

			assert.Equal(t, tt.expectedStatus, status)

			if tt.expectedError != "" {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.expectedError, body["error"])
				assert.NotContains(t, body, "access_token")
				return
			}

			assert.Equal(t, true, body["success"])
			assert.Equal(t, tt.expectedToken, body["access_token"])
		})
	}
}

func TestGetUserRepositories(t *testing.T) {
	description := "A test repository"

	tests := []struct {
		name           string
		headers        map[string]string
		serviceErr     error
		expectedStatus int
		expectedToken  string
		expectedError  string
	}{
		{
			name:           "Repositories listed",
			headers:        map[string]string{"Authorization": "Bearer abc"},
			expectedStatus: http.StatusOK,
			expectedToken:  "abc",
		},
		{
			name:           "Lowercase scheme",
			headers:        map[string]string{"Authorization": "bearer abc"},
			expectedStatus: http.StatusOK,
			expectedToken:  "abc",
		},
		{
			name:           "No authorization header",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "No access token provided",
		},
		{
			name:           "Other scheme",
			headers:        map[string]string{"Authorization": "token abc"},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "No access token provided",
		},
		{
			name:           "Github failure",
			headers:        map[string]string{"Authorization": "Bearer revoked"},
			serviceErr:     &model.AuthError{Kind: model.ErrUpstreamFailure, Detail: "401 Bad credentials"},
			expectedStatus: http.StatusInternalServerError,
			expectedToken:  "revoked",
			expectedError:  "GitHub API error: 401 Bad credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestController()
			tc.githubService.repos = []model.UserRepositorySummary{
				{ID: 1, Name: "hello", FullName: "octo/hello", Description: &description, Stars: 3},
			}
			tc.githubService.err = tt.serviceErr

			status, body := perform(t, tc.router(), http.MethodGet, "/api/github-repos", "", tt.headers)

			assert.Equal(t, tt.expectedStatus, status)
			assert.Equal(t, tt.expectedToken, tc.githubService.receivedToken)

			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
				assert.NotContains(t, body, "repos")
				return
			}

			assert.Equal(t, true, body["success"])
			repos := body["repos"].([]any)
			require.Len(t, repos, 1)
			assert.Equal(t, "octo/hello", repos[0].(map[string]any)["full_name"])
			assert.Nil(t, repos[0].(map[string]any)["language"])
		})
	}
}

func TestHealthCheck(t *testing.T) {
	status, body := perform(t, newTestController().router(), http.MethodGet, "/api/health", "", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"status": "healthy", "service": "RMGen Backend"}, body)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":     "abc",
		"BEARER  abc ":   "abc",
		"Bearer ":        "",
		"Basic dXNlcg==": "",
		"":               "",
	}

	for header, expected := range tests {
		assert.Equal(t, expected, bearerToken(header), header)
	}
}
