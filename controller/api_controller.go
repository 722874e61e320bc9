package controller

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rmgen/rmgen-backend/config"
	"github.com/rmgen/rmgen-backend/model"
	"github.com/rmgen/rmgen-backend/prompt"
	"github.com/rmgen/rmgen-backend/service"
	log "github.com/sirupsen/logrus"
)

type APIController interface {
	ValidateRepository(ctx *gin.Context)
	GenerateReadme(ctx *gin.Context)
	RefineReadme(ctx *gin.Context)
	GetOAuthURL(ctx *gin.Context)
	GithubCallback(ctx *gin.Context)
	GetUserRepositories(ctx *gin.Context)
	HealthCheck(ctx *gin.Context)
}

type apiController struct {
	validator     service.RepositoryValidator
	generator     service.Generator
	oauthBroker   service.OAuthBroker
	githubService service.GithubService
	config        config.Config
}

func NewAPIController(
	config config.Config,
	validator service.RepositoryValidator,
	generator service.Generator,
	oauthBroker service.OAuthBroker,
	githubService service.GithubService,
) APIController {
	return apiController{
		validator:     validator,
		generator:     generator,
		oauthBroker:   oauthBroker,
		githubService: githubService,
		config:        config,
	}
}

// ValidateRepository always answers 200, an invalid repository is a normal negative result
func (s apiController) ValidateRepository(c *gin.Context) {
	var req model.ValidateRequest
	if err := bindJSON(c, &req); err != nil {
		c.JSON(http.StatusOK, model.ValidateResponse{
			APIError: invalidBody(err, model.ErrMissingReference),
		})
		return
	}

	metadata, err := s.validator.Validate(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusOK, model.ValidateResponse{APIError: model.NewAPIError(err)})
		return
	}

	c.JSON(http.StatusOK, model.ValidateResponse{Valid: true, Metadata: metadata})
}

// GenerateReadme always answers 200, failures are reported in the envelope
func (s apiController) GenerateReadme(c *gin.Context) {
	var req model.GenerateRequest
	if err := bindJSON(c, &req); err != nil {
		c.JSON(http.StatusOK, model.ContentResponse{APIError: invalidBody(err, model.ErrInvalidRequest)})
		return
	}

	if len(req.SelectedSections) == 0 {
		c.JSON(http.StatusOK, model.ContentResponse{APIError: &model.APIError{
			Error: "No sections selected",
			Code:  string(model.ErrInvalidRequest),
		}})
		return
	}

	projectType := strings.TrimSpace(req.ProjectType)
	if projectType == "" {
		projectType = model.ProjectTypeGeneric
	}

	content, err := s.generator.Generate(c.Request.Context(), prompt.ComposeGenerationPrompt(prompt.GenerationInput{
		ProjectType:      projectType,
		TeamContext:      model.ParseTeamContext(req.TeamContext),
		SelectedSections: req.SelectedSections,
		SectionDrafts:    req.SectionContent,
		Repository:       req.RepoMetadata,
	}))

	if err != nil {
		log.WithError(err).Error("error generating README")
		c.JSON(http.StatusOK, model.ContentResponse{APIError: model.NewAPIError(err)})
		return
	}

	c.JSON(http.StatusOK, model.ContentResponse{Success: true, Content: content})
}

func (s apiController) RefineReadme(c *gin.Context) {
	var req model.RefineRequest
	if err := bindJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, model.ContentResponse{APIError: invalidBody(err, model.ErrInvalidRequest)})
		return
	}

	if strings.TrimSpace(req.CurrentContent) == "" || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, model.ContentResponse{APIError: &model.APIError{
			Error: "Missing current_content or prompt",
			Code:  string(model.ErrInvalidRequest),
		}})
		return
	}

	content, err := s.generator.Generate(c.Request.Context(), prompt.ComposeRefinementPrompt(req.CurrentContent, req.Prompt))
	if err != nil {
		log.WithError(err).Error("error refining README")
		c.JSON(http.StatusInternalServerError, model.ContentResponse{APIError: model.NewAPIError(err)})
		return
	}

	c.JSON(http.StatusOK, model.ContentResponse{Success: true, Content: content})
}

// GetOAuthURL answers 200 even when oauth is not configured, the client shows the error
func (s apiController) GetOAuthURL(c *gin.Context) {
	oauthURL, err := s.oauthBroker.AuthorizationURL()
	if err != nil {
		c.JSON(http.StatusOK, model.NewAPIError(err))
		return
	}

	c.JSON(http.StatusOK, model.OAuthURLResponse{OAuthURL: oauthURL})
}

func (s apiController) GithubCallback(c *gin.Context) {
	var req model.CallbackRequest
	if err := bindJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, model.CallbackResponse{APIError: invalidBody(err, model.ErrMissingCode)})
		return
	}

	token, err := s.oauthBroker.ExchangeCode(c.Request.Context(), req.Code)
	if err != nil {
		status := http.StatusBadRequest

		var oauthErr *model.OAuthError
		if !errors.As(err, &oauthErr) || oauthErr.Kind == model.ErrNetwork {
			status = http.StatusInternalServerError
		}

		c.JSON(status, model.CallbackResponse{APIError: model.NewAPIError(err)})
		return
	}

	c.JSON(http.StatusOK, model.CallbackResponse{Success: true, AccessToken: token.AccessToken})
}

func (s apiController) GetUserRepositories(c *gin.Context) {
	repos, err := s.githubService.ListUserRepositories(c.Request.Context(), bearerToken(c.GetHeader("Authorization")))
	if err != nil {
		status := http.StatusInternalServerError

		var authErr *model.AuthError
		if errors.As(err, &authErr) && authErr.Kind == model.ErrMissingToken {
			status = http.StatusUnauthorized
		}

		c.JSON(status, model.NewAPIError(err))
		return
	}

	c.JSON(http.StatusOK, model.RepositoriesResponse{Success: true, Repos: repos})
}

func (s apiController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, model.HealthResponse{Status: "healthy", Service: s.config.API.ServiceName})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}

	return ""
}

// bindJSON treats an empty body as an empty object so missing fields get their own error
func bindJSON(c *gin.Context, target any) error {
	if err := c.ShouldBindJSON(target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

func invalidBody(err error, kind model.ErrorKind) *model.APIError {
	log.WithError(err).Debug("unable to decode request body")

	return &model.APIError{
		Error:  "Invalid request body",
		Code:   string(kind),
		Detail: err.Error(),
	}
}
