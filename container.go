package main

import (
	"context"
	"net/http"

	"github.com/google/go-github/v66/github"
	"github.com/rmgen/rmgen-backend/config"
	"github.com/rmgen/rmgen-backend/controller"
	"github.com/rmgen/rmgen-backend/service"
	log "github.com/sirupsen/logrus"
	"go.uber.org/dig"
	"golang.org/x/time/rate"
)

// RegisterProviders registers every collaborator of the gateway, each one is built once
// and shared by all requests
func RegisterProviders(container *dig.Container, cfg config.Config) error {
	providers := []any{
		func() config.Config { return cfg },
		newHTTPClient,
		newGithubClient,
		newGithubRateLimiter,
		service.NewGithubService,
		service.NewProjectClassifier,
		service.NewRepositoryValidator,
		newGenerator,
		service.NewOAuthBroker,
		controller.NewAPIController,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return err
		}
	}

	return nil
}

// every upstream call (github, oauth, generative-text) share this client and its timeout
func newHTTPClient(cfg config.Config) *http.Client {
	return &http.Client{Timeout: cfg.HTTP.Timeout()}
}

// setup github client
// we do here and pass the client to Github service to easily improve tests with mock client
func newGithubClient(cfg config.Config, httpClient *http.Client) *github.Client {
	githubClient := github.NewClient(httpClient)

	if cfg.Github.Token != "" {
		log.Debug("will setup github client with authorization token")
		githubClient = githubClient.WithAuthToken(cfg.Github.Token)
	}

	return githubClient
}

func newGithubRateLimiter(cfg config.Config, githubClient *github.Client) *rate.Limiter {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.Timeout())
	defer cancel()

	return service.NewGithubRateLimiter(ctx, githubClient, cfg.Github.Token != "")
}

func newGenerator(cfg config.Config, httpClient *http.Client) service.Generator {
	return service.NewGenerator(context.Background(), cfg, httpClient)
}

// injectAPIController builds the container and returns the fully wired controller
func injectAPIController(cfg config.Config) (controller.APIController, error) {
	container := dig.New()

	if err := RegisterProviders(container, cfg); err != nil {
		return nil, err
	}

	var apiController controller.APIController
	if err := container.Invoke(func(c controller.APIController) {
		apiController = c
	}); err != nil {
		return nil, err
	}

	return apiController, nil
}
