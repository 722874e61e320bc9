package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/rmgen/rmgen-backend/model"
	log "github.com/sirupsen/logrus"
)

const maxContributors = 10

// only the owner and name segments matter, anything after them (tree/main, issues, ...) is ignored
var githubURLPattern = regexp.MustCompile(`^https?://github\.com/([^/?#]+)/([^/?#]+)`)

// ParseRepositoryURL extracts owner and name from a github url, a trailing .git is removed
func ParseRepositoryURL(rawURL string) (model.RepositoryReference, error) {
	match := githubURLPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if match == nil {
		return model.RepositoryReference{}, &model.ValidationError{Kind: model.ErrMalformedURL}
	}

	ref := model.RepositoryReference{
		Owner: match[1],
		Name:  strings.TrimSuffix(match[2], ".git"),
	}

	if ref.Name == "" {
		return model.RepositoryReference{}, &model.ValidationError{Kind: model.ErrMalformedURL}
	}

	return ref, nil
}

// ResolveReference picks the url when present, otherwise the owner and name pair
func ResolveReference(req model.ValidateRequest) (model.RepositoryReference, error) {
	if req.HasURL() {
		return ParseRepositoryURL(req.RepoURL)
	}

	ref := model.RepositoryReference{
		Owner: strings.TrimSpace(req.Owner),
		Name:  strings.TrimSuffix(strings.TrimSpace(req.RepoName), ".git"),
	}

	if ref.Owner == "" || ref.Name == "" {
		return model.RepositoryReference{}, &model.ValidationError{Kind: model.ErrMissingReference}
	}

	return ref, nil
}

type RepositoryValidator interface {
	Validate(ctx context.Context, req model.ValidateRequest) (*model.RepositoryMetadata, error)
}

type repositoryValidator struct {
	githubService GithubService
	classifier    ProjectClassifier
}

func NewRepositoryValidator(githubService GithubService, classifier ProjectClassifier) RepositoryValidator {
	return repositoryValidator{
		githubService: githubService,
		classifier:    classifier,
	}
}

// Validate resolves the repository and assembles its metadata.
// Only the repository lookup itself can fail the call, every enrichment is best effort.
func (v repositoryValidator) Validate(ctx context.Context, req model.ValidateRequest) (*model.RepositoryMetadata, error) {
	ref, err := ResolveReference(req)
	if err != nil {
		return nil, err
	}

	logger := log.WithField("repository", ref.FullName())
	logger.Info("validate github repository")

	repo, err := v.githubService.FetchRepository(ctx, ref)
	if err != nil {
		logger.WithError(err).Warning("repository lookup failed")
		return nil, &model.ValidationError{Kind: model.ErrLookupFailed, Detail: err.Error()}
	}

	metadata := &model.RepositoryMetadata{
		Name:                repo.GetName(),
		Description:         repo.GetDescription(),
		Language:            repo.GetLanguage(),
		License:             repo.GetLicense().GetName(),
		Stars:               repo.GetStargazersCount(),
		Forks:               repo.GetForksCount(),
		Topics:              repo.Topics,
		DefaultBranch:       repo.GetDefaultBranch(),
		CreatedAt:           repo.GetCreatedAt().Time,
		UpdatedAt:           repo.GetUpdatedAt().Time,
		DetectedTeamContext: model.TeamContextSolo,
		Contributors:        []model.Contributor{},
		Owner:               ref.Owner,
		RepoName:            ref.Name,
	}

	if metadata.Language == "" {
		metadata.Language = "Unknown"
	}

	if metadata.License == "" {
		metadata.License = "Not specified"
	}

	if metadata.Topics == nil {
		metadata.Topics = []string{}
	}

	if page, err := v.githubService.FetchContributors(ctx, ref, maxContributors); err != nil {
		logger.WithError(err).Warning("unable to load contributors, team context defaults to Solo")
	} else {
		metadata.Contributors = page.Contributors
		if page.Total > 1 {
			metadata.DetectedTeamContext = model.TeamContextTeam
		}
	}

	if readme, err := v.githubService.FetchReadme(ctx, ref); err != nil {
		logger.WithError(err).Debug("no readable README in repository")
	} else {
		metadata.ExistingReadme = &readme
	}

	metadata.DetectedProjectType = v.classifier.ClassifyRepository(ctx, ref, repo)

	logger.WithFields(log.Fields{
		"projectType": metadata.DetectedProjectType,
		"teamContext": metadata.DetectedTeamContext,
	}).Debug("repository validated")

	return metadata, nil
}
