package service

import (
	"context"
	"slices"
	"strings"

	"github.com/google/go-github/v66/github"
	"github.com/rmgen/rmgen-backend/model"
	log "github.com/sirupsen/logrus"
)

// rootFileRules are evaluated in order, the first group with a matching file wins.
// names are compared lower cased.
var rootFileRules = []struct {
	projectType string
	fileNames   []string
}{
	{projectType: model.ProjectTypeWeb, fileNames: []string{"package.json", "yarn.lock", "webpack.config.js"}},
	{projectType: model.ProjectTypePython, fileNames: []string{"requirements.txt", "setup.py", "pipfile"}},
	{projectType: model.ProjectTypeJava, fileNames: []string{"pom.xml", "build.gradle"}},
	{projectType: model.ProjectTypeRust, fileNames: []string{"cargo.toml"}},
	{projectType: model.ProjectTypeGo, fileNames: []string{"go.mod"}},
	{projectType: model.ProjectTypeContainerized, fileNames: []string{"dockerfile", "docker-compose.yml"}},
}

type ProjectClassifier interface {
	Classify(ctx context.Context, ref model.RepositoryReference) string
	ClassifyRepository(ctx context.Context, ref model.RepositoryReference, repo *github.Repository) string
}

type projectClassifier struct {
	githubService GithubService
}

func NewProjectClassifier(githubService GithubService) ProjectClassifier {
	return projectClassifier{githubService: githubService}
}

// Classify never fails: any lookup error gives the generic label
func (c projectClassifier) Classify(ctx context.Context, ref model.RepositoryReference) string {
	repo, err := c.githubService.FetchRepository(ctx, ref)
	if err != nil {
		log.WithError(err).WithField("repository", ref.FullName()).Warning("unable to load repository to detect project type")
		return model.ProjectTypeGeneric
	}

	return c.ClassifyRepository(ctx, ref, repo)
}

// ClassifyRepository reuses an already loaded repository, only the root listing is fetched
func (c projectClassifier) ClassifyRepository(ctx context.Context, ref model.RepositoryReference, repo *github.Repository) string {
	signals := model.ProjectSignals{
		IsTemplate: repo.GetIsTemplate(),
		Language:   repo.GetLanguage(),
	}

	// the root listing is useless for templates
	if !signals.IsTemplate {
		var err error
		signals.FileNames, err = c.githubService.ListRootFileNames(ctx, ref)
		if err != nil {
			log.WithError(err).WithField("repository", ref.FullName()).Warning("unable to list repository files to detect project type")
			return model.ProjectTypeGeneric
		}
	}

	return DetectProjectType(signals)
}

// DetectProjectType applies, in order: template flag, root files, primary language, generic fallback
func DetectProjectType(signals model.ProjectSignals) string {
	if signals.IsTemplate {
		return model.ProjectTypeTemplate
	}

	fileNames := make([]string, 0, len(signals.FileNames))
	for _, name := range signals.FileNames {
		fileNames = append(fileNames, strings.ToLower(name))
	}

	for _, rule := range rootFileRules {
		for _, name := range rule.fileNames {
			if slices.Contains(fileNames, name) {
				return rule.projectType
			}
		}
	}

	if signals.Language != "" {
		return model.LanguageProjectType(signals.Language)
	}

	return model.ProjectTypeGeneric
}
