package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/remeh/sizedwaitgroup"
	"github.com/rmgen/rmgen-backend/config"
	"github.com/rmgen/rmgen-backend/model"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrRateLimitReached is returned when the local github rate budget is exhausted
var ErrRateLimitReached = errors.New(model.RateLimitReached)

// ContributorsPage holds the first contributors of a repository.
// Total is exact when the repository fits in one page, otherwise it is a lower bound.
type ContributorsPage struct {
	Contributors []model.Contributor
	Total        int
}

type GithubService interface {
	FetchRepository(ctx context.Context, ref model.RepositoryReference) (*github.Repository, error)
	FetchContributors(ctx context.Context, ref model.RepositoryReference, limit int) (ContributorsPage, error)
	FetchReadme(ctx context.Context, ref model.RepositoryReference) (string, error)
	ListRootFileNames(ctx context.Context, ref model.RepositoryReference) ([]string, error)
	ListUserRepositories(ctx context.Context, accessToken string) ([]model.UserRepositorySummary, error)

	HandleRequestErrors(err error) error
}

type githubService struct {
	githubClient      *github.Client
	httpClient        *http.Client
	githubRateLimiter *rate.Limiter
	config            config.Config
}

// NewGithubService builds the github adapter.
// githubClient carries the application token (if any) and is guarded by the rate limiter,
// httpClient is used to build per-user clients when acting on behalf of an oauth user.
func NewGithubService(config config.Config, githubClient *github.Client, httpClient *http.Client, rateLimiter *rate.Limiter) GithubService {
	return githubService{
		githubClient:      githubClient,
		httpClient:        httpClient,
		githubRateLimiter: rateLimiter,
		config:            config,
	}
}

func (s githubService) FetchRepository(ctx context.Context, ref model.RepositoryReference) (*github.Repository, error) {
	if !s.githubRateLimiter.Allow() {
		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
		return nil, ErrRateLimitReached
	}

	log.WithField("repository", ref.FullName()).Debug("fetch repository from github")

	repo, _, err := s.githubClient.Repositories.Get(ctx, ref.Owner, ref.Name)
	if err != nil {
		return nil, s.HandleRequestErrors(err)
	}

	return repo, nil
}

// FetchContributors loads the top contributors, sorted by contributions as returned by github,
// then resolves their display names in parallel (best effort, login is used as fallback)
func (s githubService) FetchContributors(ctx context.Context, ref model.RepositoryReference, limit int) (ContributorsPage, error) {
	if !s.githubRateLimiter.Allow() {
		return ContributorsPage{}, ErrRateLimitReached
	}

	contributors, resp, err := s.githubClient.Repositories.ListContributors(ctx, ref.Owner, ref.Name, &github.ListContributorsOptions{
		ListOptions: github.ListOptions{
			Page:    1,
			PerPage: limit,
		},
	})

	if err != nil {
		return ContributorsPage{}, s.HandleRequestErrors(err)
	}

	page := ContributorsPage{
		Contributors: make([]model.Contributor, 0, len(contributors)),
		Total:        len(contributors),
	}

	// link header tells us there is more than one page, the exact count is not needed
	if resp != nil && resp.LastPage > 1 {
		page.Total = (resp.LastPage-1)*limit + 1
	}

	for _, c := range contributors {
		if c == nil {
			continue
		}

		login := c.GetLogin()
		if login == "" {
			// anonymous contributors only carry a name or an email
			login = c.GetName()
		}

		page.Contributors = append(page.Contributors, model.Contributor{
			Login:         login,
			DisplayName:   login,
			Contributions: c.GetContributions(),
		})
	}

	s.resolveDisplayNames(ctx, page.Contributors)

	return page, nil
}

// resolveDisplayNames fetch the user profile of each contributor using goroutines
// contributors are updated in place, each goroutine owns a single index
func (s githubService) resolveDisplayNames(ctx context.Context, contributors []model.Contributor) {
	if len(contributors) == 0 {
		return
	}

	// all names or none: a partial list of names would look inconsistent
	if !s.githubRateLimiter.AllowN(time.Now(), len(contributors)) {
		log.WithField("contributors", len(contributors)).Warning("not enought requests in rate limiter to load contributors names. logins will be used")
		return
	}

	swg := sizedwaitgroup.New(s.maxParallelTasks())

	for i := range contributors {
		swg.Add()
		go func(index int) {
			defer swg.Done()

			user, _, err := s.githubClient.Users.Get(ctx, contributors[index].Login)
			if err != nil {
				err = s.HandleRequestErrors(err)
				log.WithError(err).WithField("login", contributors[index].Login).Debug("unable to load contributor profile")
				return
			}

			if name := user.GetName(); name != "" {
				contributors[index].DisplayName = name
			}
		}(i)
	}

	swg.Wait()
}

func (s githubService) FetchReadme(ctx context.Context, ref model.RepositoryReference) (string, error) {
	if !s.githubRateLimiter.Allow() {
		return "", ErrRateLimitReached
	}

	readme, _, err := s.githubClient.Repositories.GetReadme(ctx, ref.Owner, ref.Name, nil)
	if err != nil {
		return "", s.HandleRequestErrors(err)
	}

	content, err := readme.GetContent()
	if err != nil {
		return "", fmt.Errorf("unable to decode readme: %w", err)
	}

	return content, nil
}

// ListRootFileNames returns the names of the entries at the root of the default branch
func (s githubService) ListRootFileNames(ctx context.Context, ref model.RepositoryReference) ([]string, error) {
	if !s.githubRateLimiter.Allow() {
		return nil, ErrRateLimitReached
	}

	_, entries, _, err := s.githubClient.Repositories.GetContents(ctx, ref.Owner, ref.Name, "", nil)
	if err != nil {
		return nil, s.HandleRequestErrors(err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry != nil && entry.GetName() != "" {
			names = append(names, entry.GetName())
		}
	}

	return names, nil
}

// ListUserRepositories walks every page of repositories visible to the token owner.
// These requests count against the user's own github quota, not the local rate limiter.
func (s githubService) ListUserRepositories(ctx context.Context, accessToken string) ([]model.UserRepositorySummary, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, &model.AuthError{Kind: model.ErrMissingToken}
	}

	userClient := github.NewClient(s.httpClient).WithAuthToken(accessToken)

	opts := &github.RepositoryListByAuthenticatedUserOptions{
		ListOptions: github.ListOptions{
			Page:    1,
			PerPage: 100,
		},
	}

	summaries := make([]model.UserRepositorySummary, 0)

	for {
		repos, resp, err := userClient.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			log.WithError(err).Error("unable to list repositories of the authenticated user")
			return nil, &model.AuthError{Kind: model.ErrUpstreamFailure, Detail: err.Error()}
		}

		for _, r := range repos {
			if r == nil {
				continue
			}

			summaries = append(summaries, model.UserRepositorySummary{
				ID:          r.GetID(),
				Name:        r.GetName(),
				FullName:    r.GetFullName(),
				Description: r.Description,
				Language:    r.Language,
				Private:     r.GetPrivate(),
				Fork:        r.GetFork(),
				UpdatedAt:   r.GetUpdatedAt().Time,
				Stars:       r.GetStargazersCount(),
				Forks:       r.GetForksCount(),
			})
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	log.WithField("numberOfRepositories", len(summaries)).Debug("repositories of the authenticated user loaded")

	return summaries, nil
}

// HandleRequestErrors manage errors including github rate limit errors at the same location
// If error is a rate limit error, this function will update the local rate limiter to consume all available requests
// this can help us to keep the local rate limiter up to date
func (s githubService) HandleRequestErrors(err error) error {
	var rateLimitErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError

	if errors.As(err, &rateLimitErr) || errors.As(err, &abuseErr) {
		// reserving the whole burst drains the bucket even when some tokens are already spent
		s.githubRateLimiter.ReserveN(time.Now(), s.githubRateLimiter.Burst())

		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
		return fmt.Errorf("%w: %s", ErrRateLimitReached, err.Error())
	}

	log.WithError(err).Debug("error catched when fetching data from github")
	return err
}

func (s githubService) maxParallelTasks() int {
	if s.config.Tasks.MaxParallelTasksAllowed <= 0 {
		return 1
	}

	return s.config.Tasks.MaxParallelTasksAllowed
}
