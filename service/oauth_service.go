package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rmgen/rmgen-backend/config"
	"github.com/rmgen/rmgen-backend/model"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

// scopes requested to github, the client needs private repositories and the user profile
var oauthScopes = []string{"repo", "read:user"}

type OAuthBroker interface {
	AuthorizationURL() (string, error)
	ExchangeCode(ctx context.Context, code string) (*model.OAuthToken, error)
}

type oauthBroker struct {
	oauthConfig *oauth2.Config
	httpClient  *http.Client
}

// NewOAuthBroker targets github.com authorization endpoints
func NewOAuthBroker(cfg config.Config, httpClient *http.Client) OAuthBroker {
	return NewOAuthBrokerWithEndpoint(cfg.OAuth, githuboauth.Endpoint, httpClient)
}

// NewOAuthBrokerWithEndpoint allows github enterprise or test endpoints.
// client credentials are always sent in the request body, as github documents it.
func NewOAuthBrokerWithEndpoint(cfg config.OAuthConfig, endpoint oauth2.Endpoint, httpClient *http.Client) OAuthBroker {
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return oauthBroker{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       oauthScopes,
			Endpoint:     endpoint,
		},
		httpClient: httpClient,
	}
}

func (b oauthBroker) AuthorizationURL() (string, error) {
	if b.oauthConfig.ClientID == "" {
		log.Error("GitHub OAuth not configured: client id is missing")
		return "", &model.ConfigError{Kind: model.ErrMissingClientID}
	}

	return b.oauthConfig.AuthCodeURL(""), nil
}

// ExchangeCode performs a single POST to the token endpoint, the token is never kept
func (b oauthBroker) ExchangeCode(ctx context.Context, code string) (*model.OAuthToken, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &model.OAuthError{Kind: model.ErrMissingCode}
	}

	if b.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	}

	token, err := b.oauthConfig.Exchange(ctx, code)
	if err != nil {
		oauthErr := classifyExchangeError(err)
		log.WithError(err).WithField("kind", oauthErr.Kind).Warning("github oauth code exchange failed")
		return nil, oauthErr
	}

	if token.AccessToken == "" {
		return nil, &model.OAuthError{Kind: model.ErrTokenMissing}
	}

	log.Debug("github oauth code exchanged for an access token")

	return &model.OAuthToken{AccessToken: token.AccessToken}, nil
}

func classifyExchangeError(err error) *model.OAuthError {
	var retrieveErr *oauth2.RetrieveError

	if errors.As(err, &retrieveErr) {
		// github answers 200 with an error field for bad or expired codes
		if retrieveErr.ErrorCode != "" {
			detail := retrieveErr.ErrorDescription
			if detail == "" {
				detail = retrieveErr.ErrorCode
			}

			return &model.OAuthError{Kind: model.ErrDenied, Detail: detail}
		}

		return &model.OAuthError{Kind: model.ErrNetwork, Detail: err.Error()}
	}

	// x/oauth2 has no sentinel for a successful response without token
	if strings.Contains(err.Error(), "missing access_token") {
		return &model.OAuthError{Kind: model.ErrTokenMissing, Detail: err.Error()}
	}

	return &model.OAuthError{Kind: model.ErrNetwork, Detail: err.Error()}
}
