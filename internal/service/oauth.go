package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/pageza/recipe-pages/backend/config"
	"github.com/pageza/recipe-pages/backend/internal/metrics"
	"github.com/pageza/recipe-pages/backend/internal/tokencache"
	apperrors "github.com/pageza/recipe-pages/backend/pkg/errors"
)

// AuthStep is a state of the authorization flow
type AuthStep string

const (
	StepNoToken        AuthStep = "NO_TOKEN"
	StepRedirecting    AuthStep = "REDIRECTING"
	StepCodeReceived   AuthStep = "CODE_RECEIVED"
	StepTokenExchanged AuthStep = "TOKEN_EXCHANGED"
)

// AuthResult is the outcome of starting the flow: either a usable token or
// a URL to send the browser to
type AuthResult struct {
	Step        AuthStep
	RedirectURL string
	Token       *tokencache.Token
}

// tokenRequest is the JSON body of the token endpoint
type tokenRequest struct {
	GrantType   string `json:"grant_type"`
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// OAuthService drives the authorization code flow against the page API
type OAuthService struct {
	oauth  oauth2.Config
	cache  tokencache.Cache
	client *http.Client
	logger *zap.Logger
}

// NewOAuthService creates a new OAuthService instance
func NewOAuthService(cfg config.OAuthConfig, cache tokencache.Cache, timeout time.Duration, logger *zap.Logger) *OAuthService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OAuthService{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		cache:  cache,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Begin short-circuits to TOKEN_EXCHANGED when a usable token is cached,
// otherwise returns the authorization URL for state
func (s *OAuthService) Begin(_ context.Context, state, redirectURI string) *AuthResult {
	tok, err := s.cache.Load()
	metrics.TokenCacheLookup(err == nil)
	if err == nil {
		return &AuthResult{Step: StepTokenExchanged, Token: tok}
	}

	return &AuthResult{
		Step:        StepRedirecting,
		RedirectURL: s.AuthURL(state, redirectURI),
	}
}

// AuthURL builds the authorization endpoint URL carrying client_id,
// redirect_uri, response_type=code, owner=user and state
func (s *OAuthService) AuthURL(state, redirectURI string) string {
	cfg := s.oauth
	cfg.RedirectURL = redirectURI
	return cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("owner", "user"))
}

// Exchange trades an authorization code for an access token. The raw
// response is written to the token cache; a failed write is only logged.
func (s *OAuthService) Exchange(ctx context.Context, code, redirectURI string) (tok *tokencache.Token, err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(metrics.TargetNotionOAuth, start, err) }()

	payload, err := json.Marshal(tokenRequest{
		GrantType:   "authorization_code",
		Code:        code,
		RedirectURI: redirectURI,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("").WithCause(fmt.Errorf("failed to marshal token request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.oauth.Endpoint.TokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.NewInternalError("").WithCause(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.oauth.ClientID, s.oauth.ClientSecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Failed to Get Access Token").WithCause(fmt.Errorf("failed to send request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Failed to Get Access Token").WithCause(fmt.Errorf("failed to read response: %w", err))
	}

	tok, err = tokencache.ParseToken(raw)
	if err != nil || tok.AccessToken == "" {
		if err == nil {
			err = fmt.Errorf("token endpoint returned status %d without access_token", resp.StatusCode)
		}
		return nil, apperrors.NewUnauthorizedError("Failed to Get Access Token").WithCause(err)
	}
	if tok.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}

	if err := s.cache.Save(raw); err != nil {
		s.logger.Warn("Failed to cache access token", zap.Error(err))
	}

	s.logger.Info("Access token exchanged", zap.String("workspace", tok.WorkspaceName))
	return tok, nil
}

// PurgeToken drops the cached token after the page API rejected it
func (s *OAuthService) PurgeToken() {
	if err := s.cache.Remove(); err != nil {
		s.logger.Warn("Failed to remove rejected token", zap.Error(err))
	}
}
