package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/recipe-pages/backend/internal/mealdb"
	"github.com/pageza/recipe-pages/backend/internal/metrics"
	"github.com/pageza/recipe-pages/backend/internal/session"
	"github.com/pageza/recipe-pages/backend/internal/tokencache"
	"github.com/pageza/recipe-pages/backend/internal/types"
	apperrors "github.com/pageza/recipe-pages/backend/pkg/errors"
)

// Outcome tells the handler where to send the browser
type Outcome struct {
	Step        AuthStep
	RedirectURL string
}

// RecipeService runs the search, authorize and publish flow
type RecipeService struct {
	sessions   session.Store
	searcher   mealdb.Searcher
	oauth      IOAuthService
	publisher  IPublisher
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(
	sessions session.Store,
	searcher mealdb.Searcher,
	oauth IOAuthService,
	publisher IPublisher,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *RecipeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeService{
		sessions:   sessions,
		searcher:   searcher,
		oauth:      oauth,
		publisher:  publisher,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// Search validates the keyword, fetches matching recipes into a new session
// and then either publishes with the cached token or redirects to authorize.
func (s *RecipeService) Search(ctx context.Context, rawKeyword, redirectURI string) (*Outcome, error) {
	keyword, err := mealdb.NormalizeKeyword(rawKeyword)
	if err != nil {
		return nil, err
	}

	sess, err := session.Create(ctx, s.sessions, keyword, s.sessionTTL)
	if err != nil {
		return nil, apperrors.NewInternalError("").WithCause(err)
	}
	metrics.SessionCreated()

	recipes, err := s.searcher.Search(ctx, keyword)
	if err != nil {
		s.discard(sess.State)
		return nil, err
	}
	if err := s.sessions.Attach(ctx, sess.State, recipes); err != nil {
		return nil, apperrors.NewInternalError("").WithCause(err)
	}

	auth := s.oauth.Begin(ctx, sess.State, redirectURI)
	if auth.Step != StepTokenExchanged {
		s.logger.Info("Redirecting to authorization", zap.String("keyword", keyword))
		return &Outcome{Step: StepRedirecting, RedirectURL: auth.RedirectURL}, nil
	}

	page, err := s.publish(ctx, auth.Token, keyword, recipes)
	if errors.Is(err, ErrTokenRejected) {
		// The cached token is stale; authorize again with the still-live session
		s.logger.Info("Cached token rejected, re-authorizing", zap.String("keyword", keyword))
		s.oauth.PurgeToken()
		return &Outcome{Step: StepRedirecting, RedirectURL: s.oauth.AuthURL(sess.State, redirectURI)}, nil
	}
	s.discard(sess.State)
	if err != nil {
		return nil, err
	}
	return &Outcome{Step: StepTokenExchanged, RedirectURL: page}, nil
}

// Callback checks code and state, consumes the matching session, exchanges
// the code and publishes the session's recipes.
func (s *RecipeService) Callback(ctx context.Context, code, state, redirectURI string) (*Outcome, error) {
	if code == "" || state == "" {
		return nil, apperrors.NewUnauthorizedError("")
	}

	sess, err := s.sessions.Take(ctx, state)
	if errors.Is(err, session.ErrNotFound) {
		return nil, apperrors.NewUnauthorizedError("")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("").WithCause(err)
	}
	s.logger.Debug("Authorization code received", zap.String("keyword", sess.Keyword), zap.String("step", string(StepCodeReceived)))

	tok, err := s.oauth.Exchange(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}

	page, err := s.publish(ctx, tok, sess.Keyword, sess.Recipes)
	if err != nil {
		return nil, err
	}
	return &Outcome{Step: StepTokenExchanged, RedirectURL: page}, nil
}

func (s *RecipeService) publish(ctx context.Context, tok *tokencache.Token, keyword string, recipes []types.Recipe) (string, error) {
	page, err := s.publisher.Publish(ctx, tok.OAuth2(), keyword, recipes)
	if err != nil {
		return "", err
	}
	s.logger.Info("Published recipes",
		zap.String("keyword", keyword),
		zap.Int("count", len(recipes)),
		zap.String("url", page.URL))
	return page.URL, nil
}

// discard removes a session that is no longer needed
func (s *RecipeService) discard(state string) {
	if err := s.sessions.Delete(context.Background(), state); err != nil {
		s.logger.Warn("Failed to delete session", zap.Error(err))
	}
}
