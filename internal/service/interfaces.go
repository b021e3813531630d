package service

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/pageza/recipe-pages/backend/internal/notion"
	"github.com/pageza/recipe-pages/backend/internal/tokencache"
	"github.com/pageza/recipe-pages/backend/internal/types"
)

// PageClient is the part of the page API the publisher uses
type PageClient interface {
	CreatePage(ctx context.Context, token *oauth2.Token, req *notion.CreatePageRequest) (*notion.Page, error)
	ArchivePage(ctx context.Context, token *oauth2.Token, pageID string) error
}

// CoverMirror rehosts cover images. It returns the original URL on failure.
type CoverMirror interface {
	Mirror(ctx context.Context, imageURL string) string
}

// IOAuthService defines the interface for the authorization flow
type IOAuthService interface {
	Begin(ctx context.Context, state, redirectURI string) *AuthResult
	AuthURL(state, redirectURI string) string
	Exchange(ctx context.Context, code, redirectURI string) (*tokencache.Token, error)
	PurgeToken()
}

// IPublisher defines the interface for publishing search results
type IPublisher interface {
	Publish(ctx context.Context, token *oauth2.Token, keyword string, recipes []types.Recipe) (*notion.Page, error)
}

// IRecipeFlow defines the interface the HTTP handlers drive
type IRecipeFlow interface {
	Search(ctx context.Context, keyword, redirectURI string) (*Outcome, error)
	Callback(ctx context.Context, code, state, redirectURI string) (*Outcome, error)
}
