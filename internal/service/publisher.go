package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/pageza/recipe-pages/backend/internal/metrics"
	"github.com/pageza/recipe-pages/backend/internal/notion"
	"github.com/pageza/recipe-pages/backend/internal/types"
	apperrors "github.com/pageza/recipe-pages/backend/pkg/errors"
)

// ErrTokenRejected marks a keyword page failure caused by an invalid token
var ErrTokenRejected = errors.New("page API rejected the access token")

const archiveTimeout = 10 * time.Second

// PublisherOptions configures a Publisher
type PublisherOptions struct {
	// Parent of keyword pages. Zero means the template's parent.
	Parent notion.Parent
	// ArchiveOnFailure archives the keyword page when a recipe page fails
	ArchiveOnFailure bool
	// Covers mirrors cover images before use. Nil keeps the original URLs.
	Covers CoverMirror
}

// Publisher creates one keyword page followed by one page per recipe
type Publisher struct {
	pages     PageClient
	templates *notion.Templates
	opts      PublisherOptions
	logger    *zap.Logger
}

// NewPublisher creates a new Publisher instance
func NewPublisher(pages PageClient, templates *notion.Templates, opts PublisherOptions, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		pages:     pages,
		templates: templates,
		opts:      opts,
		logger:    logger,
	}
}

// Publish creates the keyword page and then each recipe page in order,
// waiting for every response before the next call. The first error document
// stops the sequence.
func (p *Publisher) Publish(ctx context.Context, token *oauth2.Token, keyword string, recipes []types.Recipe) (*notion.Page, error) {
	parent, err := p.pages.CreatePage(ctx, token, p.templates.KeywordPage(p.opts.Parent, keyword))
	if err != nil {
		var apiErr *notion.APIError
		if errors.As(err, &apiErr) && apiErr.Unauthorized() {
			err = fmt.Errorf("%w: %w", ErrTokenRejected, err)
		}
		return nil, apperrors.NewUpstreamRejectionError("Failed to Create Keyword Page", err)
	}
	metrics.PageCreated("keyword")
	p.logger.Info("Keyword page created", zap.String("keyword", keyword), zap.String("page_id", parent.ID))

	for i, recipe := range recipes {
		if p.opts.Covers != nil && recipe.HasImage() {
			recipe.Image = p.opts.Covers.Mirror(ctx, recipe.Image)
		}

		page, err := p.pages.CreatePage(ctx, token, p.templates.RecipePage(parent.ID, recipe))
		if err != nil {
			p.cleanup(ctx, token, parent)
			return nil, apperrors.NewUpstreamRejectionError("Failed to Create Recipe Page", err).
				WithDetails(fmt.Sprintf("recipe %d of %d", i+1, len(recipes)))
		}
		metrics.PageCreated("recipe")
		p.logger.Debug("Recipe page created", zap.String("recipe", recipe.Name), zap.String("page_id", page.ID))
	}

	return parent, nil
}

// cleanup archives a partially populated keyword page when enabled.
// Failures are logged and otherwise ignored.
func (p *Publisher) cleanup(ctx context.Context, token *oauth2.Token, parent *notion.Page) {
	if !p.opts.ArchiveOnFailure {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	if err := p.pages.ArchivePage(ctx, token, parent.ID); err != nil {
		p.logger.Warn("Failed to archive keyword page", zap.String("page_id", parent.ID), zap.Error(err))
		return
	}
	p.logger.Info("Archived partially published keyword page", zap.String("page_id", parent.ID))
}
