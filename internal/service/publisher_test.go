package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/pageza/recipe-pages/backend/internal/mocks"
	"github.com/pageza/recipe-pages/backend/internal/notion"
	"github.com/pageza/recipe-pages/backend/internal/service"
	"github.com/pageza/recipe-pages/backend/internal/types"
	apperrors "github.com/pageza/recipe-pages/backend/pkg/errors"
)

var pastaRecipes = []types.Recipe{
	{Name: "Pasta Bake", Ingredients: "200g pasta", Instructions: []string{"Boil.", "Bake."}, Image: "https://img.example/1.jpg", Video: "https://yt.example/1"},
	{Name: "Pasta Salad", Ingredients: "1 tomato", Instructions: []string{"Chop."}},
	{Name: "Pasta Soup", Ingredients: "1l stock", Instructions: []string{"Simmer."}},
}

func newTemplates(t *testing.T) *notion.Templates {
	t.Helper()
	tmpl, err := notion.LoadTemplates()
	require.NoError(t, err)
	return tmpl
}

func isKeywordPage(keyword string) func(*notion.CreatePageRequest) bool {
	return func(req *notion.CreatePageRequest) bool {
		if req.Parent.PageID == "kw-1" {
			return false
		}
		return req.Properties.Title[0].Text.Content == keyword
	}
}

func isRecipePage(name string) func(*notion.CreatePageRequest) bool {
	return func(req *notion.CreatePageRequest) bool {
		return req.Parent.PageID == "kw-1" && req.Properties.Title[0].Text.Content == name
	}
}

func TestPublishCreatesPagesInOrder(t *testing.T) {
	pages := new(mocks.MockPageClient)
	token := &oauth2.Token{AccessToken: "tok"}
	var order []string

	pages.On("CreatePage", mock.Anything, token, mock.MatchedBy(isKeywordPage("pasta"))).
		Return(&notion.Page{ID: "kw-1", URL: "https://notion.example/kw-1"}, nil).Once()
	for _, r := range pastaRecipes {
		name := r.Name
		pages.On("CreatePage", mock.Anything, token, mock.MatchedBy(isRecipePage(name))).
			Run(func(args mock.Arguments) { order = append(order, name) }).
			Return(&notion.Page{ID: "p-" + name}, nil).Once()
	}

	pub := service.NewPublisher(pages, newTemplates(t), service.PublisherOptions{Parent: notion.PageParent("root")}, nil)
	page, err := pub.Publish(context.Background(), token, "pasta", pastaRecipes)
	require.NoError(t, err)

	assert.Equal(t, "https://notion.example/kw-1", page.URL)
	assert.Equal(t, []string{"Pasta Bake", "Pasta Salad", "Pasta Soup"}, order)
	pages.AssertNumberOfCalls(t, "CreatePage", 1+len(pastaRecipes))
	pages.AssertNotCalled(t, "ArchivePage", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishKeywordPageFailure(t *testing.T) {
	pages := new(mocks.MockPageClient)
	pages.On("CreatePage", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &notion.APIError{Object: "error", Status: 400, Code: "validation_error"}).Once()

	pub := service.NewPublisher(pages, newTemplates(t), service.PublisherOptions{ArchiveOnFailure: true}, nil)
	_, err := pub.Publish(context.Background(), &oauth2.Token{AccessToken: "tok"}, "pasta", pastaRecipes)

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeUpstreamRejection))
	assert.Equal(t, "Failed to Create Keyword Page", err.(*apperrors.AppError).Message)
	assert.False(t, errors.Is(err, service.ErrTokenRejected))
	pages.AssertNumberOfCalls(t, "CreatePage", 1)
	pages.AssertNotCalled(t, "ArchivePage", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishKeywordPageTokenRejected(t *testing.T) {
	pages := new(mocks.MockPageClient)
	pages.On("CreatePage", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &notion.APIError{Object: "error", Status: 401, Code: "unauthorized"}).Once()

	pub := service.NewPublisher(pages, newTemplates(t), service.PublisherOptions{}, nil)
	_, err := pub.Publish(context.Background(), &oauth2.Token{AccessToken: "tok"}, "pasta", pastaRecipes)

	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrTokenRejected)
	var apiErr *notion.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestPublishHaltsOnRecipeFailure(t *testing.T) {
	for _, archive := range []bool{false, true} {
		pages := new(mocks.MockPageClient)
		token := &oauth2.Token{AccessToken: "tok"}

		pages.On("CreatePage", mock.Anything, token, mock.MatchedBy(isKeywordPage("pasta"))).
			Return(&notion.Page{ID: "kw-1", URL: "https://notion.example/kw-1"}, nil).Once()
		pages.On("CreatePage", mock.Anything, token, mock.MatchedBy(isRecipePage("Pasta Bake"))).
			Return(&notion.Page{ID: "p-1"}, nil).Once()
		pages.On("CreatePage", mock.Anything, token, mock.MatchedBy(isRecipePage("Pasta Salad"))).
			Return(nil, &notion.APIError{Object: "error", Status: 400, Code: "validation_error"}).Once()
		if archive {
			pages.On("ArchivePage", mock.Anything, token, "kw-1").Return(nil).Once()
		}

		pub := service.NewPublisher(pages, newTemplates(t), service.PublisherOptions{Parent: notion.PageParent("root"), ArchiveOnFailure: archive}, nil)
		_, err := pub.Publish(context.Background(), token, "pasta", pastaRecipes)

		require.Error(t, err)
		appErr := err.(*apperrors.AppError)
		assert.Equal(t, apperrors.CodeUpstreamRejection, appErr.Code)
		assert.Equal(t, "Failed to Create Recipe Page", appErr.Message)
		assert.Equal(t, "recipe 2 of 3", appErr.Details)

		pages.AssertNumberOfCalls(t, "CreatePage", 3)
		pages.AssertNotCalled(t, "CreatePage", mock.Anything, mock.Anything, mock.MatchedBy(isRecipePage("Pasta Soup")))
		if archive {
			pages.AssertCalled(t, "ArchivePage", mock.Anything, token, "kw-1")
		} else {
			pages.AssertNotCalled(t, "ArchivePage", mock.Anything, mock.Anything, mock.Anything)
		}
	}
}

func TestPublishMirrorsCovers(t *testing.T) {
	pages := new(mocks.MockPageClient)
	covers := new(mocks.MockCoverMirror)
	token := &oauth2.Token{AccessToken: "tok"}

	covers.On("Mirror", mock.Anything, "https://img.example/1.jpg").Return("https://bucket.example/c.jpg").Once()
	pages.On("CreatePage", mock.Anything, token, mock.MatchedBy(isKeywordPage("pasta"))).
		Return(&notion.Page{ID: "kw-1", URL: "u"}, nil).Once()
	pages.On("CreatePage", mock.Anything, token, mock.MatchedBy(func(req *notion.CreatePageRequest) bool {
		return req.Parent.PageID == "kw-1" && req.Cover != nil && req.Cover.External.URL == "https://bucket.example/c.jpg"
	})).Return(&notion.Page{ID: "p-1"}, nil).Once()

	pub := service.NewPublisher(pages, newTemplates(t), service.PublisherOptions{Parent: notion.PageParent("root"), Covers: covers}, nil)
	_, err := pub.Publish(context.Background(), token, "pasta", pastaRecipes[:1])
	require.NoError(t, err)

	covers.AssertExpectations(t)
	pages.AssertExpectations(t)
	assert.Equal(t, "https://img.example/1.jpg", pastaRecipes[0].Image, "input recipes are not modified")
}
