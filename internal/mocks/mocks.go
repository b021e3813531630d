// Package mocks provides testify mocks of the service interfaces.
package mocks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"

	"github.com/pageza/recipe-pages/backend/internal/notion"
	"github.com/pageza/recipe-pages/backend/internal/service"
	"github.com/pageza/recipe-pages/backend/internal/tokencache"
	"github.com/pageza/recipe-pages/backend/internal/types"
)

// MockPageClient is a mock implementation of service.PageClient
type MockPageClient struct {
	mock.Mock
}

// CreatePage mocks the CreatePage method
func (m *MockPageClient) CreatePage(ctx context.Context, token *oauth2.Token, req *notion.CreatePageRequest) (*notion.Page, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.Page), args.Error(1)
}

// ArchivePage mocks the ArchivePage method
func (m *MockPageClient) ArchivePage(ctx context.Context, token *oauth2.Token, pageID string) error {
	args := m.Called(ctx, token, pageID)
	return args.Error(0)
}

// MockCoverMirror is a mock implementation of service.CoverMirror
type MockCoverMirror struct {
	mock.Mock
}

// Mirror mocks the Mirror method
func (m *MockCoverMirror) Mirror(ctx context.Context, imageURL string) string {
	args := m.Called(ctx, imageURL)
	return args.String(0)
}

// MockOAuthService is a mock implementation of service.IOAuthService
type MockOAuthService struct {
	mock.Mock
}

// Begin mocks the Begin method
func (m *MockOAuthService) Begin(ctx context.Context, state, redirectURI string) *service.AuthResult {
	args := m.Called(ctx, state, redirectURI)
	return args.Get(0).(*service.AuthResult)
}

// AuthURL mocks the AuthURL method
func (m *MockOAuthService) AuthURL(state, redirectURI string) string {
	args := m.Called(state, redirectURI)
	return args.String(0)
}

// Exchange mocks the Exchange method
func (m *MockOAuthService) Exchange(ctx context.Context, code, redirectURI string) (*tokencache.Token, error) {
	args := m.Called(ctx, code, redirectURI)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tokencache.Token), args.Error(1)
}

// PurgeToken mocks the PurgeToken method
func (m *MockOAuthService) PurgeToken() {
	m.Called()
}

// MockPublisher is a mock implementation of service.IPublisher
type MockPublisher struct {
	mock.Mock
}

// Publish mocks the Publish method
func (m *MockPublisher) Publish(ctx context.Context, token *oauth2.Token, keyword string, recipes []types.Recipe) (*notion.Page, error) {
	args := m.Called(ctx, token, keyword, recipes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.Page), args.Error(1)
}

// MockSearcher is a mock implementation of mealdb.Searcher
type MockSearcher struct {
	mock.Mock
}

// Search mocks the Search method
func (m *MockSearcher) Search(ctx context.Context, keyword string) ([]types.Recipe, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Recipe), args.Error(1)
}

// MockRecipeFlow is a mock implementation of service.IRecipeFlow
type MockRecipeFlow struct {
	mock.Mock
}

// Search mocks the Search method
func (m *MockRecipeFlow) Search(ctx context.Context, keyword, redirectURI string) (*service.Outcome, error) {
	args := m.Called(ctx, keyword, redirectURI)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Outcome), args.Error(1)
}

// Callback mocks the Callback method
func (m *MockRecipeFlow) Callback(ctx context.Context, code, state, redirectURI string) (*service.Outcome, error) {
	args := m.Called(ctx, code, state, redirectURI)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Outcome), args.Error(1)
}

// MockUploader is a mock implementation of service.ObjectUploader
type MockUploader struct {
	mock.Mock
}

// PutObject mocks the PutObject method
func (m *MockUploader) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}
