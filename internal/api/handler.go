// Package api holds the browser-facing handlers of the search and publish flow.
package api

import (
	_ "embed"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/recipe-pages/backend/internal/middleware"
	"github.com/pageza/recipe-pages/backend/internal/service"
	"github.com/pageza/recipe-pages/backend/internal/types"
	apperrors "github.com/pageza/recipe-pages/backend/pkg/errors"
)

//go:embed html/form.html
var formPage []byte

// RecipeHandler serves the form, the search and the OAuth callback
type RecipeHandler struct {
	flow            service.IRecipeFlow
	redirectBaseURL string
	logger          *zap.Logger
}

// NewRecipeHandler creates a new RecipeHandler instance. An empty
// redirectBaseURL derives the callback URL from the request Host.
func NewRecipeHandler(flow service.IRecipeFlow, redirectBaseURL string, logger *zap.Logger) *RecipeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeHandler{
		flow:            flow,
		redirectBaseURL: strings.TrimSuffix(redirectBaseURL, "/"),
		logger:          logger,
	}
}

// Form serves the search form
func (h *RecipeHandler) Form(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", formPage)
}

// Search looks up the keyword and sends the browser either to the
// authorization page or to the published keyword page
func (h *RecipeHandler) Search(c *gin.Context) {
	var req types.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		_ = c.Error(apperrors.NewBadRequestError("Empty Search"))
		return
	}

	out, err := h.flow.Search(c.Request.Context(), req.Keyword, h.redirectURI(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Redirect(http.StatusFound, out.RedirectURL)
}

// Callback receives the authorization code and publishes the session's recipes
func (h *RecipeHandler) Callback(c *gin.Context) {
	var req types.CallbackRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		_ = c.Error(apperrors.NewUnauthorizedError(""))
		return
	}

	out, err := h.flow.Callback(c.Request.Context(), req.Code, req.State, h.redirectURI(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Redirect(http.StatusFound, out.RedirectURL)
}

// NotFound renders the 404 page
func (h *RecipeHandler) NotFound(c *gin.Context) {
	middleware.ErrorPage(c, apperrors.NewNotFoundError(""))
}

func (h *RecipeHandler) redirectURI(c *gin.Context) string {
	if h.redirectBaseURL != "" {
		return h.redirectBaseURL + "/auth"
	}
	return "http://" + c.Request.Host + "/auth"
}
