package notion

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/pageza/recipe-pages/backend/internal/types"
)

//go:embed templates/*.json
var templateFS embed.FS

// Positions of the recipe template blocks filled per recipe
const (
	videoBlockIndex       = 1
	ingredientsBlockIndex = 3

	// the heading and the embed are kept or dropped together
	videoBlockCount = 2
)

// pageTemplate is the parsed, read-only shape of a page template
type pageTemplate struct {
	Parent   Parent  `json:"parent"`
	Icon     *Icon   `json:"icon,omitempty"`
	Children []Block `json:"children"`
}

// Templates builds page requests from the keyword and recipe templates.
// The templates are never modified after parsing.
type Templates struct {
	keyword pageTemplate
	recipe  pageTemplate
}

// LoadTemplates parses the embedded page templates
func LoadTemplates() (*Templates, error) {
	keyword, err := templateFS.ReadFile("templates/keyword_page.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword template: %w", err)
	}
	recipe, err := templateFS.ReadFile("templates/recipe_page.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe template: %w", err)
	}
	return ParseTemplates(keyword, recipe)
}

// ParseTemplates parses and validates the two page templates
func ParseTemplates(keywordJSON, recipeJSON []byte) (*Templates, error) {
	t := &Templates{}
	if err := json.Unmarshal(keywordJSON, &t.keyword); err != nil {
		return nil, fmt.Errorf("failed to parse keyword template: %w", err)
	}
	if err := json.Unmarshal(recipeJSON, &t.recipe); err != nil {
		return nil, fmt.Errorf("failed to parse recipe template: %w", err)
	}

	children := t.recipe.Children
	if len(children) <= ingredientsBlockIndex {
		return nil, fmt.Errorf("recipe template needs at least %d blocks, has %d", ingredientsBlockIndex+1, len(children))
	}
	if children[videoBlockIndex].Type != "video" {
		return nil, fmt.Errorf("recipe template block %d must be a video block, got %q", videoBlockIndex, children[videoBlockIndex].Type)
	}
	if children[ingredientsBlockIndex].Type != "paragraph" {
		return nil, fmt.Errorf("recipe template block %d must be a paragraph block, got %q", ingredientsBlockIndex, children[ingredientsBlockIndex].Type)
	}
	if err := checkBlocks("keyword", t.keyword.Children); err != nil {
		return nil, err
	}
	if err := checkBlocks("recipe", children); err != nil {
		return nil, err
	}
	return t, nil
}

// checkBlocks rejects blocks that Block cannot carry back to the API
func checkBlocks(name string, blocks []Block) error {
	for i, b := range blocks {
		if !b.hasContent() {
			return fmt.Errorf("%s template block %d: unsupported block type %q", name, i, b.Type)
		}
	}
	return nil
}

// KeywordPage builds the parent page for a search keyword. A zero parent
// falls back to the template's parent.
func (t *Templates) KeywordPage(parent Parent, keyword string) *CreatePageRequest {
	if parent.Type == "" {
		parent = t.keyword.Parent
	}
	return &CreatePageRequest{
		Parent:     parent,
		Icon:       t.keyword.Icon,
		Properties: Properties{Title: TextRuns(keyword)},
		Children:   append([]Block(nil), t.keyword.Children...),
	}
}

// RecipePage builds the child page of one recipe under parentID. Template
// blocks come first, followed by one paragraph per instruction. Without a
// video the two video blocks are left out; without an image there is no cover.
func (t *Templates) RecipePage(parentID string, recipe types.Recipe) *CreatePageRequest {
	tmpl := t.recipe.Children
	children := make([]Block, 0, len(tmpl)+len(recipe.Instructions))

	for i, block := range tmpl {
		switch {
		case i < videoBlockCount && !recipe.HasVideo():
			continue
		case i == videoBlockIndex:
			block = VideoBlock(recipe.Video)
		case i == ingredientsBlockIndex:
			block = ParagraphBlock(recipe.Ingredients)
		}
		children = append(children, block)
	}

	for _, line := range recipe.Instructions {
		children = append(children, ParagraphBlock(line))
	}

	req := &CreatePageRequest{
		Parent:     PageParent(parentID),
		Icon:       t.recipe.Icon,
		Properties: Properties{Title: TextRuns(recipe.Name)},
		Children:   children,
	}
	if recipe.HasImage() {
		req.Cover = ExternalFile(recipe.Image)
	}
	return req
}
