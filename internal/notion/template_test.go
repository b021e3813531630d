package notion

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipe-pages/backend/internal/types"
)

func loadTemplates(t *testing.T) *Templates {
	t.Helper()
	tmpl, err := LoadTemplates()
	require.NoError(t, err)
	return tmpl
}

func blockTypes(blocks []Block) []string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Type)
	}
	return out
}

func TestKeywordPage(t *testing.T) {
	tmpl := loadTemplates(t)

	req := tmpl.KeywordPage(PageParent("root-page"), "pasta")
	assert.Equal(t, Parent{Type: "page_id", PageID: "root-page"}, req.Parent)
	require.Len(t, req.Properties.Title, 1)
	assert.Equal(t, "pasta", req.Properties.Title[0].Text.Content)
	assert.Nil(t, req.Cover)

	req = tmpl.KeywordPage(Parent{}, "soup")
	assert.Equal(t, WorkspaceParent(), req.Parent)
}

func TestRecipePageWithVideoAndImage(t *testing.T) {
	tmpl := loadTemplates(t)
	recipe := types.Recipe{
		Name:         "Pasta Bake",
		Ingredients:  "200g pasta\n50g cheese",
		Instructions: []string{"Boil.", "Bake."},
		Image:        "https://img.example/1.jpg",
		Video:        "https://www.youtube.com/watch?v=1",
	}

	req := tmpl.RecipePage("parent-id", recipe)

	assert.Equal(t, PageParent("parent-id"), req.Parent)
	assert.Equal(t, "Pasta Bake", req.Properties.Title[0].Text.Content)
	require.NotNil(t, req.Cover)
	assert.Equal(t, "https://img.example/1.jpg", req.Cover.External.URL)

	assert.Equal(t, []string{"heading_2", "video", "heading_2", "paragraph", "heading_2", "paragraph", "paragraph"}, blockTypes(req.Children))
	assert.Equal(t, "https://www.youtube.com/watch?v=1", req.Children[1].Video.External.URL)
	assert.Equal(t, "200g pasta\n50g cheese", req.Children[3].Paragraph.RichText[0].Text.Content)
	assert.Equal(t, "Boil.", req.Children[5].Paragraph.RichText[0].Text.Content)
	assert.Equal(t, "Bake.", req.Children[6].Paragraph.RichText[0].Text.Content)
}

func TestRecipePageWithoutVideo(t *testing.T) {
	tmpl := loadTemplates(t)
	recipe := types.Recipe{
		Name:         "Pasta Salad",
		Ingredients:  "1 tomato",
		Instructions: []string{"Chop."},
		Image:        "",
		Video:        "",
	}

	req := tmpl.RecipePage("parent-id", recipe)

	assert.Nil(t, req.Cover)
	assert.Equal(t, []string{"heading_2", "paragraph", "heading_2", "paragraph"}, blockTypes(req.Children))
	for _, b := range req.Children {
		assert.Nil(t, b.Video)
	}
	assert.Equal(t, "Ingredients", req.Children[0].Heading2.RichText[0].Text.Content)
	assert.Equal(t, "1 tomato", req.Children[1].Paragraph.RichText[0].Text.Content)

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"cover"`)
	assert.NotContains(t, string(raw), `"video"`)
}

func TestRecipePageDoesNotMutateTemplate(t *testing.T) {
	tmpl := loadTemplates(t)

	first := tmpl.RecipePage("a", types.Recipe{Name: "One", Ingredients: "x", Video: "https://v.example/1", Instructions: []string{"1"}})
	second := tmpl.RecipePage("b", types.Recipe{Name: "Two", Ingredients: "y", Video: "https://v.example/2"})

	assert.Equal(t, "https://v.example/1", first.Children[1].Video.External.URL)
	assert.Equal(t, "https://v.example/2", second.Children[1].Video.External.URL)
	assert.Equal(t, "x", first.Children[3].Paragraph.RichText[0].Text.Content)
	assert.Len(t, second.Children, 5)

	assert.Equal(t, "", tmpl.recipe.Children[videoBlockIndex].Video.External.URL)
	assert.Empty(t, tmpl.recipe.Children[ingredientsBlockIndex].Paragraph.RichText)
}

func TestParseTemplatesValidation(t *testing.T) {
	keyword := []byte(`{"parent":{"type":"workspace","workspace":true},"children":[]}`)

	_, err := ParseTemplates(keyword, []byte(`{"children":[{"type":"paragraph"}]}`))
	assert.ErrorContains(t, err, "at least")

	_, err = ParseTemplates(keyword, []byte(`{"children":[{"type":"heading_2"},{"type":"paragraph"},{"type":"heading_2"},{"type":"paragraph"}]}`))
	assert.ErrorContains(t, err, "video")

	_, err = ParseTemplates(keyword, []byte(`{"children":[{"type":"heading_2"},{"type":"video"},{"type":"heading_2"},{"type":"quote"}]}`))
	assert.ErrorContains(t, err, "paragraph")

	_, err = ParseTemplates([]byte(`{`), []byte(`{}`))
	assert.ErrorContains(t, err, "keyword template")
}

func TestParseTemplatesRejectsUnsupportedBlocks(t *testing.T) {
	recipe := func(last string) []byte {
		return []byte(`{"children":[
			{"type":"heading_2","heading_2":{"rich_text":[]}},
			{"type":"video","video":{"type":"external","external":{"url":""}}},
			{"type":"divider","divider":{}},
			{"type":"paragraph","paragraph":{"rich_text":[]}},
			` + last + `]}`)
	}
	keyword := func(block string) []byte {
		return []byte(`{"parent":{"type":"workspace","workspace":true},"children":[` + block + `]}`)
	}
	quote := `{"type":"quote","quote":{"rich_text":[]}}`

	_, err := ParseTemplates(keyword(quote), recipe(quote))
	require.NoError(t, err)

	_, err = ParseTemplates(keyword(quote), recipe(`{"type":"bulleted_list_item","bulleted_list_item":{"rich_text":[]}}`))
	assert.ErrorContains(t, err, `recipe template block 4: unsupported block type "bulleted_list_item"`)

	_, err = ParseTemplates(keyword(`{"type":"to_do","to_do":{"rich_text":[]}}`), recipe(quote))
	assert.ErrorContains(t, err, `keyword template block 0: unsupported block type "to_do"`)

	_, err = ParseTemplates(keyword(quote), recipe(`{"type":"heading_3"}`))
	assert.ErrorContains(t, err, `unsupported block type "heading_3"`)
}

func TestTextRunsSplitsLongContent(t *testing.T) {
	long := strings.Repeat("é", MaxRichTextLength*2+5)

	runs := TextRuns(long)
	require.Len(t, runs, 3)
	assert.Equal(t, MaxRichTextLength, len([]rune(runs[0].Text.Content)))
	assert.Equal(t, MaxRichTextLength, len([]rune(runs[1].Text.Content)))
	assert.Equal(t, 5, len([]rune(runs[2].Text.Content)))

	var joined strings.Builder
	for _, r := range runs {
		joined.WriteString(r.Text.Content)
	}
	assert.Equal(t, long, joined.String())

	assert.Len(t, TextRuns(""), 1)
}
