package notion

import "fmt"

// MaxRichTextLength is the most characters one rich text run may hold
const MaxRichTextLength = 2000

// MaxChildrenPerRequest is the most blocks one create or append call may carry
const MaxChildrenPerRequest = 100

type Text struct {
	Content string `json:"content"`
}

type RichText struct {
	Type string `json:"type,omitempty"`
	Text *Text  `json:"text,omitempty"`
}

type External struct {
	URL string `json:"url"`
}

// FileObject is an external file reference used for covers and videos
type FileObject struct {
	Type     string    `json:"type"`
	External *External `json:"external,omitempty"`
}

type Icon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji,omitempty"`
}

// Parent locates a page under another page or at the workspace root
type Parent struct {
	Type      string `json:"type"`
	PageID    string `json:"page_id,omitempty"`
	Workspace bool   `json:"workspace,omitempty"`
}

type RichTextBlock struct {
	RichText []RichText `json:"rich_text"`
}

// Block is a child block of a page. Exactly one content field matches Type.
type Block struct {
	Object    string         `json:"object,omitempty"`
	Type      string         `json:"type"`
	Heading1  *RichTextBlock `json:"heading_1,omitempty"`
	Heading2  *RichTextBlock `json:"heading_2,omitempty"`
	Heading3  *RichTextBlock `json:"heading_3,omitempty"`
	Paragraph *RichTextBlock `json:"paragraph,omitempty"`
	Quote     *RichTextBlock `json:"quote,omitempty"`
	Video     *FileObject    `json:"video,omitempty"`
	Image     *FileObject    `json:"image,omitempty"`
	Divider   *struct{}      `json:"divider,omitempty"`
}

// hasContent reports whether the content field named by Type is set
func (b Block) hasContent() bool {
	switch b.Type {
	case "heading_1":
		return b.Heading1 != nil
	case "heading_2":
		return b.Heading2 != nil
	case "heading_3":
		return b.Heading3 != nil
	case "paragraph":
		return b.Paragraph != nil
	case "quote":
		return b.Quote != nil
	case "video":
		return b.Video != nil
	case "image":
		return b.Image != nil
	case "divider":
		return b.Divider != nil
	default:
		return false
	}
}

// Properties holds the title of a page whose parent is a page or workspace
type Properties struct {
	Title []RichText `json:"title"`
}

// CreatePageRequest is the body of POST /pages
type CreatePageRequest struct {
	Parent     Parent      `json:"parent"`
	Icon       *Icon       `json:"icon,omitempty"`
	Cover      *FileObject `json:"cover,omitempty"`
	Properties Properties  `json:"properties"`
	Children   []Block     `json:"children,omitempty"`
}

// Page is the subset of a page object the publisher needs
type Page struct {
	Object string `json:"object"`
	ID     string `json:"id"`
	URL    string `json:"url"`
}

// APIError is the error document the API returns instead of an object
type APIError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion API error %d %s: %s", e.Status, e.Code, e.Message)
}

// Unauthorized reports whether the token was rejected
func (e *APIError) Unauthorized() bool {
	return e.Status == 401 || e.Code == "unauthorized"
}

// TextRuns splits content into rich text runs of at most MaxRichTextLength characters
func TextRuns(content string) []RichText {
	runes := []rune(content)
	if len(runes) == 0 {
		return []RichText{{Type: "text", Text: &Text{Content: ""}}}
	}

	runs := make([]RichText, 0, len(runes)/MaxRichTextLength+1)
	for len(runes) > 0 {
		n := len(runes)
		if n > MaxRichTextLength {
			n = MaxRichTextLength
		}
		runs = append(runs, RichText{Type: "text", Text: &Text{Content: string(runes[:n])}})
		runes = runes[n:]
	}
	return runs
}

// ParagraphBlock returns a paragraph holding content
func ParagraphBlock(content string) Block {
	return Block{
		Object:    "block",
		Type:      "paragraph",
		Paragraph: &RichTextBlock{RichText: TextRuns(content)},
	}
}

// VideoBlock returns an external video embed
func VideoBlock(url string) Block {
	return Block{
		Object: "block",
		Type:   "video",
		Video:  &FileObject{Type: "external", External: &External{URL: url}},
	}
}

// ExternalFile returns an external file reference, as used by page covers
func ExternalFile(url string) *FileObject {
	return &FileObject{Type: "external", External: &External{URL: url}}
}

// PageParent returns a parent reference to the page with id
func PageParent(id string) Parent {
	return Parent{Type: "page_id", PageID: id}
}

// WorkspaceParent returns a parent reference to the workspace root
func WorkspaceParent() Parent {
	return Parent{Type: "workspace", Workspace: true}
}
