package types

// Recipe is one normalized search result, ready to be published as a page
type Recipe struct {
	Name         string   `json:"name"`
	Ingredients  string   `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Image        string   `json:"image"`
	Video        string   `json:"video"`
}

// HasImage reports whether the recipe carries a usable cover URL
func (r Recipe) HasImage() bool {
	return hasHTTPPrefix(r.Image)
}

// HasVideo reports whether the recipe carries a usable video URL
func (r Recipe) HasVideo() bool {
	return hasHTTPPrefix(r.Video)
}

func hasHTTPPrefix(s string) bool {
	return len(s) >= 4 && s[:4] == "http"
}
