package types

// SearchRequest is the query of a recipe search
type SearchRequest struct {
	Keyword string `form:"keyword" binding:"required"`
}

// CallbackRequest is the query the authorization server sends back
type CallbackRequest struct {
	Code  string `form:"code" binding:"required"`
	State string `form:"state" binding:"required"`
}
