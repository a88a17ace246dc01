package dto

type ChatRequest struct {
	Question       string `json:"question" binding:"required"`
	PageContext    string `json:"pageContext"`
	ContextHistory string `json:"contextHistory"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}
