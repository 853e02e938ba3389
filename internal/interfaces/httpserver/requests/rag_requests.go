package requests

// QueryRequest is the body of POST /query and POST /chat.
type QueryRequest struct {
	Question string `json:"question"`
	ChatID   string `json:"chat_id"`
	ChatName string `json:"chat_name"`
}

// ResetRequest is the body of POST /reset.
type ResetRequest struct {
	ChatID string `json:"chat_id"`
}
