package types

// Message represents a single message in the conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string    `json:"message"`
	History []Message `json:"history,omitempty"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
	Model string `json:"model"`
	Tier  string `json:"tier"`
}

// CompletionResult is what the AI gateway returns on success: the
// generated text plus the tier metadata that produced it.
type CompletionResult struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Tier  string `json:"tier"`
}
