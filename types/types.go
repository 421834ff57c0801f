package types

const (
	TypeWebsocketPing       = "ping"
	TypeWebsocketPong       = "pong"
	TypeWebsocketChat       = "chat"
	TypeWebsocketProcessing = "processing"
	TypeWebsocketError      = "error"
)

type WebsocketRequest struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebSocketChatPayload struct {
	Message string    `json:"message"`
	History []Message `json:"history,omitempty"`
}

type WebSocketResponse struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebSocketChatResponse struct {
	Message string `json:"message"`
	Model   string `json:"model"`
	Tier    string `json:"tier"`
}

type WebSocketErrorResponse struct {
	Message string `json:"message"`
	// Retryable marks errors the client may retry later, e.g. every
	// model tier being out of quota.
	Retryable bool `json:"retryable"`
}
