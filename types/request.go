package types

type CreateEntryRequest struct {
	Key   string   `json:"key"`
	Value string   `json:"value"`
	Tags  []string `json:"tags,omitempty"`
}

type UpdateEntryRequest struct {
	ID    string    `json:"id"`
	Key   *string   `json:"key,omitempty"`
	Value *string   `json:"value,omitempty"`
	Tags  *[]string `json:"tags,omitempty"`
}

type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
