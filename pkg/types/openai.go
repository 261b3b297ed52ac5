package types

// OpenAI-compatible shapes not covered by go-openai's wire types.

// Model is one entry of the /v1/models listing.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

// ModelList is the /v1/models response body.
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// OpenAIErrorResponse matches OpenAI error structure.
type OpenAIErrorResponse struct {
	Error OpenAIError `json:"error"`
}

type OpenAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	Version       string `json:"version"`
	Timestamp     string `json:"timestamp"`
	Conversations int    `json:"conversations"`
	LastActivity  string `json:"last_activity,omitempty"`
	Credential    bool   `json:"credential"`
}
