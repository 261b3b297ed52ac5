package types

// Yuanbao web API request/response types.

// ChatRequest is everything needed for one chat turn against a conversation.
type ChatRequest struct {
	Credential     string
	ConversationID string
	Message        string
	Model          string
	UseWebSearch   bool
}

// ChatResult is the reassembled outcome of one chat turn.
// Reasoning is "null" when no reasoning fragments arrived; both fields are empty
// when the request failed before the stream could be read.
type ChatResult struct {
	Reasoning string `json:"reasoning"`
	Answer    string `json:"answer"`
}

// HasReasoning reports whether the upstream produced any visible reasoning.
func (r ChatResult) HasReasoning() bool {
	return r.Reasoning != "" && r.Reasoning != NoReasoning
}

// NoReasoning is the merged reasoning value when no think fragments were seen.
const NoReasoning = "null"

// ChatPayload is the JSON body posted to /api/chat/{conversationId}.
type ChatPayload struct {
	Model             string      `json:"model"`
	Prompt            string      `json:"prompt"`
	Plugin            string      `json:"plugin"`
	DisplayPrompt     string      `json:"displayPrompt"`
	DisplayPromptType int         `json:"displayPromptType"`
	Options           ChatOptions `json:"options"`
	Multimedia        []any       `json:"multimedia"`
	AgentID           string      `json:"agentId"`
	SupportHint       int         `json:"supportHint"`
	Version           string      `json:"version"`
	ChatModelID       string      `json:"chatModelId"`
	SupportFunctions  []string    `json:"supportFunctions"`
}

type ChatOptions struct {
	ImageIntention ImageIntention `json:"imageIntention"`
}

type ImageIntention struct {
	NeedIntentionModel bool `json:"needIntentionModel"`
	BackendUpdateFlag  int  `json:"backendUpdateFlag"`
	IntentionStatus    bool `json:"intentionStatus"`
}
