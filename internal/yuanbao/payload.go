// Package yuanbao drives chat turns against the Yuanbao web API.
package yuanbao

import (
	"strings"

	"github.com/MingriLingran/yuanbao-chat/pkg/types"
)

const (
	payloadModel   = "gpt_175B_0404"
	payloadPlugin  = "Adaptive"
	payloadAgentID = "naQivTmsDa"
	payloadVersion = "v2"
	searchFunction = "supportInternetSearch"

	// DefaultModelID is used for any selector not in the table.
	DefaultModelID = "deep_seek_v3"
)

// modelIDs maps caller-facing selectors to Yuanbao chatModelId values.
var modelIDs = map[string]string{
	"deep_seek_v3": "deep_seek_v3",
	"deep_seek_r1": "deep_seek",
	"hunyuan":      "hunyuan_gpt_175B_0404",
	"hunyuan_t1":   "hunyuan_t1",

	// catalog ids
	"deepseek-v3": "deep_seek_v3",
	"deepseek-r1": "deep_seek",
	"hunyuan-t1":  "hunyuan_t1",
}

// ResolveModelID returns the chatModelId for selector, defaulting to v3.
func ResolveModelID(selector string) string {
	if id, ok := modelIDs[strings.TrimSpace(selector)]; ok {
		return id
	}
	return DefaultModelID
}

// Selectors lists the accepted model selectors.
func Selectors() []string {
	return []string{"deep_seek_v3", "deep_seek_r1", "hunyuan", "hunyuan_t1"}
}

// BuildPayload renders the chat request body.
func BuildPayload(req types.ChatRequest) types.ChatPayload {
	functions := []string{}
	if req.UseWebSearch {
		functions = append(functions, searchFunction)
	}
	return types.ChatPayload{
		Model:             payloadModel,
		Prompt:            req.Message,
		Plugin:            payloadPlugin,
		DisplayPrompt:     req.Message,
		DisplayPromptType: 1,
		Options: types.ChatOptions{
			ImageIntention: types.ImageIntention{
				NeedIntentionModel: true,
				BackendUpdateFlag:  2,
				IntentionStatus:    true,
			},
		},
		Multimedia:       []any{},
		AgentID:          payloadAgentID,
		SupportHint:      1,
		Version:          payloadVersion,
		ChatModelID:      ResolveModelID(req.Model),
		SupportFunctions: functions,
	}
}
