// Package stream turns Yuanbao's chat event stream into a reasoning transcript
// and a final answer.
package stream

import (
	"encoding/json"
	"strings"
)

// Kind discriminates the decoded shape of one stream line.
type Kind int

const (
	// KindSkip covers blank lines, non-data lines, control markers and malformed JSON.
	KindSkip Kind = iota
	// KindThink is a reasoning fragment ({"type":"think","content":...}).
	KindThink
	// KindText is an answer fragment ({"type":"text","msg":...}).
	KindText
	// KindContent is any other object carrying a non-empty "content".
	KindContent
)

func (k Kind) String() string {
	switch k {
	case KindThink:
		return "think"
	case KindText:
		return "text"
	case KindContent:
		return "content"
	default:
		return "skip"
	}
}

// Event is one decoded line of the stream.
type Event struct {
	Kind    Kind
	Content string
}

// IsAnswer reports whether the event contributes to the answer buffer.
func (e Event) IsAnswer() bool {
	return e.Kind == KindText || e.Kind == KindContent
}

const dataPrefix = "data: "

var controlTokens = map[string]struct{}{
	"status":   {},
	"reasoner": {},
	"text":     {},
}

// Decode classifies a raw stream line. It never fails: anything it cannot
// use comes back as KindSkip.
func Decode(line string) Event {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, dataPrefix) {
		return Event{}
	}
	payload := line[len(dataPrefix):]

	if _, ok := controlTokens[payload]; ok {
		return Event{}
	}
	if strings.HasPrefix(payload, "[") && strings.HasSuffix(payload, "]") {
		return Event{}
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		// partial frames are normal upstream
		return Event{}
	}

	typ, _ := obj["type"].(string)
	content, _ := obj["content"].(string)

	if typ == "think" {
		return Event{Kind: KindThink, Content: content}
	}
	if typ == "text" {
		if msg, _ := obj["msg"].(string); msg != "" {
			return Event{Kind: KindText, Content: msg}
		}
	}
	if content != "" {
		return Event{Kind: KindContent, Content: content}
	}
	return Event{}
}
