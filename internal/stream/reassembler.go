package stream

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/MingriLingran/yuanbao-chat/pkg/types"
)

// shortFragment is the trimmed length (in characters) at or below which a
// reasoning fragment is glued onto its neighbours instead of standing alone.
const shortFragment = 2

// maxLineSize bounds one stream line; longer lines are skipped.
const maxLineSize = 16 << 20

const readBufferSize = 64 << 10

// Reassembler accumulates decoded events for a single chat call.
// The zero value is ready to use.
type Reassembler struct {
	reasoning []string
	answer    strings.Builder
}

// Feed decodes one line, records it and returns the decoded event.
func (r *Reassembler) Feed(line string) Event {
	evt := Decode(line)
	switch evt.Kind {
	case KindThink:
		r.reasoning = append(r.reasoning, evt.Content)
	case KindText, KindContent:
		r.answer.WriteString(evt.Content)
	}
	return evt
}

// Reasoning returns the raw reasoning fragments seen so far.
func (r *Reassembler) Reasoning() []string {
	return r.reasoning
}

// Result merges everything seen so far.
func (r *Reassembler) Result() types.ChatResult {
	return types.ChatResult{
		Reasoning: MergeReasoning(r.reasoning),
		Answer:    r.answer.String(),
	}
}

// Reassemble consumes lines until the sequence ends.
func Reassemble(lines iter.Seq[string]) types.ChatResult {
	var r Reassembler
	for line := range lines {
		r.Feed(line)
	}
	return r.Result()
}

// Lines yields the lines of body one at a time, without the line ending.
// A line longer than maxLineSize is dropped and reading continues with the
// next one. A read error ends the sequence the same way EOF does; onErr, if
// set, is told about it.
func Lines(body io.Reader, onErr func(error)) iter.Seq[string] {
	return readLines(body, maxLineSize, onErr)
}

func readLines(body io.Reader, limit int, onErr func(error)) iter.Seq[string] {
	return func(yield func(string) bool) {
		r := bufio.NewReaderSize(body, readBufferSize)
		var (
			line      []byte
			oversized bool
		)
		for {
			chunk, err := r.ReadSlice('\n')
			if !oversized {
				if len(line)+len(chunk) > limit {
					oversized = true
					line = line[:0]
				} else {
					line = append(line, chunk...)
				}
			}
			if errors.Is(err, bufio.ErrBufferFull) {
				continue
			}

			// a whole line, or the tail before EOF
			if oversized {
				oversized = false
			} else if err == nil || len(line) > 0 {
				text := strings.TrimSuffix(strings.TrimSuffix(string(line), "\n"), "\r")
				if !yield(text) {
					return
				}
			}
			line = line[:0]

			if err != nil {
				if !errors.Is(err, io.EOF) && onErr != nil {
					onErr(err)
				}
				return
			}
		}
	}
}

// MergeReasoning rebuilds readable text from reasoning fragments.
//
// Fragments of at most two characters (after trimming) are glued together
// without a separator; longer fragments stand alone. The pieces are then
// trimmed and joined with single spaces. With nothing to show the result is
// types.NoReasoning.
func MergeReasoning(fragments []string) string {
	var (
		pieces  []string
		pending strings.Builder
	)
	for _, frag := range fragments {
		if frag == "" {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(frag)) <= shortFragment {
			pending.WriteString(frag)
			continue
		}
		if pending.Len() > 0 {
			pieces = append(pieces, pending.String())
			pending.Reset()
		}
		pieces = append(pieces, frag)
	}
	if pending.Len() > 0 {
		pieces = append(pieces, pending.String())
	}

	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	merged := strings.Join(out, " ")
	if merged == "" {
		return types.NoReasoning
	}
	return merged
}
