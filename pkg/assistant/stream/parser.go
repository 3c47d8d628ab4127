// Package stream turns raw upstream frames into client-visible output while
// accumulating the turn's answer text and the book titles it mentions.
package stream

import (
	"encoding/json"
	"strings"
)

type FrameType string

const (
	FrameContent FrameType = "content"
	FrameThink   FrameType = "think"
	FrameEnd     FrameType = "end"
)

// Frame is the structured shape of an upstream frame.
type Frame struct {
	Type FrameType `json:"type"`
	Data string    `json:"data"`
}

// Outcome tells what a parsed frame turned out to be.
type Outcome int

const (
	OutcomeContent Outcome = iota
	OutcomeThink
	OutcomeEnd
	OutcomeMalformed
	OutcomeUnknown
)

func (o Outcome) String() string {
	switch o {
	case OutcomeContent:
		return "content"
	case OutcomeThink:
		return "think"
	case OutcomeEnd:
		return "end"
	case OutcomeMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Result says whether the frame reaches the client. Forwarded frames are
// always passed on exactly as received.
type Result struct {
	Outcome Outcome
	Forward bool
	Payload string
}

type rawFrame struct {
	Type *string         `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Parse applies one raw frame to st.
//
//   - content: data is appended and scanned for titles, the chunk counter
//     moves, the frame is forwarded.
//   - think: only the think flag is set; nothing reaches the client.
//   - end: upstream completion marker, neither forwarded nor buffered.
//   - malformed (not a typed JSON object): forwarded raw, appended and
//     scanned like text, but not counted.
//   - any other type: forwarded raw with no effect on the state.
func Parse(raw string, st *State) Result {
	var f rawFrame
	if err := json.Unmarshal([]byte(raw), &f); err != nil || f.Type == nil {
		st.Append(raw)
		return Result{Outcome: OutcomeMalformed, Forward: true, Payload: raw}
	}

	switch FrameType(strings.ToLower(strings.TrimSpace(*f.Type))) {
	case FrameContent:
		st.Append(dataText(f.Data))
		st.countChunk()
		return Result{Outcome: OutcomeContent, Forward: true, Payload: raw}
	case FrameThink:
		st.markThink()
		return Result{Outcome: OutcomeThink}
	case FrameEnd:
		return Result{Outcome: OutcomeEnd}
	default:
		return Result{Outcome: OutcomeUnknown, Forward: true, Payload: raw}
	}
}

// dataText decodes a JSON string payload; any other JSON value is kept as
// its literal text.
func dataText(data json.RawMessage) string {
	if len(data) == 0 || string(data) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return string(data)
}
