package anthropic

import (
	"encoding/json"
	"errors"
)

/*
	SSE WIRE TYPES

	Each event arrives as an "event: <name>" line followed by a "data:" JSON
	payload whose "type" field repeats the name:

	  message_start → content_block_start → content_block_delta* →
	  content_block_stop → message_delta → message_stop

	"ping" keep-alives and "error" events may appear anywhere.
*/

type streamEvent struct {
	Type         string            `json:"type"`
	Message      *messagesResponse `json:"message,omitempty"`       // message_start
	Index        int               `json:"index,omitempty"`         // content_block_*
	ContentBlock *responseBlock    `json:"content_block,omitempty"` // content_block_start
	Delta        *streamDelta      `json:"delta,omitempty"`         // content_block_delta, message_delta
	Usage        *usage            `json:"usage,omitempty"`         // message_delta
	Error        *apiError         `json:"error,omitempty"`         // error
}

type streamDelta struct {
	Type        string `json:"type,omitempty"` // "text_delta" or "input_json_delta"
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
}

// apiError is the error object of both "error" events and non-2xx bodies.
type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// decodeStreamEvent parses a data payload. name is the SSE event field and
// takes precedence over the payload's type.
func decodeStreamEvent(name, payload string) (*streamEvent, error) {
	var event streamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, err
	}
	if name != "" {
		event.Type = name
	}
	if event.Type == "" {
		return nil, errors.New("stream event has no type")
	}
	return &event, nil
}
