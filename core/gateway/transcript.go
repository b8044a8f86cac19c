package gateway

import (
	"slices"

	"github.com/leofalp/chatgate/providers/ai"
)

// Transcript is the message sequence of one request. It is a value: Append
// returns a new transcript and never writes into the receiver's backing array,
// so a transcript handed to a provider cannot change underneath it.
type Transcript struct {
	messages []ai.Message
}

// NewTranscript copies messages into a transcript.
func NewTranscript(messages []ai.Message) Transcript {
	return Transcript{messages: slices.Clone(messages)}
}

// Append returns a transcript extended with messages.
func (t Transcript) Append(messages ...ai.Message) Transcript {
	return Transcript{messages: slices.Concat(t.messages, messages)}
}

// Messages returns a copy of the messages.
func (t Transcript) Messages() []ai.Message {
	return slices.Clone(t.messages)
}

// Len returns the number of messages.
func (t Transcript) Len() int {
	return len(t.messages)
}

// Last returns the final message, if any.
func (t Transcript) Last() (ai.Message, bool) {
	if len(t.messages) == 0 {
		return ai.Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}
