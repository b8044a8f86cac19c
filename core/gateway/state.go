package gateway

// State is a step of the completion protocol.
type State string

const (
	// StateDrafting assembles the transcript, credentials and tool catalog.
	StateDrafting State = "drafting"
	// StateAwaitingFirstCompletion waits for the non-streaming, tool-enabled round.
	StateAwaitingFirstCompletion State = "awaiting_first_completion"
	// StateNoTools means the model answered round one without calling a tool.
	StateNoTools State = "no_tools"
	// StateToolRound dispatches the tool calls of round one.
	StateToolRound State = "tool_round"
	// StateAwaitingFinalCompletion waits for the streamed completion to start.
	StateAwaitingFinalCompletion State = "awaiting_final_completion"
	// StateStreaming forwards chunks to the sink.
	StateStreaming State = "streaming"
	// StateDone is the successful terminal state.
	StateDone State = "done"
	// StateFailed is the terminal state of an aborted request.
	StateFailed State = "failed"
)

// Terminal reports whether no transition can follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
