// Package gateway runs chat requests against a vendor adapter, optionally
// with a round of HTTP tool calls.
//
// [Orchestrator.Run] moves a [Request] through the states
//
//	drafting -> awaiting_final_completion -> streaming -> done
//
// when no tools are selected, and
//
//	drafting -> awaiting_first_completion -> tool_round
//	         -> awaiting_final_completion -> streaming -> done
//
// when they are. If the model answers the tool-enabled round without calling
// a tool, the run ends in no_tools -> done and the answer is returned in
// [Outcome.Direct] instead of being streamed. Any failure ends in failed.
//
// Tool calls are dispatched in the order the model returned them; with
// [WithParallelTools] they run concurrently but their results are still
// appended in that order. Streamed output is written to a [Sink] through
// [Forward].
package gateway
