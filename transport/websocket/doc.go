// Package websocket provides the client-side socket transport for quizzap
// sessions.
//
// The websocket package implements:
//   - Dialing a session endpoint and owning the read loop
//   - Serialization of outbound packets to JSON text frames
//   - Routing of inbound packets to per-action handler slots
//   - One-shot request/response correlation over the broadcast stream
//
// Architecture:
//
// A Conn owns exactly one socket and a table of handler slots, one per
// action tag plus a default for unrecognized tags. A single read-loop
// goroutine parses frames and dispatches each to exactly one handler.
// Malformed or empty frames are logged and dropped; they never close the
// connection.
//
// Correlation:
//
// The protocol is fire-and-forget: the server broadcasts packets without a
// request identifier. Await turns one exchange into a request/response call
// by temporarily replacing a handler slot, so the next packet on that slot
// settles the pending call and the prior handler is restored:
//
//	pending, err := conn.Await(protocol.ActionStatusCode, 0)
//	if err != nil {
//		return err
//	}
//	if err := conn.Send(protocol.ActionSubmitVote, "submitting vote", protocol.Vote{Vote: 2}); err != nil {
//		return err
//	}
//	result, err := pending.Wait()
//
// Every pending call settles in finite time: either the correlated packet
// arrives or the timeout fires, and in both cases the slot is restored to
// its pre-call handler so steady-state dispatch resumes.
//
// Concurrency:
//
// Handler slots are the only shared mutable state. They are mutated by
// Await's install/restore pair and by the one-time wiring of steady-state
// callbacks after dialing; both are serialized against the read loop, so a
// substitution installed before a send is guaranteed to see the reply frame.
// Two overlapping Await calls on the same slot are rejected with
// ErrSlotBusy rather than silently clobbering the first call's restore
// target.
package websocket
