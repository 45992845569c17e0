// Package protocol defines the wire format of the quizzap real-time session
// protocol.
//
// The protocol package implements:
//   - The closed set of action tags exchanged over a session socket
//   - The Packet envelope wrapping every message
//   - Typed payload structures, one shape per action
//   - Encoding of outbound packets and decoding of inbound frames
//   - Session lifecycle states and participant roles
//
// Wire Format:
//
// Every message is a single JSON text frame. Outbound packets carry
// {action, message, payload}; inbound packets additionally carry a
// status_code assigned by the server:
//
//	outbound: {"action": "SUBMIT_VOTE", "message": "submitting vote", "payload": {"vote": 2}}
//	inbound:  {"status_code": 200, "action": "STATUS_CODE", "message": "OK", "payload": null}
//
// The payload shape is fully determined by the action tag; use Payload to
// decode it into the matching typed structure.
//
// Usage:
//
//	data, err := protocol.Encode(protocol.ActionSubmitVote, "submitting vote", protocol.Vote{Vote: 2})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	pkt, err := protocol.Decode(frame)
//	if err != nil {
//		log.Fatal(err)
//	}
//	score, err := protocol.Payload[[]protocol.UserScore](pkt)
package protocol
