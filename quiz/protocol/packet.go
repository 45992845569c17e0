package protocol

import (
	"encoding/json"
	"fmt"
)

// StatusOK is the status code the server attaches to successful replies.
const StatusOK = 200

// Packet is one inbound envelope. StatusCode is assigned by the server;
// outbound packets never carry one (see Encode).
type Packet struct {
	StatusCode int             `json:"status_code"`
	Action     Action          `json:"action"`
	Message    string          `json:"message"`
	Payload    json.RawMessage `json:"payload"`
}

// OK reports whether the packet carries the success status code.
func (p *Packet) OK() bool {
	return p.StatusCode == StatusOK
}

// sendPacket is the outbound envelope shape. It deliberately omits
// status_code, which only the server assigns.
type sendPacket struct {
	Action  Action      `json:"action"`
	Message string      `json:"message"`
	Payload interface{} `json:"payload"`
}

// Encode serializes an outbound packet to a JSON text frame. A nil payload
// is encoded as JSON null, matching what the server expects for actions
// without a payload.
func Encode(action Action, message string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(sendPacket{
		Action:  action,
		Message: message,
		Payload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s packet: %w", action, err)
	}
	return data, nil
}

// Decode parses an inbound JSON text frame into a Packet. The action tag is
// not checked against the enumeration here; routing unrecognized tags is the
// dispatcher's concern.
func Decode(data []byte) (*Packet, error) {
	var pkt Packet
	if err := json.Unmarshal(data, &pkt); err != nil {
		return nil, fmt.Errorf("decode packet: %w", err)
	}
	return &pkt, nil
}

// Payload decodes a packet's payload into the typed structure matching its
// action. Decoding null or absent payloads yields the zero value.
func Payload[T any](pkt *Packet) (T, error) {
	var out T
	if len(pkt.Payload) == 0 || string(pkt.Payload) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(pkt.Payload, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", pkt.Action, err)
	}
	return out, nil
}
