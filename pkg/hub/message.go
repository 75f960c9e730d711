// Package hub is a channel-based websocket broadcast hub. The preview
// server pushes live reframing decisions through it to any number of
// connected viewers.
package hub

// MessageType selects the websocket frame type.
type MessageType int

const (
	// JSONMessage carries a JSON-encoded render record or status update.
	JSONMessage MessageType = iota
	// BinaryMessage carries raw bytes, e.g. a JPEG preview frame.
	BinaryMessage
)

// Message is one payload to fan out to every connected client.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON bytes.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps binary data.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
