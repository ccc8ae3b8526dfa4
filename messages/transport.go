package messages

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

// Receiver is a function that receives a message. It returns the message and
// the number of bytes read.
type Receiver func() (Msg, int, error)

// Sender is a function that sends a message. It returns the number of bytes
// written.
type Sender func(Msg) (int, error)

// ResponseSender is the interface that describes a message sender passed to
// message handlers.
type ResponseSender interface {
	// Wraps the payload into a message and sends it.
	Send(MsgData)

	// Sends a message.
	SendMsg(Msg)
}

// Receive reads a message from the given WebSocket connection.
func Receive(conn *websocket.Conn) (Msg, int, error) {
	var b []byte
	if err := websocket.Message.Receive(conn, &b); err != nil {
		return Msg{}, 0, err
	}

	var msg Msg
	if err := json.Unmarshal(b, &msg); err != nil {
		return Msg{}, len(b), errors.New("decoding message failed").
			WithType(ErrTypeDecoding).
			Wrap(err)
	}
	return msg, len(b), nil
}

// Send writes a message as a text frame on the given WebSocket connection.
func Send(conn *websocket.Conn, msg Msg) (int, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return 0, errors.New("encoding message failed").
			WithType(ErrTypeEncoding).
			WithTag("msg_type", msg.Type).
			Wrap(err)
	}

	if err := websocket.Message.Send(conn, string(b)); err != nil {
		return 0, err
	}
	return len(b), nil
}
