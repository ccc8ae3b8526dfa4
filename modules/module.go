package modules

import (
	"context"

	"github.com/aukilabs/kubb/messages"
	"github.com/aukilabs/kubb/models"
)

// Module is the interface that describes a module that extends Kubb
// capabilities.
type Module interface {
	// Returns the module name.
	Name() string

	// Initializes the module for the participant that joined the given
	// session.
	Init(*models.Session, *models.Participant)

	// Handles a given message. Modules are free to decide whether they handle a
	// message.
	//
	// Returning ErrModuleMsgSkip indicates that handling a message was skipped.
	//
	// Any other returned errors causes the current WebSocket client to be
	// disconnected.
	HandleMsg(context.Context, messages.ResponseSender, messages.Msg) error

	// Handles a client leaving its session or disconnecting.
	HandleDisconnect()
}
