package messages

import "github.com/aukilabs/go-tooling/pkg/errors"

const (
	ErrTypeSessionNotJoined = "session_not_joined"
	ErrTypeMsgSkip          = "msg_skip"
	ErrTypeEncoding         = "encoding"
	ErrTypeDecoding         = "decoding"
	ErrTypeSchedulerClosed  = "scheduler_closed"
	ErrTypeSchedulerFull    = "scheduler_full"
)

// ErrModuleMsgSkip is returned by modules to indicate that they did not handle
// a message.
var ErrModuleMsgSkip error = errors.New("message skipped by module").WithType(ErrTypeMsgSkip)

// ErrorCode describes why a request failed.
type ErrorCode string

const (
	ErrorCodeBadRequest           ErrorCode = "bad_request"
	ErrorCodeNotFound             ErrorCode = "not_found"
	ErrorCodeUnauthorized         ErrorCode = "unauthorized"
	ErrorCodeSessionAlreadyJoined ErrorCode = "session_already_joined"
	ErrorCodeTooLarge             ErrorCode = "too_large"
	ErrorCodeOutOfBounds          ErrorCode = "out_of_bounds"
	ErrorCodeInternalServerError  ErrorCode = "internal_server_error"
)
