package engine

import "errors"

// Rejections returned synchronously to the initiating connection only.
// Cleanup paths (leave, release, disconnect) never return an error.
var (
	ErrNameInvalid   = errors.New("invalid username")
	ErrNameTaken     = errors.New("username already in use")
	ErrRoomInvalid   = errors.New("invalid room name")
	ErrImpersonation = errors.New("impersonation detected")
	ErrUnclaimed     = errors.New("no username claimed")
)
