package landrop

import "errors"

var (
	ErrAlreadyActive = errors.New("discovery already active")
	ErrNotActive     = errors.New("discovery not active")
	ErrClosed        = errors.New("app closed")
	ErrSubscribed    = errors.New("already subscribed to backend events")
)
