package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrEmptyRegistry     = errors.New("currency registry is empty")
	ErrNoTradeableCycles = errors.New("no tradeable cycles")
	ErrNotSupported      = errors.New("not supported by this venue")
	ErrWSDisconnect      = errors.New("websocket disconnected")
)
