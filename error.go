package match

import "errors"

var (
	ErrInvalidParam = errors.New("the param is invalid")
	ErrTimeout      = errors.New("timeout")
	ErrBookClosed   = errors.New("order book is closed")
	ErrBookOpened   = errors.New("order book is already open")
	ErrUnknownCmd   = errors.New("unknown command type")
	ErrNotFound     = errors.New("not found")
)
