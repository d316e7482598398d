package models

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalidID = errors.New("invalid id")
	ErrSoldOut   = errors.New("event is sold out")
	ErrConflict  = errors.New("conflicting update")
)
