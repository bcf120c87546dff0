package service

import "errors"

// 业务错误哨兵。handler 层据此映射 HTTP 状态码。
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSerialMismatch    = errors.New("serial number does not match picked up component")
	ErrInsufficientStock = errors.New("insufficient available stock")
	ErrForbidden         = errors.New("operation not allowed for caller")
	ErrDuplicate         = errors.New("resource already exists")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrInvalidArgument   = errors.New("invalid argument")
)
