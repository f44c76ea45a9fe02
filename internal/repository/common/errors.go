package common

import "errors"

// Общие ошибки для всех репозиториев
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrStaleStatus возвращается, когда условное обновление не прошло,
	// потому что строка уже не в ожидаемом статусе.
	ErrStaleStatus = errors.New("status precondition failed")
)
