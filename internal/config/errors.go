package config

import "errors"

var (
	// ErrLoad ошибка чтения файла конфигурации
	ErrLoad = errors.New("config: failed to load")

	// ErrInvalid ошибка валидации конфигурации
	ErrInvalid = errors.New("config: invalid configuration")
)
