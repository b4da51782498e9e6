package sweeper

import "errors"

var (
	// ErrSweep ошибка при обходе истекших холдов
	ErrSweep = errors.New("sweeper: sweep failed")
)
