package get_available_days

import "errors"

var (
	// ErrPsychologistNotFound возвращается, когда профиль психолога не найден
	ErrPsychologistNotFound = errors.New("psychologist not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrProfileUnavailable возвращается, когда сервис профилей недоступен
	ErrProfileUnavailable = errors.New("usecase: profile service unavailable")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("usecase: internal error")
)
