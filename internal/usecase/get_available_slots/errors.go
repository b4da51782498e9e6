package get_available_slots

import "errors"

var (
	// ErrPsychologistNotFound возвращается, когда профиль психолога не найден
	ErrPsychologistNotFound = errors.New("psychologist not found")

	// ErrInvalidDate возвращается, когда дата в прошлом
	ErrInvalidDate = errors.New("invalid date: must not be in the past")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrProfileUnavailable возвращается, когда сервис профилей недоступен
	ErrProfileUnavailable = errors.New("usecase: profile service unavailable")

	// ErrStoreUnavailable возвращается, когда ни одно хранилище бронирований не отвечает
	ErrStoreUnavailable = errors.New("usecase: booking store unavailable")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("usecase: internal error")
)
