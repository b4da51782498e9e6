package profileservice

import "errors"

var (
	// ErrPsychologistNotFound возвращается, когда профиль психолога не найден
	ErrPsychologistNotFound = errors.New("psychologist not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("profileservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("profileservice client: invalid response")

	// ErrServiceUnavailable возвращается, когда сервис профилей не отвечает
	ErrServiceUnavailable = errors.New("profileservice client: service unavailable")
)
