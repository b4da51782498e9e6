package create_booking

import "errors"

var (
	// ErrUnauthorized возвращается, когда вызывающий не совпадает с пациентом
	ErrUnauthorized = errors.New("create_booking: caller is not the patient")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInvalidDate возвращается, когда слот уже в прошлом
	ErrInvalidDate = errors.New("create_booking: slot is in the past")

	// ErrStoreUnavailable возвращается, когда недоступны и основное, и резервное хранилище
	ErrStoreUnavailable = errors.New("create_booking: booking store unavailable")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
