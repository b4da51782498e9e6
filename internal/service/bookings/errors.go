package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено ни в одном хранилище
	ErrBookingNotFound = errors.New("bookings: booking not found")

	// ErrUnauthorized возвращается, когда вызывающий не пациент и не психолог бронирования
	ErrUnauthorized = errors.New("bookings: caller has no access to booking")

	// ErrStaleState возвращается, когда бронирование уже не в ожидаемом состоянии
	// (холд истек, перехвачен или подтвержден другим процессом)
	ErrStaleState = errors.New("bookings: booking state changed")

	// ErrCannotCancel возвращается, когда бронирование в терминальном состоянии
	ErrCannotCancel = errors.New("bookings: booking cannot be cancelled")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("bookings: invalid input data")

	// ErrStoreUnavailable возвращается, когда ни одно хранилище не доступно
	ErrStoreUnavailable = errors.New("bookings: booking store unavailable")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bookings: internal error")
)
