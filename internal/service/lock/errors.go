package lock

import "errors"

var (
	// ErrAlreadyBooked возвращается, когда слот подтвержден или сессия уже прошла
	ErrAlreadyBooked = errors.New("lock: slot already booked")

	// ErrSlotHeld возвращается, когда слот удерживается другим пациентом
	ErrSlotHeld = errors.New("lock: slot held by another patient")

	// ErrSlotJustTaken возвращается, когда конкурентный запрос захватил слот первым
	ErrSlotJustTaken = errors.New("lock: slot just taken")

	// ErrStoreUnavailable возвращается, когда хранилище недоступно в этой инсталляции
	ErrStoreUnavailable = errors.New("lock: store unavailable")

	// ErrInternal возвращается при неожиданных ошибках хранилища
	ErrInternal = errors.New("lock: internal error")
)
