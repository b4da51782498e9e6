package intent

import "errors"

var (
	// ErrIntentNotFound возвращается, когда намерение бронирования не найдено
	ErrIntentNotFound = errors.New("intent.repository: booking intent not found")

	// ErrSlotBooked возвращается, когда слот занят подтвержденным намерением
	ErrSlotBooked = errors.New("intent.repository: slot already booked")

	// ErrSlotHeld возвращается, когда слот занят действующим намерением другого пациента
	ErrSlotHeld = errors.New("intent.repository: slot held by another patient")

	// ErrStaleState возвращается, когда намерение уже не в ожидаемом состоянии
	ErrStaleState = errors.New("intent.repository: intent state changed concurrently")

	// ErrStoreUnavailable возвращается, когда Redis недоступен
	ErrStoreUnavailable = errors.New("intent.repository: intent store unavailable")

	// ErrExecScript возвращается при ошибке выполнения скрипта
	ErrExecScript = errors.New("intent.repository: failed to execute script")

	// ErrDecode возвращается при ошибке разбора сохраненного намерения
	ErrDecode = errors.New("intent.repository: failed to decode intent")
)
