package reservation

import "errors"

var (
	// ErrReservationNotFound возвращается, когда запись о слоте не найдена
	ErrReservationNotFound = errors.New("reservation.repository: reservation not found")

	// ErrConflict возвращается при нарушении уникальности слота (конкурентная вставка победила)
	ErrConflict = errors.New("reservation.repository: slot already reserved")

	// ErrStaleState возвращается, когда условие перехода больше не выполняется
	ErrStaleState = errors.New("reservation.repository: reservation state changed concurrently")

	// ErrStoreUnavailable возвращается, когда таблица слотов отсутствует в этой инсталляции
	ErrStoreUnavailable = errors.New("reservation.repository: slot store unavailable")

	// ErrInvalidTransition возвращается при попытке недопустимого перехода состояния
	ErrInvalidTransition = errors.New("reservation.repository: invalid state transition")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("reservation.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("reservation.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("reservation.repository: failed to scan row")
)
