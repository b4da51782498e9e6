package domain

import "time"

// Параметры холда слота
const (
	DefaultHoldDuration = 15 * time.Minute
	MinHoldDuration     = time.Minute
	MaxHoldDuration     = 2 * time.Hour
)

// Параметры расписания по умолчанию
const (
	DefaultSessionMinutes = 50
	DefaultGapMinutes     = 10
	DefaultMinHoursAhead  = 24
	MaxDaysScanned        = 100 // ограничение перебора дней в поиске ближайших свободных дат
	MaxAvailableDays      = 60
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// BookingSource хранилище, в котором живет бронирование
type BookingSource string

const (
	SourceReservation BookingSource = "reservation"
	SourceIntent      BookingSource = "intent"
)

// FailureReason причина неуспешной попытки бронирования при конкуренции за слот
type FailureReason string

const (
	ReasonAlreadyBooked FailureReason = "slot_already_booked"
	ReasonSlotHeld      FailureReason = "slot_held"
	ReasonJustTaken     FailureReason = "slot_just_taken"
)

// Message возвращает текст причины для пользователя
func (r FailureReason) Message() string {
	switch r {
	case ReasonAlreadyBooked:
		return "slot unavailable: already booked"
	case ReasonSlotHeld:
		return "slot unavailable: try again shortly"
	case ReasonJustTaken:
		return "slot just taken"
	default:
		return "slot unavailable, please choose another"
	}
}
