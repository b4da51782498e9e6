package domain

import (
	"time"

	"github.com/m04kA/SMC-TherapyBooking/pkg/types"
)

// IntentStatus статус намерения бронирования
type IntentStatus string

const (
	IntentPendingPayment IntentStatus = "pending_payment"
	IntentConfirmed      IntentStatus = "confirmed"
	IntentCancelled      IntentStatus = "cancelled"
)

// BookingIntent резервное представление бронирования,
// используется когда хранилище слотов недоступно
type BookingIntent struct {
	ID             string
	PsychologistID string
	PatientID      string
	ScheduledDate  time.Time
	StartTime      types.TimeString
	EndTime        types.TimeString
	SessionPrice   int64
	Status         IntentStatus
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// Key возвращает идентичность слота
func (i *BookingIntent) Key() SlotKey {
	return SlotKey{
		PsychologistID: i.PsychologistID,
		Date:           i.ScheduledDate,
		StartTime:      i.StartTime,
	}
}

// IsPendingActive возвращает true, если намерение ожидает оплаты и не истекло
func (i *BookingIntent) IsPendingActive(now time.Time) bool {
	return i.Status == IntentPendingPayment && IsLockValid(&i.ExpiresAt, now)
}

// OccupiesSlot возвращает true, если намерение занимает слот
func (i *BookingIntent) OccupiesSlot(now time.Time) bool {
	return i.Status == IntentConfirmed || i.IsPendingActive(now)
}

// LockState приводит статус намерения к состоянию слота
func (i *BookingIntent) LockState(now time.Time) LockState {
	switch i.Status {
	case IntentConfirmed:
		return LockStateConfirmed
	case IntentCancelled:
		return LockStateCancelled
	default:
		if i.IsPendingActive(now) {
			return LockStateHolding
		}
		return LockStateFree
	}
}
