package domain

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-TherapyBooking/pkg/types"
)

// LockState состояние слота
type LockState string

const (
	// LockStateFree слот свободен: записи нет, либо она отменена, либо холд истек.
	// В БД не хранится.
	LockStateFree      LockState = "free"
	LockStateHolding   LockState = "holding"
	LockStateConfirmed LockState = "confirmed"
	LockStateCompleted LockState = "completed"
	LockStateCancelled LockState = "cancelled"
)

// transitions допустимые переходы между сохраненными состояниями
var transitions = map[LockState][]LockState{
	LockStateFree:      {LockStateHolding},
	LockStateHolding:   {LockStateHolding, LockStateConfirmed, LockStateCancelled},
	LockStateConfirmed: {LockStateCompleted, LockStateCancelled},
	LockStateCancelled: {LockStateHolding},
	LockStateCompleted: {},
}

// CanTransition проверяет допустимость перехода from -> to
func CanTransition(from, to LockState) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsLockValid единый предикат действительности холда: lockExpiresAt > now
func IsLockValid(expiresAt *time.Time, now time.Time) bool {
	return expiresAt != nil && expiresAt.After(now)
}

// SlotKey идентичность слота
type SlotKey struct {
	PsychologistID string
	Date           time.Time
	StartTime      types.TimeString
}

// String возвращает ключ в виде psychologist:YYYY-MM-DD:HH:MM
func (k SlotKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.PsychologistID, k.Date.Format(DateFormat), k.StartTime)
}

// Hold параметры нового холда
type Hold struct {
	PatientID    string
	EndTime      types.TimeString
	SessionPrice int64 // в минимальных единицах валюты
	LockedAt     time.Time
	ExpiresAt    time.Time
}

// Reservation запись о бронировании слота психолога
type Reservation struct {
	ID             string
	PsychologistID string
	ScheduledDate  time.Time
	StartTime      types.TimeString
	EndTime        types.TimeString
	LockState      LockState
	LockedBy       *string
	LockedAt       *time.Time
	LockExpiresAt  *time.Time
	PatientID      *string // заполняется при подтверждении
	SessionPrice   int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Key возвращает идентичность слота
func (r *Reservation) Key() SlotKey {
	return SlotKey{
		PsychologistID: r.PsychologistID,
		Date:           r.ScheduledDate,
		StartTime:      r.StartTime,
	}
}

// IsHoldActive возвращает true, если запись в состоянии holding и холд не истек
func (r *Reservation) IsHoldActive(now time.Time) bool {
	return r.LockState == LockStateHolding && IsLockValid(r.LockExpiresAt, now)
}

// IsHeldBy возвращает true, если холд принадлежит пациенту
func (r *Reservation) IsHeldBy(patientID string) bool {
	return r.LockedBy != nil && *r.LockedBy == patientID
}

// EffectiveState состояние с учетом истечения холда
func (r *Reservation) EffectiveState(now time.Time) LockState {
	switch r.LockState {
	case LockStateHolding:
		if r.IsHoldActive(now) {
			return LockStateHolding
		}
		return LockStateFree
	case LockStateCancelled:
		return LockStateFree
	default:
		return r.LockState
	}
}

// OwnerID возвращает пациента, которому принадлежит бронирование
func (r *Reservation) OwnerID() string {
	if r.PatientID != nil {
		return *r.PatientID
	}
	if r.LockedBy != nil {
		return *r.LockedBy
	}
	return ""
}

// Lock результат успешного захвата слота
type Lock struct {
	BookingID string
	Key       SlotKey
	PatientID string
	ExpiresAt time.Time
	Source    BookingSource
}

// StateChange условный переход состояния записи
type StateChange struct {
	From     LockState
	To       LockState
	LockedBy *string // ожидаемый владелец холда, nil - не проверять
	Now      time.Time
}
