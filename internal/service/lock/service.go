package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	intentRepo "github.com/m04kA/SMC-TherapyBooking/internal/infra/storage/intent"
	reservationRepo "github.com/m04kA/SMC-TherapyBooking/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-TherapyBooking/pkg/types"
)

// AcquireRequest параметры захвата слота
type AcquireRequest struct {
	Key          domain.SlotKey
	PatientID    string
	EndTime      types.TimeString
	SessionPrice int64
}

// Manager захватывает холды в хранилище слотов.
// Взаимное исключение целиком на стороне хранилища: уникальный индекс
// и условные обновления. Между вызовами хранилища блокировки не держатся.
type Manager struct {
	store        SlotStore
	holdDuration time.Duration
	timeProvider TimeProvider
	logger       Logger
}

// NewManager создает менеджер блокировок поверх хранилища слотов
func NewManager(store SlotStore, logger Logger, opts ...Option) *Manager {
	o := buildOptions(opts)
	return &Manager{
		store:        store,
		holdDuration: o.holdDuration,
		timeProvider: o.timeProvider,
		logger:       logger,
	}
}

// Source возвращает хранилище, в котором живут захваченные холды
func (m *Manager) Source() domain.BookingSource {
	return domain.SourceReservation
}

// Acquire захватывает холд на слот для пациента.
// Повторный захват тем же пациентом перезапускает таймер.
func (m *Manager) Acquire(ctx context.Context, req AcquireRequest) (*domain.Lock, error) {
	now := m.timeProvider.Now()
	hold := domain.Hold{
		PatientID:    req.PatientID,
		EndTime:      req.EndTime,
		SessionPrice: req.SessionPrice,
		LockedAt:     now,
		ExpiresAt:    now.Add(m.holdDuration),
	}

	// 1. Читаем текущую запись слота
	existing, err := m.store.FindByKey(ctx, req.Key)
	if err != nil && !errors.Is(err, reservationRepo.ErrReservationNotFound) {
		return nil, m.storeError("FindByKey", req.Key, err)
	}

	// 2. Записи нет: вставка, конфликт уникальности значит, что нас опередили
	if existing == nil {
		created, err := m.store.CreateHolding(ctx, req.Key, hold)
		if err != nil {
			if errors.Is(err, reservationRepo.ErrConflict) {
				m.logger.Info("Acquire: slot=%s just taken by concurrent insert", req.Key)
				return nil, ErrSlotJustTaken
			}
			return nil, m.storeError("CreateHolding", req.Key, err)
		}
		m.logger.Info("Acquire: slot=%s held by patient=%s until %s", req.Key, req.PatientID, created.LockExpiresAt.Format(time.RFC3339))
		return m.toLock(created), nil
	}

	// 3-4. Слот занят
	switch existing.EffectiveState(now) {
	case domain.LockStateConfirmed, domain.LockStateCompleted:
		m.logger.Info("Acquire: slot=%s already booked (state=%s)", req.Key, existing.LockState)
		return nil, ErrAlreadyBooked
	case domain.LockStateHolding:
		if !existing.IsHeldBy(req.PatientID) {
			m.logger.Info("Acquire: slot=%s held by another patient until %s", req.Key, existing.LockExpiresAt.Format(time.RFC3339))
			return nil, ErrSlotHeld
		}
	}

	// 5. Истекший холд, отмененная запись или продление своим пациентом: условное обновление
	updated, err := m.store.UpdateToHolding(ctx, existing, hold)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrStaleState) || errors.Is(err, reservationRepo.ErrConflict) {
			m.logger.Info("Acquire: slot=%s just taken, record id=%s changed concurrently", req.Key, existing.ID)
			return nil, ErrSlotJustTaken
		}
		return nil, m.storeError("UpdateToHolding", req.Key, err)
	}

	// 6. Успех
	m.logger.Info("Acquire: slot=%s held by patient=%s until %s (record id=%s)",
		req.Key, req.PatientID, updated.LockExpiresAt.Format(time.RFC3339), updated.ID)
	return m.toLock(updated), nil
}

func (m *Manager) toLock(res *domain.Reservation) *domain.Lock {
	lock := &domain.Lock{
		BookingID: res.ID,
		Key:       res.Key(),
		Source:    domain.SourceReservation,
	}
	if res.LockedBy != nil {
		lock.PatientID = *res.LockedBy
	}
	if res.LockExpiresAt != nil {
		lock.ExpiresAt = *res.LockExpiresAt
	}
	return lock
}

func (m *Manager) storeError(op string, key domain.SlotKey, err error) error {
	if errors.Is(err, reservationRepo.ErrStoreUnavailable) {
		m.logger.Warn("Acquire: slot store unavailable on %s for slot=%s: %v", op, key, err)
		return fmt.Errorf("%w: %s - %v", ErrStoreUnavailable, op, err)
	}
	m.logger.Error("Acquire: %s failed for slot=%s: %v", op, key, err)
	return fmt.Errorf("%w: %s - %v", ErrInternal, op, err)
}

// IntentManager захватывает холды в виде намерений бронирования.
// Используется, когда хранилище слотов недоступно; семантика ошибок та же, что у Manager.
type IntentManager struct {
	store        IntentStore
	holdDuration time.Duration
	timeProvider TimeProvider
	logger       Logger
}

// NewIntentManager создает менеджер блокировок поверх хранилища намерений
func NewIntentManager(store IntentStore, logger Logger, opts ...Option) *IntentManager {
	o := buildOptions(opts)
	return &IntentManager{
		store:        store,
		holdDuration: o.holdDuration,
		timeProvider: o.timeProvider,
		logger:       logger,
	}
}

// Source возвращает хранилище, в котором живут захваченные холды
func (m *IntentManager) Source() domain.BookingSource {
	return domain.SourceIntent
}

// Acquire создает намерение pending_payment или продлевает свое действующее
func (m *IntentManager) Acquire(ctx context.Context, req AcquireRequest) (*domain.Lock, error) {
	now := m.timeProvider.Now()

	created, err := m.store.Create(ctx, domain.BookingIntent{
		PsychologistID: req.Key.PsychologistID,
		PatientID:      req.PatientID,
		ScheduledDate:  req.Key.Date,
		StartTime:      req.Key.StartTime,
		EndTime:        req.EndTime,
		SessionPrice:   req.SessionPrice,
		ExpiresAt:      now.Add(m.holdDuration),
	}, now)
	if err != nil {
		switch {
		case errors.Is(err, intentRepo.ErrSlotBooked):
			m.logger.Info("Acquire: slot=%s already booked via intent", req.Key)
			return nil, ErrAlreadyBooked
		case errors.Is(err, intentRepo.ErrSlotHeld):
			m.logger.Info("Acquire: slot=%s held by another patient via intent", req.Key)
			return nil, ErrSlotHeld
		case errors.Is(err, intentRepo.ErrStoreUnavailable):
			m.logger.Warn("Acquire: intent store unavailable for slot=%s: %v", req.Key, err)
			return nil, fmt.Errorf("%w: Create - %v", ErrStoreUnavailable, err)
		default:
			m.logger.Error("Acquire: intent create failed for slot=%s: %v", req.Key, err)
			return nil, fmt.Errorf("%w: Create - %v", ErrInternal, err)
		}
	}

	m.logger.Info("Acquire: slot=%s intent id=%s pending payment until %s",
		req.Key, created.ID, created.ExpiresAt.Format(time.RFC3339))

	return &domain.Lock{
		BookingID: created.ID,
		Key:       created.Key(),
		PatientID: created.PatientID,
		ExpiresAt: created.ExpiresAt,
		Source:    domain.SourceIntent,
	}, nil
}
