package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	intentRepo "github.com/m04kA/SMC-TherapyBooking/internal/infra/storage/intent"
	reservationRepo "github.com/m04kA/SMC-TherapyBooking/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-TherapyBooking/internal/service/bookings/models"
)

// Service сервис чтения, отмены и подтверждения бронирований.
// Бронирование ищется сначала в хранилище слотов, затем среди намерений.
type Service struct {
	reservations ReservationStore
	intents      IntentStore
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований.
// Любое из хранилищ может быть nil, если стратегия его не использует.
func NewService(
	reservations ReservationStore,
	intents IntentStore,
	logger Logger,
) *Service {
	return &Service{
		reservations: reservations,
		intents:      intents,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// booking бронирование из одного из хранилищ
type booking struct {
	reservation *domain.Reservation
	intent      *domain.BookingIntent
}

func (b *booking) psychologistID() string {
	if b.reservation != nil {
		return b.reservation.PsychologistID
	}
	return b.intent.PsychologistID
}

func (b *booking) patientID() string {
	if b.reservation != nil {
		return b.reservation.OwnerID()
	}
	return b.intent.PatientID
}

// GetBooking получает бронирование по ID.
// Доступно пациенту-владельцу и психологу, к которому записан пациент.
func (s *Service) GetBooking(ctx context.Context, id string, callerID string) (*models.BookingResponse, error) {
	s.logger.Info("GetBooking: fetching booking id=%s for caller=%s", id, callerID)

	b, err := s.lookup(ctx, "GetBooking", id)
	if err != nil {
		return nil, err
	}

	if err := s.checkAccess(b, callerID); err != nil {
		s.logger.Warn("GetBooking: access denied for caller=%s to booking id=%s", callerID, id)
		return nil, err
	}

	now := s.timeProvider.Now()
	if b.reservation != nil {
		return models.FromReservation(b.reservation, now), nil
	}
	return models.FromIntent(b.intent, now), nil
}

// Cancel отменяет бронирование в состоянии holding/pending_payment или confirmed.
// Повторная отмена не ошибка: возвращается AlreadyCancelled=true.
func (s *Service) Cancel(ctx context.Context, id string, callerID string) (*models.CancelResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%s by caller=%s", id, callerID)

	b, err := s.lookup(ctx, "Cancel", id)
	if err != nil {
		return nil, err
	}

	if err := s.checkAccess(b, callerID); err != nil {
		s.logger.Warn("Cancel: access denied for caller=%s to booking id=%s", callerID, id)
		return nil, err
	}

	var already bool
	if b.reservation != nil {
		already, err = s.cancelReservation(ctx, b.reservation)
	} else {
		already, err = s.cancelIntent(ctx, b.intent)
	}
	if err != nil {
		return nil, err
	}

	if already {
		s.logger.Info("Cancel: booking id=%s was already cancelled", id)
	} else {
		s.logger.Info("Cancel: successfully cancelled booking id=%s", id)
	}

	return &models.CancelResponse{ID: id, AlreadyCancelled: already}, nil
}

// Confirm переводит холд в confirmed после успешной оплаты.
// Холд должен принадлежать вызывающему и быть действующим, иначе ErrStaleState.
// Психолог не может подтвердить запись: ErrUnauthorized.
func (s *Service) Confirm(ctx context.Context, id string, callerID string) (*models.BookingResponse, error) {
	s.logger.Info("Confirm: confirming booking id=%s for caller=%s", id, callerID)

	b, err := s.lookup(ctx, "Confirm", id)
	if err != nil {
		return nil, err
	}

	now := s.timeProvider.Now()

	if b.reservation != nil {
		// Владение проверяет условное обновление: чужой или истекший холд -> ErrStaleState
		if callerID == "" || callerID == b.psychologistID() {
			s.logger.Warn("Confirm: caller=%s cannot confirm booking id=%s", callerID, id)
			return nil, ErrUnauthorized
		}

		confirmed, err := s.reservations.SetState(ctx, id, domain.StateChange{
			From:     domain.LockStateHolding,
			To:       domain.LockStateConfirmed,
			LockedBy: &callerID,
			Now:      now,
		})
		if err != nil {
			return nil, s.mapStateError("Confirm", id, err)
		}
		s.logger.Info("Confirm: booking id=%s confirmed for patient=%s", id, callerID)
		return models.FromReservation(confirmed, now), nil
	}

	if b.intent.PatientID != callerID {
		s.logger.Warn("Confirm: caller=%s is not the holder of intent id=%s", callerID, id)
		return nil, ErrUnauthorized
	}

	confirmed, err := s.intents.Confirm(ctx, id, callerID, now)
	if err != nil {
		return nil, s.mapStateError("Confirm", id, err)
	}
	s.logger.Info("Confirm: intent id=%s confirmed for patient=%s", id, callerID)
	return models.FromIntent(confirmed, now), nil
}

func (s *Service) cancelReservation(ctx context.Context, res *domain.Reservation) (bool, error) {
	switch res.LockState {
	case domain.LockStateCancelled:
		return true, nil
	case domain.LockStateHolding, domain.LockStateConfirmed:
	default:
		s.logger.Warn("Cancel: booking id=%s cannot be cancelled, state=%s", res.ID, res.LockState)
		return false, ErrCannotCancel
	}

	// Условие по владельцу: истекший холд мог перейти к другому пациенту
	_, err := s.reservations.SetState(ctx, res.ID, domain.StateChange{
		From:     res.LockState,
		To:       domain.LockStateCancelled,
		LockedBy: res.LockedBy,
		Now:      s.timeProvider.Now(),
	})
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, reservationRepo.ErrStaleState) {
		return false, s.mapStateError("Cancel", res.ID, err)
	}

	// Состояние изменилось: отмена конкурентным запросом тоже считается успехом
	current, getErr := s.reservations.GetByID(ctx, res.ID)
	if getErr == nil && current.LockState == domain.LockStateCancelled {
		return true, nil
	}
	s.logger.Warn("Cancel: booking id=%s changed concurrently", res.ID)
	return false, ErrStaleState
}

func (s *Service) cancelIntent(ctx context.Context, intent *domain.BookingIntent) (bool, error) {
	already, err := s.intents.Cancel(ctx, intent.ID, intent.Status)
	if err == nil {
		return already, nil
	}
	if !errors.Is(err, intentRepo.ErrStaleState) {
		return false, s.mapStateError("Cancel", intent.ID, err)
	}

	// Статус сменился между чтением и отменой, повторяем без ожидаемого статуса
	// только если намерение все еще принадлежит тому же пациенту
	current, getErr := s.intents.Get(ctx, intent.ID)
	if getErr != nil || current.PatientID != intent.PatientID {
		return false, ErrStaleState
	}
	already, err = s.intents.Cancel(ctx, intent.ID, "")
	if err != nil {
		return false, s.mapStateError("Cancel", intent.ID, err)
	}
	return already, nil
}

// lookup ищет бронирование в хранилище слотов, затем среди намерений
func (s *Service) lookup(ctx context.Context, op string, id string) (*booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		s.logger.Warn("%s: invalid booking id=%q", op, id)
		return nil, fmt.Errorf("%w: booking id must be a UUID", ErrInvalidInput)
	}

	unavailable := 0

	if s.reservations != nil {
		res, err := s.reservations.GetByID(ctx, id)
		switch {
		case err == nil:
			return &booking{reservation: res}, nil
		case errors.Is(err, reservationRepo.ErrReservationNotFound):
		case errors.Is(err, reservationRepo.ErrStoreUnavailable):
			s.logger.Warn("%s: slot store unavailable while looking up id=%s: %v", op, id, err)
			unavailable++
		default:
			s.logger.Error("%s: slot store error for id=%s: %v", op, id, err)
			return nil, fmt.Errorf("%w: %s - slot store error: %v", ErrInternal, op, err)
		}
	}

	if s.intents != nil {
		intent, err := s.intents.Get(ctx, id)
		switch {
		case err == nil:
			return &booking{intent: intent}, nil
		case errors.Is(err, intentRepo.ErrIntentNotFound):
		case errors.Is(err, intentRepo.ErrStoreUnavailable):
			s.logger.Warn("%s: intent store unavailable while looking up id=%s: %v", op, id, err)
			unavailable++
		default:
			s.logger.Error("%s: intent store error for id=%s: %v", op, id, err)
			return nil, fmt.Errorf("%w: %s - intent store error: %v", ErrInternal, op, err)
		}
	}

	if unavailable > 0 && unavailable == s.configuredStores() {
		return nil, ErrStoreUnavailable
	}

	s.logger.Warn("%s: booking id=%s not found", op, id)
	return nil, ErrBookingNotFound
}

func (s *Service) configuredStores() int {
	n := 0
	if s.reservations != nil {
		n++
	}
	if s.intents != nil {
		n++
	}
	return n
}

// checkAccess разрешает доступ пациенту-владельцу и психологу бронирования
func (s *Service) checkAccess(b *booking, callerID string) error {
	if callerID == "" {
		return ErrUnauthorized
	}
	if callerID == b.patientID() || callerID == b.psychologistID() {
		return nil
	}
	return ErrUnauthorized
}

// mapStateError приводит ошибки условных переходов к ошибкам сервиса
func (s *Service) mapStateError(op string, id string, err error) error {
	switch {
	case errors.Is(err, reservationRepo.ErrStaleState), errors.Is(err, intentRepo.ErrStaleState):
		s.logger.Warn("%s: booking id=%s is no longer in the expected state", op, id)
		return ErrStaleState
	case errors.Is(err, reservationRepo.ErrReservationNotFound), errors.Is(err, intentRepo.ErrIntentNotFound):
		s.logger.Warn("%s: booking id=%s disappeared", op, id)
		return ErrBookingNotFound
	case errors.Is(err, reservationRepo.ErrStoreUnavailable), errors.Is(err, intentRepo.ErrStoreUnavailable):
		s.logger.Error("%s: store unavailable for booking id=%s: %v", op, id, err)
		return fmt.Errorf("%w: %s - %v", ErrStoreUnavailable, op, err)
	default:
		s.logger.Error("%s: repository error for booking id=%s: %v", op, id, err)
		return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
}
