package create_booking

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	"github.com/m04kA/SMC-TherapyBooking/internal/service/lock"
)

// Исходы попытки бронирования для метрик
const (
	outcomeSuccess     = "success"
	outcomeContention  = "contention"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

// UseCase use case бронирования слота (acquireOrBook)
type UseCase struct {
	primary  Locker
	fallback Locker
	// fallbackActive переключается один раз и до перезапуска не сбрасывается
	fallbackActive atomic.Bool

	metrics      MetricsRecorder
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case.
// primary выбирается конфигурацией (booking.strategy); fallback может быть nil,
// тогда недоступность основного хранилища сразу возвращается вызывающему.
// После первого ErrStoreUnavailable от primary все захваты идут через fallback:
// два хранилища не видят холды друг друга.
func NewUseCase(
	primary Locker,
	fallback Locker,
	metrics MetricsRecorder,
	logger Logger,
) *UseCase {
	return &UseCase{
		primary:      primary,
		fallback:     fallback,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет захват слота для пациента.
// Конкуренция за слот возвращается как Response{Success:false}, а не как ошибка.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: caller=%s, psychologist=%s, patient=%s, date=%s, time=%s-%s",
		req.CallerID, req.PsychologistID, req.PatientID, req.Date.Format(domain.DateFormat), req.StartTime, req.EndTime)

	// 1. Валидация до любых обращений к хранилищу
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Бронировать можно только для себя
	if req.CallerID == "" || req.CallerID != req.PatientID {
		uc.logger.Warn("CreateBooking: caller=%s is not patient=%s", req.CallerID, req.PatientID)
		return nil, ErrUnauthorized
	}

	// 3. Слот должен быть в будущем
	if err := validateNotInPast(req, uc.timeProvider.Now()); err != nil {
		uc.logger.Warn("CreateBooking: slot %s %s is in the past", req.Date.Format(domain.DateFormat), req.StartTime)
		return nil, err
	}

	acquireReq := lock.AcquireRequest{
		Key: domain.SlotKey{
			PsychologistID: req.PsychologistID,
			Date:           req.Date,
			StartTime:      req.StartTime,
		},
		PatientID:    req.PatientID,
		EndTime:      req.EndTime,
		SessionPrice: req.SessionPrice,
	}

	// 4. Захват через основное хранилище, если резервное еще не включено
	locker := uc.primary
	if uc.fallback != nil && uc.fallbackActive.Load() {
		locker = uc.fallback
	}
	acquired, err := locker.Acquire(ctx, acquireReq)

	// 5. Основное хранилище недоступно: переключение на намерения
	if errors.Is(err, lock.ErrStoreUnavailable) && uc.fallback != nil && locker == uc.primary {
		if uc.fallbackActive.CompareAndSwap(false, true) {
			uc.logger.Warn("CreateBooking: %s store unavailable, switching to %s until restart: %v",
				uc.primary.Source(), uc.fallback.Source(), err)
		}
		uc.metrics.IncBookingAttempt(string(uc.primary.Source()), outcomeUnavailable)

		locker = uc.fallback
		acquired, err = locker.Acquire(ctx, acquireReq)
	}

	source := string(locker.Source())

	if err != nil {
		if reason, ok := contentionReason(err); ok {
			uc.metrics.IncBookingAttempt(source, outcomeContention)
			uc.logger.Info("CreateBooking: slot %s unavailable: %s", acquireReq.Key, reason)
			return &Response{
				Success: false,
				Source:  locker.Source(),
				Reason:  reason,
			}, nil
		}

		if errors.Is(err, lock.ErrStoreUnavailable) {
			uc.metrics.IncBookingAttempt(source, outcomeUnavailable)
			uc.logger.Error("CreateBooking: no booking store available for slot %s: %v", acquireReq.Key, err)
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		uc.metrics.IncBookingAttempt(source, outcomeError)
		uc.logger.Error("CreateBooking: failed to acquire slot %s: %v", acquireReq.Key, err)
		return nil, fmt.Errorf("%w: acquire - %v", ErrInternal, err)
	}

	uc.metrics.IncBookingAttempt(source, outcomeSuccess)
	uc.logger.Info("CreateBooking: booking id=%s (%s) held for patient=%s until %s",
		acquired.BookingID, acquired.Source, acquired.PatientID, acquired.ExpiresAt.Format("15:04:05"))

	return &Response{
		Success:   true,
		BookingID: acquired.BookingID,
		ExpiresAt: acquired.ExpiresAt,
		Source:    acquired.Source,
	}, nil
}

// contentionReason переводит ошибки конкуренции за слот в причину отказа
func contentionReason(err error) (domain.FailureReason, bool) {
	switch {
	case errors.Is(err, lock.ErrAlreadyBooked):
		return domain.ReasonAlreadyBooked, true
	case errors.Is(err, lock.ErrSlotHeld):
		return domain.ReasonSlotHeld, true
	case errors.Is(err, lock.ErrSlotJustTaken):
		return domain.ReasonJustTaken, true
	default:
		return "", false
	}
}
