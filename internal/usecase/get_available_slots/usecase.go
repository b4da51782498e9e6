package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	intentRepo "github.com/m04kA/SMC-TherapyBooking/internal/infra/storage/intent"
	reservationRepo "github.com/m04kA/SMC-TherapyBooking/internal/infra/storage/reservation"
	profileClient "github.com/m04kA/SMC-TherapyBooking/internal/integrations/profileservice"
	"github.com/m04kA/SMC-TherapyBooking/internal/schedule"
)

// UseCase use case для получения свободных слотов психолога на дату
type UseCase struct {
	profiles     ProfileClient
	reservations ReservationReader
	intents      IntentReader
	settings     Settings
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case.
// reservations или intents может быть nil, если стратегия не использует хранилище.
func NewUseCase(
	profiles ProfileClient,
	reservations ReservationReader,
	intents IntentReader,
	settings Settings,
	logger Logger,
) *UseCase {
	return &UseCase{
		profiles:     profiles,
		reservations: reservations,
		intents:      intents,
		settings:     settings,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения свободных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: caller=%s, psychologist=%s, date=%s",
		req.CallerID, req.PsychologistID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время, дата трактуется в поясе сервера
	now := uc.timeProvider.Now()
	date := inLocation(req.Date, now.Location())

	if err := validateDate(date, now); err != nil {
		uc.logger.Warn("GetAvailableSlots: date %s is in the past", date.Format(domain.DateFormat))
		return nil, err
	}

	// 3. Получаем правила приема психолога
	rules, err := uc.profiles.GetAvailabilityRules(ctx, req.PsychologistID)
	if err != nil {
		if errors.Is(err, profileClient.ErrPsychologistNotFound) {
			uc.logger.Warn("GetAvailableSlots: psychologist id=%s not found", req.PsychologistID)
			return nil, ErrPsychologistNotFound
		}
		if errors.Is(err, profileClient.ErrServiceUnavailable) {
			uc.logger.Error("GetAvailableSlots: profile service unavailable: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrProfileUnavailable, err)
		}
		uc.logger.Error("GetAvailableSlots: failed to get availability rules: %v", err)
		return nil, fmt.Errorf("%w: failed to get availability rules: %v", ErrInternal, err)
	}

	response := &Response{
		PsychologistID: req.PsychologistID,
		Date:           date,
		Slots:          []Slot{},
	}

	// 4. Генерируем слоты по правилам на этот день недели
	candidates := schedule.SlotsForDate(date, rules, uc.settings.SessionMinutes, uc.settings.GapMinutes)
	if len(candidates) == 0 {
		uc.logger.Info("GetAvailableSlots: no sessions on %s for psychologist=%s",
			date.Format(domain.DateFormat), req.PsychologistID)
		return response, nil
	}

	// 5. Собираем занятые интервалы из хранилищ
	busy, err := uc.busyIntervals(ctx, req.PsychologistID, date, now)
	if err != nil {
		return nil, err
	}

	// 6. Исключаем занятые и слишком ранние слоты
	earliest := now.Add(time.Duration(uc.settings.MinHoursAhead) * time.Hour)
	response.Slots = freeSlots(candidates, busy, date, earliest, uc.settings.SessionMinutes)

	uc.logger.Info("GetAvailableSlots: %d of %d slots free for psychologist=%s, date=%s",
		len(response.Slots), len(candidates), req.PsychologistID, date.Format(domain.DateFormat))

	return response, nil
}

// busyIntervals читает занятые интервалы из обоих хранилищ.
// Недоступное хранилище пропускается, если отвечает другое.
func (uc *UseCase) busyIntervals(ctx context.Context, psychologistID string, date, now time.Time) ([]interval, error) {
	var (
		busy        []interval
		configured  int
		unavailable int
	)

	if uc.reservations != nil {
		configured++
		reservations, err := uc.reservations.ListActiveByPsychologistDate(ctx, psychologistID, date, now)
		switch {
		case err == nil:
			busy = append(busy, busyFromReservations(reservations)...)
		case errors.Is(err, reservationRepo.ErrStoreUnavailable):
			uc.logger.Warn("GetAvailableSlots: slot store unavailable: %v", err)
			unavailable++
		default:
			uc.logger.Error("GetAvailableSlots: failed to list reservations: %v", err)
			return nil, fmt.Errorf("%w: failed to list reservations: %v", ErrInternal, err)
		}
	}

	if uc.intents != nil {
		configured++
		intents, err := uc.intents.ListActiveByPsychologistDate(ctx, psychologistID, date, now)
		switch {
		case err == nil:
			busy = append(busy, busyFromIntents(intents)...)
		case errors.Is(err, intentRepo.ErrStoreUnavailable):
			uc.logger.Warn("GetAvailableSlots: intent store unavailable: %v", err)
			unavailable++
		default:
			uc.logger.Error("GetAvailableSlots: failed to list intents: %v", err)
			return nil, fmt.Errorf("%w: failed to list intents: %v", ErrInternal, err)
		}
	}

	if configured > 0 && unavailable == configured {
		return nil, ErrStoreUnavailable
	}

	return busy, nil
}
