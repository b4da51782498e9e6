package get_available_days

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	profileClient "github.com/m04kA/SMC-TherapyBooking/internal/integrations/profileservice"
	"github.com/m04kA/SMC-TherapyBooking/internal/schedule"
)

// UseCase use case для получения ближайших дней приема психолога
type UseCase struct {
	profiles      ProfileClient
	minHoursAhead int
	timeProvider  TimeProvider
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(profiles ProfileClient, minHoursAhead int, logger Logger) *UseCase {
	return &UseCase{
		profiles:      profiles,
		minHoursAhead: minHoursAhead,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения ближайших дней приема
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableDays: caller=%s, psychologist=%s, count=%d",
		req.CallerID, req.PsychologistID, req.Count)

	// 1. Валидация входных данных
	if _, err := uuid.Parse(req.PsychologistID); err != nil {
		uc.logger.Warn("GetAvailableDays: invalid psychologist id=%q", req.PsychologistID)
		return nil, fmt.Errorf("%w: psychologistID must be a UUID", ErrInvalidInput)
	}

	count := req.Count
	if count == 0 {
		count = DefaultCount
	}
	if count < 0 || count > domain.MaxAvailableDays {
		uc.logger.Warn("GetAvailableDays: count=%d out of range", req.Count)
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidInput, domain.MaxAvailableDays)
	}

	// 2. Получаем правила приема психолога
	rules, err := uc.profiles.GetAvailabilityRules(ctx, req.PsychologistID)
	if err != nil {
		if errors.Is(err, profileClient.ErrPsychologistNotFound) {
			uc.logger.Warn("GetAvailableDays: psychologist id=%s not found", req.PsychologistID)
			return nil, ErrPsychologistNotFound
		}
		if errors.Is(err, profileClient.ErrServiceUnavailable) {
			uc.logger.Error("GetAvailableDays: profile service unavailable: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrProfileUnavailable, err)
		}
		uc.logger.Error("GetAvailableDays: failed to get availability rules: %v", err)
		return nil, fmt.Errorf("%w: failed to get availability rules: %v", ErrInternal, err)
	}

	// 3. Ближайшие даты с учетом минимального запаса времени
	dates := schedule.NextAvailableDays(uc.timeProvider.Now(), rules, count, uc.minHoursAhead)

	days := make([]Day, 0, len(dates))
	for _, date := range dates {
		days = append(days, Day{
			Date:            date,
			Weekday:         date.Weekday(),
			PackageSessions: schedule.RemainingWeekdayOccurrences(date, date.Weekday()),
		})
	}

	uc.logger.Info("GetAvailableDays: found %d days for psychologist=%s", len(days), req.PsychologistID)

	return &Response{
		PsychologistID: req.PsychologistID,
		Days:           days,
	}, nil
}
