package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
)

// ProfileClient интерфейс клиента сервиса профилей
type ProfileClient interface {
	GetAvailabilityRules(ctx context.Context, psychologistID string) ([]domain.AvailabilityRule, error)
}

// ReservationReader интерфейс чтения занятых слотов из хранилища слотов
type ReservationReader interface {
	ListActiveByPsychologistDate(ctx context.Context, psychologistID string, date time.Time, now time.Time) ([]*domain.Reservation, error)
}

// IntentReader интерфейс чтения занятых слотов из хранилища намерений
type IntentReader interface {
	ListActiveByPsychologistDate(ctx context.Context, psychologistID string, date time.Time, now time.Time) ([]*domain.BookingIntent, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
