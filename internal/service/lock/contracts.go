package lock

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
)

// SlotStore интерфейс хранилища слотов
type SlotStore interface {
	FindByKey(ctx context.Context, key domain.SlotKey) (*domain.Reservation, error)
	CreateHolding(ctx context.Context, key domain.SlotKey, hold domain.Hold) (*domain.Reservation, error)
	UpdateToHolding(ctx context.Context, prev *domain.Reservation, hold domain.Hold) (*domain.Reservation, error)
}

// IntentStore интерфейс хранилища намерений бронирования
type IntentStore interface {
	Create(ctx context.Context, intent domain.BookingIntent, now time.Time) (*domain.BookingIntent, error)
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
