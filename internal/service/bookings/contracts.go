package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
)

// ReservationStore интерфейс хранилища слотов
type ReservationStore interface {
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	SetState(ctx context.Context, id string, change domain.StateChange) (*domain.Reservation, error)
}

// IntentStore интерфейс хранилища намерений бронирования
type IntentStore interface {
	Get(ctx context.Context, id string) (*domain.BookingIntent, error)
	Confirm(ctx context.Context, id string, patientID string, now time.Time) (*domain.BookingIntent, error)
	Cancel(ctx context.Context, id string, expected domain.IntentStatus) (bool, error)
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
