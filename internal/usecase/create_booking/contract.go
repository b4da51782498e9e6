package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	"github.com/m04kA/SMC-TherapyBooking/internal/service/lock"
)

// Locker интерфейс менеджера блокировок слотов
type Locker interface {
	Acquire(ctx context.Context, req lock.AcquireRequest) (*domain.Lock, error)
	Source() domain.BookingSource
}

// MetricsRecorder интерфейс для записи метрик попыток бронирования
type MetricsRecorder interface {
	IncBookingAttempt(source, outcome string)
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
