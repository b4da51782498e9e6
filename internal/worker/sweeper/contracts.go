package sweeper

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	intentRepo "github.com/m04kA/SMC-TherapyBooking/internal/infra/storage/intent"
)

// SlotStore интерфейс хранилища слотов
type SlotStore interface {
	ListExpiredHoldings(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error)
	ReleaseExpiredHolding(ctx context.Context, id string, expiresAt time.Time, now time.Time) (bool, error)
}

// IntentStore интерфейс хранилища намерений бронирования
type IntentStore interface {
	ListExpired(ctx context.Context, now time.Time, limit int) ([]intentRepo.Expired, error)
	DeleteExpired(ctx context.Context, id string, expiresAt time.Time, now time.Time) (bool, error)
}

// MetricsRecorder интерфейс для метрик освобожденных холдов
type MetricsRecorder interface {
	AddHoldsReleased(store string, count int)
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
