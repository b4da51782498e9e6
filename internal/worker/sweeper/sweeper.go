package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
)

const (
	defaultInterval  = time.Minute
	defaultBatchSize = 100
)

// Stats результат одного прохода
type Stats struct {
	HoldsReleased   int
	IntentsReleased int
}

// Total общее число освобожденных слотов
func (s Stats) Total() int {
	return s.HoldsReleased + s.IntentsReleased
}

// Sweeper периодически освобождает слоты с истекшими холдами.
// Корректность захвата от него не зависит: истекший холд и так считается свободным,
// проход лишь приводит хранилища к фактическому состоянию.
type Sweeper struct {
	slots        SlotStore
	intents      IntentStore
	metrics      MetricsRecorder
	timeProvider TimeProvider
	logger       Logger
	interval     time.Duration
	batch        int
}

// NewSweeper создает новый экземпляр. Любое из хранилищ может быть nil.
func NewSweeper(slots SlotStore, intents IntentStore, metrics MetricsRecorder, logger Logger) *Sweeper {
	return &Sweeper{
		slots:        slots,
		intents:      intents,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		interval:     defaultInterval,
		batch:        defaultBatchSize,
	}
}

// WithInterval задает период между проходами
func (s *Sweeper) WithInterval(d time.Duration) *Sweeper {
	if d > 0 {
		s.interval = d
	}
	return s
}

// WithBatchSize задает число кандидатов, читаемых за один запрос
func (s *Sweeper) WithBatchSize(n int) *Sweeper {
	if n > 0 {
		s.batch = n
	}
	return s
}

// WithTimeProvider подменяет источник времени
func (s *Sweeper) WithTimeProvider(tp TimeProvider) *Sweeper {
	s.timeProvider = tp
	return s
}

// Run выполняет проходы до отмены контекста
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("Sweeper: started with interval=%s, batch=%d", s.interval, s.batch)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper: stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	stats, err := s.SweepOnce(ctx)
	if err != nil {
		s.logger.Error("Sweeper: pass finished with errors: %v", err)
	}
	if stats.Total() > 0 {
		s.logger.Info("Sweeper: released holds=%d, intents=%d", stats.HoldsReleased, stats.IntentsReleased)
	}
}

// SweepOnce выполняет один проход по обоим хранилищам.
// Ошибка одного хранилища не останавливает обход другого.
func (s *Sweeper) SweepOnce(ctx context.Context) (Stats, error) {
	var (
		stats Stats
		errs  []error
	)

	if s.slots != nil {
		released, err := s.sweepHoldings(ctx)
		stats.HoldsReleased = released
		if err != nil {
			errs = append(errs, err)
		}
		s.metrics.AddHoldsReleased(string(domain.SourceReservation), released)
	}

	if s.intents != nil {
		released, err := s.sweepIntents(ctx)
		stats.IntentsReleased = released
		if err != nil {
			errs = append(errs, err)
		}
		s.metrics.AddHoldsReleased(string(domain.SourceIntent), released)
	}

	if len(errs) > 0 {
		return stats, fmt.Errorf("%w: %w", ErrSweep, errors.Join(errs...))
	}
	return stats, nil
}

// sweepHoldings освобождает истекшие холды хранилища слотов пачками
func (s *Sweeper) sweepHoldings(ctx context.Context) (int, error) {
	total := 0
	for {
		now := s.timeProvider.Now()

		candidates, err := s.slots.ListExpiredHoldings(ctx, now, s.batch)
		if err != nil {
			return total, fmt.Errorf("list expired holdings: %w", err)
		}

		released := 0
		for _, res := range candidates {
			if ctx.Err() != nil {
				return total + released, ctx.Err()
			}
			if res.LockExpiresAt == nil {
				continue
			}

			// 1. Условие по прочитанному сроку: перехваченный или продленный холд не трогаем
			ok, err := s.slots.ReleaseExpiredHolding(ctx, res.ID, *res.LockExpiresAt, now)
			if err != nil {
				s.logger.Warn("Sweeper: failed to release hold id=%s: %v", res.ID, err)
				continue
			}
			if ok {
				released++
			}
		}
		total += released

		// 2. Неполная пачка или пачка без освобождений: больше кандидатов нет
		if len(candidates) < s.batch || released == 0 {
			return total, nil
		}
	}
}

// sweepIntents удаляет истекшие намерения пачками
func (s *Sweeper) sweepIntents(ctx context.Context) (int, error) {
	total := 0
	for {
		now := s.timeProvider.Now()

		candidates, err := s.intents.ListExpired(ctx, now, s.batch)
		if err != nil {
			return total, fmt.Errorf("list expired intents: %w", err)
		}

		released := 0
		for _, candidate := range candidates {
			if ctx.Err() != nil {
				return total + released, ctx.Err()
			}

			ok, err := s.intents.DeleteExpired(ctx, candidate.ID, candidate.ExpiresAt, now)
			if err != nil {
				s.logger.Warn("Sweeper: failed to delete intent id=%s: %v", candidate.ID, err)
				continue
			}
			if ok {
				released++
			}
		}
		total += released

		if len(candidates) < s.batch || released == 0 {
			return total, nil
		}
	}
}
