package reservation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
)

// MemoryRepository хранилище слотов в памяти процесса.
// Все операции выполняются под одним мьютексом, поэтому условные
// обновления атомарны так же, как в PostgreSQL.
// Используется в режиме booking.strategy = "memory" и в тестах.
type MemoryRepository struct {
	mu      sync.Mutex
	byID    map[string]*domain.Reservation
	nowFunc func() time.Time
}

// NewMemoryRepository создает пустое хранилище
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*domain.Reservation),
		nowFunc: time.Now,
	}
}

// CheckAvailable всегда успешен
func (m *MemoryRepository) CheckAvailable(ctx context.Context) error {
	return ctx.Err()
}

// FindByKey возвращает запись слота, предпочитая неотмененную
func (m *MemoryRepository) FindByKey(ctx context.Context, key domain.SlotKey) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var found *domain.Reservation
	for _, res := range m.byID {
		if !sameKey(res.Key(), key) {
			continue
		}
		if found == nil || preferred(res, found) {
			found = res
		}
	}
	if found == nil {
		return nil, ErrReservationNotFound
	}
	return clone(found), nil
}

// GetByID получает запись по ID
func (m *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.byID[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	return clone(res), nil
}

// CreateHolding создает запись в holding, ErrConflict если по ключу уже есть неотмененная запись
func (m *MemoryRepository) CreateHolding(ctx context.Context, key domain.SlotKey, hold domain.Hold) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeByKey(key) != nil {
		return nil, ErrConflict
	}

	now := m.nowFunc()
	patientID := hold.PatientID
	lockedAt := hold.LockedAt
	expiresAt := hold.ExpiresAt
	res := &domain.Reservation{
		ID:             uuid.NewString(),
		PsychologistID: key.PsychologistID,
		ScheduledDate:  key.Date,
		StartTime:      key.StartTime,
		EndTime:        hold.EndTime,
		LockState:      domain.LockStateHolding,
		LockedBy:       &patientID,
		LockedAt:       &lockedAt,
		LockExpiresAt:  &expiresAt,
		SessionPrice:   hold.SessionPrice,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.byID[res.ID] = res
	return clone(res), nil
}

// UpdateToHolding условно переводит запись в holding, см. Repository.UpdateToHolding
func (m *MemoryRepository) UpdateToHolding(ctx context.Context, prev *domain.Reservation, hold domain.Hold) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.byID[prev.ID]
	if !ok || cur.LockState != prev.LockState || !sameTimePtr(cur.LockExpiresAt, prev.LockExpiresAt) {
		return nil, ErrStaleState
	}

	switch cur.LockState {
	case domain.LockStateCancelled:
		// отмененная запись освобождает ключ только если нет другой активной
		if m.activeByKey(cur.Key()) != nil {
			return nil, ErrConflict
		}
	case domain.LockStateHolding:
		if domain.IsLockValid(cur.LockExpiresAt, hold.LockedAt) && !cur.IsHeldBy(hold.PatientID) {
			return nil, ErrStaleState
		}
	default:
		return nil, ErrStaleState
	}

	patientID := hold.PatientID
	lockedAt := hold.LockedAt
	expiresAt := hold.ExpiresAt
	cur.LockState = domain.LockStateHolding
	cur.LockedBy = &patientID
	cur.LockedAt = &lockedAt
	cur.LockExpiresAt = &expiresAt
	cur.EndTime = hold.EndTime
	cur.SessionPrice = hold.SessionPrice
	cur.PatientID = nil
	cur.UpdatedAt = m.nowFunc()
	return clone(cur), nil
}

// SetState выполняет условный переход состояния
func (m *MemoryRepository) SetState(ctx context.Context, id string, change domain.StateChange) (*domain.Reservation, error) {
	if !domain.CanTransition(change.From, change.To) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, change.From, change.To)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.byID[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	if cur.LockState != change.From {
		return nil, ErrStaleState
	}
	if change.LockedBy != nil && !cur.IsHeldBy(*change.LockedBy) {
		return nil, ErrStaleState
	}

	if change.From == domain.LockStateHolding && change.To == domain.LockStateConfirmed {
		if !domain.IsLockValid(cur.LockExpiresAt, change.Now) {
			return nil, ErrStaleState
		}
		if cur.LockedBy != nil {
			patientID := *cur.LockedBy
			cur.PatientID = &patientID
		}
	}

	cur.LockState = change.To
	cur.UpdatedAt = m.nowFunc()
	return clone(cur), nil
}

// ListExpiredHoldings возвращает истекшие холды, самые старые первыми
func (m *MemoryRepository) ListExpiredHoldings(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*domain.Reservation, 0)
	for _, res := range m.byID {
		if res.LockState == domain.LockStateHolding && !domain.IsLockValid(res.LockExpiresAt, now) {
			result = append(result, clone(res))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].LockExpiresAt.Before(*result[j].LockExpiresAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ReleaseExpiredHolding переводит истекший холд в cancelled, если он не был перехвачен
func (m *MemoryRepository) ReleaseExpiredHolding(ctx context.Context, id string, expiresAt time.Time, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.byID[id]
	if !ok || cur.LockState != domain.LockStateHolding || cur.LockExpiresAt == nil {
		return false, nil
	}
	if !cur.LockExpiresAt.Equal(expiresAt) || cur.LockExpiresAt.After(now) {
		return false, nil
	}

	cur.LockState = domain.LockStateCancelled
	cur.UpdatedAt = m.nowFunc()
	return true, nil
}

// ListActiveByPsychologistDate возвращает записи, занимающие слоты психолога на дату
func (m *MemoryRepository) ListActiveByPsychologistDate(ctx context.Context, psychologistID string, date time.Time, now time.Time) ([]*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := date.Format(domain.DateFormat)
	result := make([]*domain.Reservation, 0)
	for _, res := range m.byID {
		if res.PsychologistID != psychologistID || res.ScheduledDate.Format(domain.DateFormat) != day {
			continue
		}
		switch res.EffectiveState(now) {
		case domain.LockStateHolding, domain.LockStateConfirmed, domain.LockStateCompleted:
			result = append(result, clone(res))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.IsBefore(result[j].StartTime)
	})
	return result, nil
}

// activeByKey возвращает неотмененную запись по ключу (аналог частичного уникального индекса)
func (m *MemoryRepository) activeByKey(key domain.SlotKey) *domain.Reservation {
	for _, res := range m.byID {
		if res.LockState != domain.LockStateCancelled && sameKey(res.Key(), key) {
			return res
		}
	}
	return nil
}

func sameKey(a, b domain.SlotKey) bool {
	return a.PsychologistID == b.PsychologistID &&
		a.Date.Format(domain.DateFormat) == b.Date.Format(domain.DateFormat) &&
		a.StartTime.Equal(b.StartTime)
}

func sameTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// preferred возвращает true, если a приоритетнее b при поиске по ключу
func preferred(a, b *domain.Reservation) bool {
	aCancelled := a.LockState == domain.LockStateCancelled
	bCancelled := b.LockState == domain.LockStateCancelled
	if aCancelled != bCancelled {
		return !aCancelled
	}
	return a.UpdatedAt.After(b.UpdatedAt)
}

func clone(res *domain.Reservation) *domain.Reservation {
	c := *res
	if res.LockedBy != nil {
		v := *res.LockedBy
		c.LockedBy = &v
	}
	if res.LockedAt != nil {
		v := *res.LockedAt
		c.LockedAt = &v
	}
	if res.LockExpiresAt != nil {
		v := *res.LockExpiresAt
		c.LockExpiresAt = &v
	}
	if res.PatientID != nil {
		v := *res.PatientID
		c.PatientID = &v
	}
	return &c
}
