package create_booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	intentRepo "github.com/m04kA/SMC-TherapyBooking/internal/infra/storage/intent"
	reservationRepo "github.com/m04kA/SMC-TherapyBooking/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-TherapyBooking/internal/service/lock"
	"github.com/m04kA/SMC-TherapyBooking/pkg/logger"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

type metricsStub struct {
	mu       sync.Mutex
	attempts map[string]int
}

func newMetricsStub() *metricsStub {
	return &metricsStub{attempts: make(map[string]int)}
}

func (m *metricsStub) IncBookingAttempt(source, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[source+"/"+outcome]++
}

// lockerSpy считает обращения к менеджеру блокировок
type lockerSpy struct {
	calls int
}

func (l *lockerSpy) Acquire(ctx context.Context, req lock.AcquireRequest) (*domain.Lock, error) {
	l.calls++
	return &domain.Lock{BookingID: uuid.NewString(), ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func (l *lockerSpy) Source() domain.BookingSource {
	return domain.SourceReservation
}

// unavailableStore хранилище слотов, таблицы которого нет в инсталляции
type unavailableStore struct{}

func (unavailableStore) FindByKey(ctx context.Context, key domain.SlotKey) (*domain.Reservation, error) {
	return nil, reservationRepo.ErrStoreUnavailable
}

func (unavailableStore) CreateHolding(ctx context.Context, key domain.SlotKey, hold domain.Hold) (*domain.Reservation, error) {
	return nil, reservationRepo.ErrStoreUnavailable
}

func (unavailableStore) UpdateToHolding(ctx context.Context, prev *domain.Reservation, hold domain.Hold) (*domain.Reservation, error) {
	return nil, reservationRepo.ErrStoreUnavailable
}

// flakyStore хранилище слотов, которое недоступно до вызова recover
type flakyStore struct {
	mu        sync.Mutex
	recovered bool
	store     *reservationRepo.MemoryRepository
}

func (f *flakyStore) recover() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recovered = true
}

func (f *flakyStore) available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recovered
}

func (f *flakyStore) FindByKey(ctx context.Context, key domain.SlotKey) (*domain.Reservation, error) {
	if !f.available() {
		return nil, reservationRepo.ErrStoreUnavailable
	}
	return f.store.FindByKey(ctx, key)
}

func (f *flakyStore) CreateHolding(ctx context.Context, key domain.SlotKey, hold domain.Hold) (*domain.Reservation, error) {
	if !f.available() {
		return nil, reservationRepo.ErrStoreUnavailable
	}
	return f.store.CreateHolding(ctx, key, hold)
}

func (f *flakyStore) UpdateToHolding(ctx context.Context, prev *domain.Reservation, hold domain.Hold) (*domain.Reservation, error) {
	if !f.available() {
		return nil, reservationRepo.ErrStoreUnavailable
	}
	return f.store.UpdateToHolding(ctx, prev, hold)
}

var (
	testNow          = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	testPsychologist = uuid.NewString()
)

func bookingRequest(patientID string) *Request {
	return &Request{
		CallerID:       patientID,
		PsychologistID: testPsychologist,
		PatientID:      patientID,
		Date:           time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime:      "10:00",
		EndTime:        "10:50",
		SessionPrice:   16000,
	}
}

func newMemoryUseCase(metrics *metricsStub) *UseCase {
	clock := &fixedClock{now: testNow}
	primary := lock.NewManager(reservationRepo.NewMemoryRepository(), logger.NewNop(), lock.WithTimeProvider(clock))
	return NewUseCase(primary, nil, metrics, logger.NewNop()).WithTimeProvider(clock)
}

func newIntentLocker(t *testing.T) *lock.IntentManager {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return lock.NewIntentManager(intentRepo.NewRepository(client), logger.NewNop(),
		lock.WithTimeProvider(&fixedClock{now: testNow}))
}

func TestUseCase_Execute_Validation(t *testing.T) {
	patient := uuid.NewString()

	tests := []struct {
		name    string
		mutate  func(r *Request)
		wantErr error
	}{
		{name: "psychologist id is not a uuid", mutate: func(r *Request) { r.PsychologistID = "psy-1" }, wantErr: ErrInvalidInput},
		{name: "patient id is not a uuid", mutate: func(r *Request) { r.PatientID = "42"; r.CallerID = "42" }, wantErr: ErrInvalidInput},
		{name: "missing date", mutate: func(r *Request) { r.Date = time.Time{} }, wantErr: ErrInvalidInput},
		{name: "malformed start time", mutate: func(r *Request) { r.StartTime = "25:00" }, wantErr: ErrInvalidInput},
		{name: "end before start", mutate: func(r *Request) { r.EndTime = "09:50" }, wantErr: ErrInvalidInput},
		{name: "zero price", mutate: func(r *Request) { r.SessionPrice = 0 }, wantErr: ErrInvalidInput},
		{name: "negative price", mutate: func(r *Request) { r.SessionPrice = -100 }, wantErr: ErrInvalidInput},
		{name: "caller is someone else", mutate: func(r *Request) { r.CallerID = uuid.NewString() }, wantErr: ErrUnauthorized},
		{name: "missing caller", mutate: func(r *Request) { r.CallerID = "" }, wantErr: ErrUnauthorized},
		{name: "slot in the past", mutate: func(r *Request) { r.Date = testNow; r.StartTime = "11:00"; r.EndTime = "11:50" }, wantErr: ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &lockerSpy{}
			uc := NewUseCase(spy, nil, newMetricsStub(), logger.NewNop()).
				WithTimeProvider(&fixedClock{now: testNow})

			req := bookingRequest(patient)
			tt.mutate(req)

			_, err := uc.Execute(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, spy.calls, "store must not be touched")
		})
	}
}

func TestUseCase_Execute_SuccessAndContention(t *testing.T) {
	metrics := newMetricsStub()
	uc := newMemoryUseCase(metrics)
	ctx := context.Background()

	resp, err := uc.Execute(ctx, bookingRequest(uuid.NewString()))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.BookingID)
	assert.Equal(t, domain.SourceReservation, resp.Source)
	assert.True(t, resp.ExpiresAt.Equal(testNow.Add(domain.DefaultHoldDuration)))

	resp, err = uc.Execute(ctx, bookingRequest(uuid.NewString()))
	require.NoError(t, err, "contention is not an error")
	assert.False(t, resp.Success)
	assert.Equal(t, domain.ReasonSlotHeld, resp.Reason)
	assert.Equal(t, "slot unavailable: try again shortly", resp.Message())

	assert.Equal(t, 1, metrics.attempts["reservation/success"])
	assert.Equal(t, 1, metrics.attempts["reservation/contention"])
}

func TestUseCase_Execute_MutualExclusion(t *testing.T) {
	uc := newMemoryUseCase(newMetricsStub())

	const callers = 30
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		rejected int
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := uc.Execute(context.Background(), bookingRequest(uuid.NewString()))
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if resp.Success {
				success++
			} else {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, callers-1, rejected)
}

func TestUseCase_Execute_Fallback(t *testing.T) {
	metrics := newMetricsStub()
	clock := &fixedClock{now: testNow}
	primary := lock.NewManager(unavailableStore{}, logger.NewNop(), lock.WithTimeProvider(clock))
	uc := NewUseCase(primary, newIntentLocker(t), metrics, logger.NewNop()).WithTimeProvider(clock)
	ctx := context.Background()

	resp, err := uc.Execute(ctx, bookingRequest(uuid.NewString()))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, domain.SourceIntent, resp.Source)
	assert.True(t, resp.ExpiresAt.Equal(testNow.Add(domain.DefaultHoldDuration)))

	// уникальность соблюдается и на резервном пути, форма ответа та же
	resp, err = uc.Execute(ctx, bookingRequest(uuid.NewString()))
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, domain.ReasonSlotHeld, resp.Reason)

	assert.Equal(t, 1, metrics.attempts["reservation/unavailable"], "primary is not asked again")
	assert.Equal(t, 1, metrics.attempts["intent/success"])
	assert.Equal(t, 1, metrics.attempts["intent/contention"])
}

func TestUseCase_Execute_PrimaryRecoversAfterFallback(t *testing.T) {
	metrics := newMetricsStub()
	clock := &fixedClock{now: testNow}
	slots := &flakyStore{store: reservationRepo.NewMemoryRepository()}
	primary := lock.NewManager(slots, logger.NewNop(), lock.WithTimeProvider(clock))
	uc := NewUseCase(primary, newIntentLocker(t), metrics, logger.NewNop()).WithTimeProvider(clock)
	ctx := context.Background()

	resp, err := uc.Execute(ctx, bookingRequest(uuid.NewString()))
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, domain.SourceIntent, resp.Source)

	// таблица слотов появилась, но холд первого пациента лежит только в намерениях
	slots.recover()

	resp, err = uc.Execute(ctx, bookingRequest(uuid.NewString()))
	require.NoError(t, err)
	assert.False(t, resp.Success, "slot must not be booked twice")
	assert.Equal(t, domain.SourceIntent, resp.Source)
	assert.Equal(t, domain.ReasonSlotHeld, resp.Reason)

	_, err = slots.store.FindByKey(ctx, domain.SlotKey{
		PsychologistID: testPsychologist,
		Date:           time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime:      "10:00",
	})
	assert.ErrorIs(t, err, reservationRepo.ErrReservationNotFound)
	assert.Equal(t, 1, metrics.attempts["reservation/unavailable"])
	assert.Zero(t, metrics.attempts["reservation/success"])
}

func TestUseCase_Execute_FallbackMutualExclusion(t *testing.T) {
	clock := &fixedClock{now: testNow}
	primary := lock.NewManager(unavailableStore{}, logger.NewNop(), lock.WithTimeProvider(clock))
	uc := NewUseCase(primary, newIntentLocker(t), newMetricsStub(), logger.NewNop()).WithTimeProvider(clock)

	const callers = 20
	results := make(chan bool, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := uc.Execute(context.Background(), bookingRequest(uuid.NewString()))
			if assert.NoError(t, err) {
				results <- resp.Success
			}
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	for ok := range results {
		if ok {
			success++
		}
	}
	assert.Equal(t, 1, success)
}

func TestUseCase_Execute_NoStoreAvailable(t *testing.T) {
	clock := &fixedClock{now: testNow}
	primary := lock.NewManager(unavailableStore{}, logger.NewNop(), lock.WithTimeProvider(clock))

	t.Run("without fallback", func(t *testing.T) {
		uc := NewUseCase(primary, nil, newMetricsStub(), logger.NewNop()).WithTimeProvider(clock)
		_, err := uc.Execute(context.Background(), bookingRequest(uuid.NewString()))
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})

	t.Run("fallback also down", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		t.Cleanup(func() { client.Close() })
		mr.Close()

		fallback := lock.NewIntentManager(intentRepo.NewRepository(client), logger.NewNop(), lock.WithTimeProvider(clock))
		uc := NewUseCase(primary, fallback, newMetricsStub(), logger.NewNop()).WithTimeProvider(clock)

		_, err = uc.Execute(context.Background(), bookingRequest(uuid.NewString()))
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})
}
