package get_available_days

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	profileClient "github.com/m04kA/SMC-TherapyBooking/internal/integrations/profileservice"
	"github.com/m04kA/SMC-TherapyBooking/pkg/logger"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

type profileStub struct {
	rules []domain.AvailabilityRule
	err   error
}

func (p *profileStub) GetAvailabilityRules(ctx context.Context, psychologistID string) ([]domain.AvailabilityRule, error) {
	return p.rules, p.err
}

// понедельник, 9 марта 2026
var testNow = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

func TestUseCase_Execute(t *testing.T) {
	profiles := &profileStub{rules: []domain.AvailabilityRule{
		{DayOfWeek: time.Monday, StartTime: "09:00", EndTime: "12:00"},
		{DayOfWeek: time.Thursday, StartTime: "14:00", EndTime: "18:00"},
	}}
	uc := NewUseCase(profiles, 24, logger.NewNop()).WithTimeProvider(&fixedClock{now: testNow})

	resp, err := uc.Execute(context.Background(), &Request{PsychologistID: uuid.NewString(), Count: 3})
	require.NoError(t, err)
	require.Len(t, resp.Days, 3)

	// сегодняшний понедельник пропущен из-за запаса в 24 часа
	assert.Equal(t, "2026-03-12", resp.Days[0].Date.Format(domain.DateFormat))
	assert.Equal(t, time.Thursday, resp.Days[0].Weekday)
	assert.Equal(t, 3, resp.Days[0].PackageSessions) // 12, 19, 26 марта

	assert.Equal(t, "2026-03-16", resp.Days[1].Date.Format(domain.DateFormat))
	assert.Equal(t, 3, resp.Days[1].PackageSessions) // 16, 23, 30 марта

	assert.Equal(t, "2026-03-19", resp.Days[2].Date.Format(domain.DateFormat))
	assert.Equal(t, 2, resp.Days[2].PackageSessions)
}

func TestUseCase_Execute_DefaultCount(t *testing.T) {
	profiles := &profileStub{rules: []domain.AvailabilityRule{
		{DayOfWeek: time.Wednesday, StartTime: "09:00", EndTime: "12:00"},
	}}
	uc := NewUseCase(profiles, 0, logger.NewNop()).WithTimeProvider(&fixedClock{now: testNow})

	resp, err := uc.Execute(context.Background(), &Request{PsychologistID: uuid.NewString()})
	require.NoError(t, err)
	assert.Len(t, resp.Days, DefaultCount)
}

func TestUseCase_Execute_NoRules(t *testing.T) {
	uc := NewUseCase(&profileStub{}, 24, logger.NewNop()).WithTimeProvider(&fixedClock{now: testNow})

	resp, err := uc.Execute(context.Background(), &Request{PsychologistID: uuid.NewString(), Count: 5})
	require.NoError(t, err)
	assert.Empty(t, resp.Days)
}

func TestUseCase_Execute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		profile *profileStub
		req     *Request
		wantErr error
	}{
		{name: "invalid id", profile: &profileStub{}, req: &Request{PsychologistID: "x"}, wantErr: ErrInvalidInput},
		{name: "negative count", profile: &profileStub{}, req: &Request{PsychologistID: uuid.NewString(), Count: -1}, wantErr: ErrInvalidInput},
		{name: "count too large", profile: &profileStub{}, req: &Request{PsychologistID: uuid.NewString(), Count: domain.MaxAvailableDays + 1}, wantErr: ErrInvalidInput},
		{name: "unknown psychologist", profile: &profileStub{err: profileClient.ErrPsychologistNotFound}, req: &Request{PsychologistID: uuid.NewString()}, wantErr: ErrPsychologistNotFound},
		{name: "profile service down", profile: &profileStub{err: profileClient.ErrServiceUnavailable}, req: &Request{PsychologistID: uuid.NewString()}, wantErr: ErrProfileUnavailable},
		{name: "bad profile response", profile: &profileStub{err: profileClient.ErrInvalidResponse}, req: &Request{PsychologistID: uuid.NewString()}, wantErr: ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewUseCase(tt.profile, 24, logger.NewNop()).WithTimeProvider(&fixedClock{now: testNow})
			_, err := uc.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
