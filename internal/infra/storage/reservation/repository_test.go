package reservation

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	"github.com/m04kA/SMC-TherapyBooking/pkg/ptr"
)

func setupRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(db), mock
}

func testKey() domain.SlotKey {
	return domain.SlotKey{
		PsychologistID: "psy-1",
		Date:           time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime:      "10:00",
	}
}

func reservationRows() *sqlmock.Rows {
	return sqlmock.NewRows(columns)
}

func TestRepository_FindByKey(t *testing.T) {
	repo, mock := setupRepository(t)
	key := testKey()
	expires := time.Date(2026, 3, 9, 12, 15, 0, 0, time.UTC)
	locked := expires.Add(-15 * time.Minute)

	mock.ExpectQuery("SELECT (.+) FROM slot_reservations WHERE (.+) ORDER BY (.+) LIMIT 1").
		WithArgs("psy-1", "2026-03-10", "10:00").
		WillReturnRows(reservationRows().AddRow(
			"res-1", "psy-1", key.Date, "10:00:00", "10:50:00", "holding",
			"patient-1", locked, expires, nil, int64(16000), locked, locked,
		))

	res, err := repo.FindByKey(context.Background(), key)
	require.NoError(t, err)

	assert.Equal(t, "res-1", res.ID)
	assert.Equal(t, domain.LockStateHolding, res.LockState)
	assert.Equal(t, "10:00", res.StartTime.String())
	assert.Equal(t, "10:50", res.EndTime.String())
	require.NotNil(t, res.LockedBy)
	assert.Equal(t, "patient-1", *res.LockedBy)
	assert.Nil(t, res.PatientID)
	assert.True(t, res.LockExpiresAt.Equal(expires))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByKey_NotFound(t *testing.T) {
	repo, mock := setupRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM slot_reservations").
		WillReturnRows(reservationRows())

	_, err := repo.FindByKey(context.Background(), testKey())
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateHolding(t *testing.T) {
	repo, mock := setupRepository(t)
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	hold := domain.Hold{
		PatientID:    "patient-1",
		EndTime:      "10:50",
		SessionPrice: 16000,
		LockedAt:     now,
		ExpiresAt:    now.Add(domain.DefaultHoldDuration),
	}

	mock.ExpectQuery("INSERT INTO slot_reservations (.+) RETURNING created_at, updated_at").
		WithArgs(sqlmock.AnyArg(), "psy-1", "2026-03-10", "10:00", "10:50", domain.LockStateHolding,
			"patient-1", hold.LockedAt, hold.ExpiresAt, int64(16000)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	res, err := repo.CreateHolding(context.Background(), testKey(), hold)
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, domain.LockStateHolding, res.LockState)
	assert.Equal(t, "patient-1", *res.LockedBy)
	assert.Equal(t, now, res.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateHolding_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{
			name:    "unique violation is a conflict",
			dbErr:   &pq.Error{Code: pgUniqueViolation},
			wantErr: ErrConflict,
		},
		{
			name:    "missing table means store unavailable",
			dbErr:   &pq.Error{Code: pgUndefinedTable},
			wantErr: ErrStoreUnavailable,
		},
		{
			name:    "missing column means store unavailable",
			dbErr:   &pq.Error{Code: pgUndefinedColumn},
			wantErr: ErrStoreUnavailable,
		},
		{
			name:    "other driver errors",
			dbErr:   sql.ErrConnDone,
			wantErr: ErrExecQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupRepository(t)
			mock.ExpectQuery("INSERT INTO slot_reservations").WillReturnError(tt.dbErr)

			_, err := repo.CreateHolding(context.Background(), testKey(), domain.Hold{
				PatientID: "patient-1",
				EndTime:   "10:50",
				LockedAt:  time.Now(),
				ExpiresAt: time.Now().Add(time.Minute),
			})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRepository_UpdateToHolding_Stale(t *testing.T) {
	repo, mock := setupRepository(t)
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	prevExpiry := now.Add(-time.Minute)
	prev := &domain.Reservation{
		ID:            "res-1",
		LockState:     domain.LockStateHolding,
		LockedBy:      ptr.Ptr("patient-1"),
		LockExpiresAt: &prevExpiry,
	}

	mock.ExpectQuery("UPDATE slot_reservations SET (.+) WHERE (.+)lock_expires_at IS NOT DISTINCT FROM(.+) RETURNING").
		WillReturnRows(reservationRows())

	_, err := repo.UpdateToHolding(context.Background(), prev, domain.Hold{
		PatientID: "patient-2",
		EndTime:   "10:50",
		LockedAt:  now,
		ExpiresAt: now.Add(domain.DefaultHoldDuration),
	})
	assert.ErrorIs(t, err, ErrStaleState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetState_Confirm(t *testing.T) {
	repo, mock := setupRepository(t)
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	expires := now.Add(10 * time.Minute)

	mock.ExpectQuery("UPDATE slot_reservations SET lock_state = \\$1, updated_at = NOW\\(\\), patient_id = locked_by WHERE (.+) RETURNING").
		WillReturnRows(reservationRows().AddRow(
			"res-1", "psy-1", now, "10:00", "10:50", "confirmed",
			"patient-1", now, expires, "patient-1", int64(16000), now, now,
		))

	res, err := repo.SetState(context.Background(), "res-1", domain.StateChange{
		From:     domain.LockStateHolding,
		To:       domain.LockStateConfirmed,
		LockedBy: ptr.Ptr("patient-1"),
		Now:      now,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LockStateConfirmed, res.LockState)
	require.NotNil(t, res.PatientID)
	assert.Equal(t, "patient-1", *res.PatientID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetState_StaleAndMissing(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	change := domain.StateChange{From: domain.LockStateHolding, To: domain.LockStateConfirmed, Now: now}

	t.Run("row exists in another state", func(t *testing.T) {
		repo, mock := setupRepository(t)
		mock.ExpectQuery("UPDATE slot_reservations").WillReturnRows(reservationRows())
		mock.ExpectQuery("SELECT (.+) FROM slot_reservations WHERE id = \\$1").
			WithArgs("res-1").
			WillReturnRows(reservationRows().AddRow(
				"res-1", "psy-1", now, "10:00", "10:50", "cancelled",
				"patient-1", now, now, nil, int64(0), now, now,
			))

		_, err := repo.SetState(context.Background(), "res-1", change)
		assert.ErrorIs(t, err, ErrStaleState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row does not exist", func(t *testing.T) {
		repo, mock := setupRepository(t)
		mock.ExpectQuery("UPDATE slot_reservations").WillReturnRows(reservationRows())
		mock.ExpectQuery("SELECT (.+) FROM slot_reservations WHERE id = \\$1").
			WithArgs("res-1").
			WillReturnRows(reservationRows())

		_, err := repo.SetState(context.Background(), "res-1", change)
		assert.ErrorIs(t, err, ErrReservationNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_SetState_InvalidTransition(t *testing.T) {
	repo, mock := setupRepository(t)

	_, err := repo.SetState(context.Background(), "res-1", domain.StateChange{
		From: domain.LockStateCompleted,
		To:   domain.LockStateHolding,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ReleaseExpiredHolding(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	expires := now.Add(-time.Minute)

	t.Run("released", func(t *testing.T) {
		repo, mock := setupRepository(t)
		mock.ExpectExec("UPDATE slot_reservations SET lock_state = \\$1, updated_at = NOW\\(\\) WHERE (.+)").
			WillReturnResult(sqlmock.NewResult(0, 1))

		released, err := repo.ReleaseExpiredHolding(context.Background(), "res-1", expires, now)
		require.NoError(t, err)
		assert.True(t, released)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("hold was taken over in between", func(t *testing.T) {
		repo, mock := setupRepository(t)
		mock.ExpectExec("UPDATE slot_reservations SET lock_state = \\$1, updated_at = NOW\\(\\) WHERE (.+)").
			WillReturnResult(sqlmock.NewResult(0, 0))

		released, err := repo.ReleaseExpiredHolding(context.Background(), "res-1", expires, now)
		require.NoError(t, err)
		assert.False(t, released)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_ListExpiredHoldings(t *testing.T) {
	repo, mock := setupRepository(t)
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM slot_reservations WHERE lock_state = \\$1 AND lock_expires_at <= \\$2 ORDER BY lock_expires_at ASC LIMIT 100").
		WithArgs(domain.LockStateHolding, now).
		WillReturnRows(reservationRows().
			AddRow("res-1", "psy-1", now, "10:00", "10:50", "holding", "p1", now, now.Add(-2*time.Minute), nil, int64(0), now, now).
			AddRow("res-2", "psy-1", now, "11:00", "11:50", "holding", "p2", now, now.Add(-time.Minute), nil, int64(0), now, now))

	list, err := repo.ListExpiredHoldings(context.Background(), now, 100)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "res-1", list[0].ID)
	assert.Equal(t, "res-2", list[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CheckAvailable(t *testing.T) {
	t.Run("table exists", func(t *testing.T) {
		repo, mock := setupRepository(t)
		mock.ExpectQuery("SELECT to_regclass").
			WithArgs("public.slot_reservations").
			WillReturnRows(sqlmock.NewRows([]string{"to_regclass"}).AddRow("slot_reservations"))

		assert.NoError(t, repo.CheckAvailable(context.Background()))
	})

	t.Run("table missing", func(t *testing.T) {
		repo, mock := setupRepository(t)
		mock.ExpectQuery("SELECT to_regclass").
			WillReturnRows(sqlmock.NewRows([]string{"to_regclass"}).AddRow(nil))

		assert.ErrorIs(t, repo.CheckAvailable(context.Background()), ErrStoreUnavailable)
	})
}
