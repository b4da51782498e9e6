package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	"github.com/m04kA/SMC-TherapyBooking/pkg/psqlbuilder"
)

// Repository хранилище слотов в PostgreSQL.
// Взаимное исключение обеспечивается частичным уникальным индексом
// (psychologist_id, scheduled_date, start_time) WHERE lock_state <> 'cancelled'
// и условными UPDATE/DELETE, без блокировок на стороне приложения.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// CheckAvailable проверяет, что таблица слотов существует в этой инсталляции
func (r *Repository) CheckAvailable(ctx context.Context) error {
	var regclass sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT to_regclass($1)::text", "public."+tableName).Scan(&regclass)
	if err != nil {
		return fmt.Errorf("%w: CheckAvailable - %v", ErrExecQuery, err)
	}
	if !regclass.Valid {
		return ErrStoreUnavailable
	}
	return nil
}

// FindByKey возвращает запись слота. Если по ключу есть несколько записей
// (отмененные + актуальная), предпочитается неотмененная.
func (r *Repository) FindByKey(ctx context.Context, key domain.SlotKey) (*domain.Reservation, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{
			"psychologist_id": key.PsychologistID,
			"scheduled_date":  key.Date.Format(domain.DateFormat),
			"start_time":      key.StartTime.String(),
		}).
		OrderBy("CASE WHEN lock_state = 'cancelled' THEN 1 ELSE 0 END", "updated_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindByKey - build select query: %v", ErrBuildQuery, err)
	}

	res, err := scanReservation(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, r.wrapError("FindByKey", err)
	}
	return res, nil
}

// GetByID получает запись слота по ID
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	res, err := scanReservation(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, r.wrapError("GetByID", err)
	}
	return res, nil
}

// CreateHolding создает запись в состоянии holding.
// Если конкурентная вставка по тому же ключу уже прошла, возвращает ErrConflict.
func (r *Repository) CreateHolding(ctx context.Context, key domain.SlotKey, hold domain.Hold) (*domain.Reservation, error) {
	hold = normalizeHold(hold)
	res := &domain.Reservation{
		ID:             uuid.NewString(),
		PsychologistID: key.PsychologistID,
		ScheduledDate:  key.Date,
		StartTime:      key.StartTime,
		EndTime:        hold.EndTime,
		LockState:      domain.LockStateHolding,
		LockedBy:       &hold.PatientID,
		LockedAt:       &hold.LockedAt,
		LockExpiresAt:  &hold.ExpiresAt,
		SessionPrice:   hold.SessionPrice,
	}

	query, args, err := psqlbuilder.Insert(tableName).
		Columns(
			"id",
			"psychologist_id",
			"scheduled_date",
			"start_time",
			"end_time",
			"lock_state",
			"locked_by",
			"locked_at",
			"lock_expires_at",
			"session_price",
		).
		Values(
			res.ID,
			res.PsychologistID,
			key.Date.Format(domain.DateFormat),
			res.StartTime.String(),
			res.EndTime.String(),
			res.LockState,
			hold.PatientID,
			hold.LockedAt,
			hold.ExpiresAt,
			res.SessionPrice,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateHolding - build insert query: %v", ErrBuildQuery, err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, r.wrapError("CreateHolding", err)
	}

	return res, nil
}

// UpdateToHolding переводит существующую запись в holding для нового пациента.
// Обновление условное: запись должна оставаться в том же состоянии и с тем же
// lock_expires_at, что были прочитаны (prev), и при этом быть свободной
// (cancelled или истекший holding) либо принадлежать тому же пациенту.
// Иначе возвращается ErrStaleState.
func (r *Repository) UpdateToHolding(ctx context.Context, prev *domain.Reservation, hold domain.Hold) (*domain.Reservation, error) {
	hold = normalizeHold(hold)

	freeOrOwn := squirrel.Or{
		squirrel.Eq{"lock_state": domain.LockStateCancelled},
		squirrel.And{
			squirrel.Eq{"lock_state": domain.LockStateHolding},
			squirrel.Or{
				squirrel.LtOrEq{"lock_expires_at": hold.LockedAt},
				squirrel.Eq{"locked_by": hold.PatientID},
			},
		},
	}

	query, args, err := psqlbuilder.Update(tableName).
		Set("lock_state", domain.LockStateHolding).
		Set("locked_by", hold.PatientID).
		Set("locked_at", hold.LockedAt).
		Set("lock_expires_at", hold.ExpiresAt).
		Set("end_time", hold.EndTime.String()).
		Set("session_price", hold.SessionPrice).
		Set("patient_id", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": prev.ID, "lock_state": prev.LockState}).
		Where(squirrel.Expr("lock_expires_at IS NOT DISTINCT FROM ?", prev.LockExpiresAt)).
		Where(freeOrOwn).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: UpdateToHolding - build update query: %v", ErrBuildQuery, err)
	}

	res, err := scanReservation(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaleState
		}
		return nil, r.wrapError("UpdateToHolding", err)
	}
	return res, nil
}

// SetState выполняет условный переход состояния.
// Подтверждение (holding -> confirmed) требует действующего холда; patient_id
// привязывается к владельцу холда.
func (r *Repository) SetState(ctx context.Context, id string, change domain.StateChange) (*domain.Reservation, error) {
	if !domain.CanTransition(change.From, change.To) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, change.From, change.To)
	}

	builder := psqlbuilder.Update(tableName).
		Set("lock_state", change.To).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "lock_state": change.From})

	if change.LockedBy != nil {
		builder = builder.Where(squirrel.Eq{"locked_by": *change.LockedBy})
	}
	if change.From == domain.LockStateHolding && change.To == domain.LockStateConfirmed {
		builder = builder.
			Set("patient_id", squirrel.Expr("locked_by")).
			Where(squirrel.Gt{"lock_expires_at": change.Now})
	}

	query, args, err := builder.Suffix("RETURNING " + joinColumns()).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: SetState - build update query: %v", ErrBuildQuery, err)
	}

	res, err := scanReservation(r.db.QueryRowContext(ctx, query, args...))
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, r.wrapError("SetState", err)
	}

	// Условие не выполнилось: различаем отсутствие записи и изменившееся состояние
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStaleState
}

// ListExpiredHoldings возвращает истекшие холды, самые старые первыми
func (r *Repository) ListExpiredHoldings(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"lock_state": domain.LockStateHolding}).
		Where(squirrel.LtOrEq{"lock_expires_at": now}).
		OrderBy("lock_expires_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredHoldings - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.wrapError("ListExpiredHoldings", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// ReleaseExpiredHolding переводит истекший холд в cancelled, запись остается для истории.
// expiresAt - значение lock_expires_at, прочитанное при сканировании:
// если запись с тех пор перехватили (новый холд), обновление не произойдет.
func (r *Repository) ReleaseExpiredHolding(ctx context.Context, id string, expiresAt time.Time, now time.Time) (bool, error) {
	query, args, err := psqlbuilder.Update(tableName).
		Set("lock_state", domain.LockStateCancelled).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{
			"id":              id,
			"lock_state":      domain.LockStateHolding,
			"lock_expires_at": expiresAt,
		}).
		Where(squirrel.LtOrEq{"lock_expires_at": now}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: ReleaseExpiredHolding - build update query: %v", ErrBuildQuery, err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, r.wrapError("ReleaseExpiredHolding", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: ReleaseExpiredHolding - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected == 1, nil
}

// ListActiveByPsychologistDate возвращает записи, занимающие слоты психолога на дату:
// confirmed, completed и действующие холды
func (r *Repository) ListActiveByPsychologistDate(ctx context.Context, psychologistID string, date time.Time, now time.Time) ([]*domain.Reservation, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{
			"psychologist_id": psychologistID,
			"scheduled_date":  date.Format(domain.DateFormat),
		}).
		Where(squirrel.Or{
			squirrel.Eq{"lock_state": []string{
				string(domain.LockStateConfirmed),
				string(domain.LockStateCompleted),
			}},
			squirrel.And{
				squirrel.Eq{"lock_state": domain.LockStateHolding},
				squirrel.Gt{"lock_expires_at": now},
			},
		}).
		OrderBy("start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByPsychologistDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.wrapError("ListActiveByPsychologistDate", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// wrapError приводит ошибки драйвера к ошибкам репозитория
func (r *Repository) wrapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrReservationNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return ErrConflict
		case pgUndefinedTable, pgUndefinedColumn, pgUndefinedFunc:
			return fmt.Errorf("%w: %s - %v", ErrStoreUnavailable, op, err)
		}
	}

	return fmt.Errorf("%w: %s - %v", ErrExecQuery, op, err)
}

// normalizeHold обрезает время до микросекунд (точность timestamptz),
// чтобы сравнения по lock_expires_at совпадали с тем, что лежит в БД
func normalizeHold(hold domain.Hold) domain.Hold {
	hold.LockedAt = hold.LockedAt.Truncate(time.Microsecond)
	hold.ExpiresAt = hold.ExpiresAt.Truncate(time.Microsecond)
	return hold
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&res.ID,
		&res.PsychologistID,
		&res.ScheduledDate,
		&res.StartTime,
		&res.EndTime,
		&res.LockState,
		&res.LockedBy,
		&res.LockedAt,
		&res.LockExpiresAt,
		&res.PatientID,
		&res.SessionPrice,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time
	return &res, nil
}

func scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	result := make([]*domain.Reservation, 0)

	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanReservations - scan row: %v", ErrScanRow, err)
		}
		result = append(result, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanReservations - rows error: %v", ErrScanRow, err)
	}

	return result, nil
}

func joinColumns() string {
	return strings.Join(columns, ", ")
}
