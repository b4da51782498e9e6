package intent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	"github.com/m04kA/SMC-TherapyBooking/pkg/types"
)

// Repository хранилище намерений бронирования в Redis.
// Уникальность по слоту и истечение проверяются Lua скриптами атомарно;
// текущее время передается в скрипт, TTL ключей не используется.
type Repository struct {
	client RedisClient
}

// NewRepository создает новый экземпляр репозитория намерений
func NewRepository(client RedisClient) *Repository {
	return &Repository{client: client}
}

// CheckAvailable проверяет соединение с Redis
func (r *Repository) CheckAvailable(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: CheckAvailable - %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Create создает намерение в статусе pending_payment, если слот свободен.
// Действующее намерение того же пациента продлевается до intent.ExpiresAt.
// Занятый слот: ErrSlotBooked (подтвержден) или ErrSlotHeld (ожидает оплаты).
func (r *Repository) Create(ctx context.Context, intent domain.BookingIntent, now time.Time) (*domain.BookingIntent, error) {
	if intent.ID == "" {
		intent.ID = uuid.NewString()
	}

	keys := []string{slotKey(intent.Key()), pendingKey}
	args := []interface{}{
		intent.ID,
		now.UnixMilli(),
		intent.ExpiresAt.UnixMilli(),
		intent.PatientID,
		intent.PsychologistID,
		intent.ScheduledDate.Format(domain.DateFormat),
		intent.StartTime.String(),
		intent.EndTime.String(),
		intent.SessionPrice,
		intentKeyPrefix,
	}

	reply, err := createScript.Run(ctx, r.client, keys, args...).StringSlice()
	if err != nil {
		return nil, r.wrapError("Create", err)
	}
	if len(reply) < 2 {
		return nil, fmt.Errorf("%w: Create - unexpected reply %v", ErrExecScript, reply)
	}

	switch reply[0] {
	case resultBooked:
		return nil, ErrSlotBooked
	case resultHeld:
		return nil, ErrSlotHeld
	case resultCreated, resultExtended:
		if len(reply) < 3 {
			return nil, fmt.Errorf("%w: Create - unexpected reply %v", ErrExecScript, reply)
		}
		createdAt, err := parseMillis(reply[2])
		if err != nil {
			return nil, fmt.Errorf("%w: Create - created_at: %v", ErrDecode, err)
		}
		intent.ID = reply[1]
		intent.Status = domain.IntentPendingPayment
		intent.ExpiresAt = time.UnixMilli(intent.ExpiresAt.UnixMilli()).UTC()
		intent.CreatedAt = createdAt
		return &intent, nil
	default:
		return nil, fmt.Errorf("%w: Create - unexpected reply %v", ErrExecScript, reply)
	}
}

// Get получает намерение по ID
func (r *Repository) Get(ctx context.Context, id string) (*domain.BookingIntent, error) {
	fields, err := r.client.HGetAll(ctx, intentKey(id)).Result()
	if err != nil {
		return nil, r.wrapError("Get", err)
	}
	if len(fields) == 0 {
		return nil, ErrIntentNotFound
	}

	return decodeIntent(id, fields)
}

// Confirm переводит намерение в confirmed. Намерение должно ожидать оплаты,
// принадлежать пациенту и не истечь, иначе ErrStaleState.
func (r *Repository) Confirm(ctx context.Context, id string, patientID string, now time.Time) (*domain.BookingIntent, error) {
	reply, err := confirmScript.Run(ctx, r.client, []string{intentKey(id), pendingKey}, id, patientID, now.UnixMilli()).Text()
	if err != nil {
		return nil, r.wrapError("Confirm", err)
	}

	switch reply {
	case resultOK:
		return r.Get(ctx, id)
	case resultNotFound:
		return nil, ErrIntentNotFound
	case resultStale:
		return nil, ErrStaleState
	default:
		return nil, fmt.Errorf("%w: Confirm - unexpected reply %q", ErrExecScript, reply)
	}
}

// Cancel отменяет намерение и освобождает слот.
// expected - статус, прочитанный вызывающим; пустой статус отключает проверку.
// Возвращает alreadyCancelled=true, если намерение уже было отменено.
func (r *Repository) Cancel(ctx context.Context, id string, expected domain.IntentStatus) (bool, error) {
	reply, err := cancelScript.Run(ctx, r.client, []string{intentKey(id), pendingKey}, id, slotKeyPrefix, string(expected)).Text()
	if err != nil {
		return false, r.wrapError("Cancel", err)
	}

	switch reply {
	case resultOK:
		return false, nil
	case resultAlready:
		return true, nil
	case resultNotFound:
		return false, ErrIntentNotFound
	case resultStale:
		return false, ErrStaleState
	default:
		return false, fmt.Errorf("%w: Cancel - unexpected reply %q", ErrExecScript, reply)
	}
}

// ListExpired возвращает намерения, ожидающие оплаты, срок которых истек
func (r *Repository) ListExpired(ctx context.Context, now time.Time, limit int) ([]Expired, error) {
	entries, err := r.client.ZRangeByScoreWithScores(ctx, pendingKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, r.wrapError("ListExpired", err)
	}

	result := make([]Expired, 0, len(entries))
	for _, entry := range entries {
		id, ok := entry.Member.(string)
		if !ok {
			continue
		}
		result = append(result, Expired{
			ID:        id,
			ExpiresAt: time.UnixMilli(int64(entry.Score)).UTC(),
		})
	}
	return result, nil
}

// DeleteExpired удаляет истекшее намерение, если оно не было продлено после сканирования
func (r *Repository) DeleteExpired(ctx context.Context, id string, expiresAt time.Time, now time.Time) (bool, error) {
	deleted, err := sweepScript.Run(ctx, r.client, []string{intentKey(id), pendingKey},
		id,
		strconv.FormatInt(expiresAt.UnixMilli(), 10),
		now.UnixMilli(),
		slotKeyPrefix,
	).Int64()
	if err != nil {
		return false, r.wrapError("DeleteExpired", err)
	}
	return deleted == 1, nil
}

// ListActiveByPsychologistDate возвращает намерения, занимающие слоты психолога на дату
func (r *Repository) ListActiveByPsychologistDate(ctx context.Context, psychologistID string, date time.Time, now time.Time) ([]*domain.BookingIntent, error) {
	result := make([]*domain.BookingIntent, 0)

	iter := r.client.Scan(ctx, 0, slotPattern(psychologistID, date), 100).Iterator()
	for iter.Next(ctx) {
		id, err := r.client.Get(ctx, iter.Val()).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, r.wrapError("ListActiveByPsychologistDate", err)
		}

		intent, err := r.Get(ctx, id)
		if errors.Is(err, ErrIntentNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if intent.OccupiesSlot(now) {
			result = append(result, intent)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, r.wrapError("ListActiveByPsychologistDate", err)
	}

	return result, nil
}

// wrapError приводит ошибки клиента Redis к ошибкам репозитория
func (r *Repository) wrapError(op string, err error) error {
	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		return fmt.Errorf("%w: %s - %v", ErrExecScript, op, err)
	}
	return fmt.Errorf("%w: %s - %v", ErrStoreUnavailable, op, err)
}

func decodeIntent(id string, fields map[string]string) (*domain.BookingIntent, error) {
	date, err := time.Parse(domain.DateFormat, fields[fieldScheduledDate])
	if err != nil {
		return nil, fmt.Errorf("%w: scheduled_date: %v", ErrDecode, err)
	}
	start, err := types.NewTimeStringFromString(fields[fieldStartTime])
	if err != nil {
		return nil, fmt.Errorf("%w: start_time: %v", ErrDecode, err)
	}
	end, err := types.NewTimeStringFromString(fields[fieldEndTime])
	if err != nil {
		return nil, fmt.Errorf("%w: end_time: %v", ErrDecode, err)
	}
	price, err := strconv.ParseInt(fields[fieldSessionPrice], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: session_price: %v", ErrDecode, err)
	}
	expiresAt, err := parseMillis(fields[fieldExpiresAt])
	if err != nil {
		return nil, fmt.Errorf("%w: expires_at: %v", ErrDecode, err)
	}
	createdAt, err := parseMillis(fields[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("%w: created_at: %v", ErrDecode, err)
	}

	return &domain.BookingIntent{
		ID:             id,
		PsychologistID: fields[fieldPsychologistID],
		PatientID:      fields[fieldPatientID],
		ScheduledDate:  date,
		StartTime:      start,
		EndTime:        end,
		SessionPrice:   price,
		Status:         domain.IntentStatus(fields[fieldStatus]),
		ExpiresAt:      expiresAt,
		CreatedAt:      createdAt,
	}, nil
}

func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
