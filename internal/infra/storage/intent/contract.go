package intent

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
)

// RedisClient поддерживает *redis.Client и *redis.ClusterClient
type RedisClient = redis.UniversalClient

// Схема ключей:
//
//	intent:{id}                           hash с полями намерения
//	intent:slot:{psy}:{date}:{HH:MM}      id неотмененного намерения, занимающего слот
//	intents:pending                       zset id ожидающих оплаты, score = expires_at (ms)
const (
	intentKeyPrefix = "intent:"
	slotKeyPrefix   = "intent:slot:"
	pendingKey      = "intents:pending"
)

// Поля hash намерения
const (
	fieldPsychologistID = "psychologist_id"
	fieldPatientID      = "patient_id"
	fieldScheduledDate  = "scheduled_date"
	fieldStartTime      = "start_time"
	fieldEndTime        = "end_time"
	fieldSessionPrice   = "session_price"
	fieldStatus         = "status"
	fieldExpiresAt      = "expires_at"
	fieldCreatedAt      = "created_at"
)

// Ответы скриптов
const (
	resultCreated  = "created"
	resultExtended = "extended"
	resultBooked   = "booked"
	resultHeld     = "held"
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultStale    = "stale"
	resultAlready  = "already"
)

// Expired истекшее намерение, найденное при сканировании
type Expired struct {
	ID        string
	ExpiresAt time.Time
}

func intentKey(id string) string {
	return intentKeyPrefix + id
}

func slotKey(key domain.SlotKey) string {
	return fmt.Sprintf("%s%s:%s:%s", slotKeyPrefix, key.PsychologistID, key.Date.Format(domain.DateFormat), key.StartTime)
}

func slotPattern(psychologistID string, date time.Time) string {
	return fmt.Sprintf("%s%s:%s:*", slotKeyPrefix, psychologistID, date.Format(domain.DateFormat))
}
