package create_booking

import (
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	"github.com/m04kA/SMC-TherapyBooking/pkg/types"
)

// Request модель запроса на бронирование слота
type Request struct {
	CallerID       string           // ID вызывающего пользователя (из контекста аутентификации)
	PsychologistID string           // ID психолога
	PatientID      string           // ID пациента, для которого бронируется слот
	Date           time.Time        // Дата сессии (без времени)
	StartTime      types.TimeString // Время начала, например "10:00"
	EndTime        types.TimeString // Время окончания, например "10:50"
	SessionPrice   int64            // Цена сессии в минимальных единицах валюты
}

// Response результат попытки бронирования.
// При конкуренции за слот Success=false и заполнена Reason, ошибка не возвращается.
type Response struct {
	Success   bool
	BookingID string
	ExpiresAt time.Time
	Source    domain.BookingSource
	Reason    domain.FailureReason
}

// Message текст причины отказа для пользователя
func (r *Response) Message() string {
	if r.Success {
		return ""
	}
	return r.Reason.Message()
}
