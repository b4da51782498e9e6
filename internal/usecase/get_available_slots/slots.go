package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	"github.com/m04kA/SMC-TherapyBooking/pkg/types"
)

// interval занятый интервал в пределах дня
type interval struct {
	start types.TimeString
	end   types.TimeString
}

// freeSlots оставляет слоты, которые не пересекаются с занятыми интервалами
// и начинаются не раньше earliest
func freeSlots(candidates []domain.TimeSlot, busy []interval, date time.Time, earliest time.Time, duration int) []Slot {
	result := make([]Slot, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Start.On(date).Before(earliest) {
			continue
		}
		if overlapsAny(candidate, busy) {
			continue
		}
		result = append(result, Slot{
			StartTime:       candidate.Start,
			EndTime:         candidate.End,
			DurationMinutes: duration,
		})
	}
	return result
}

// overlapsAny проверяет пересечение слота с занятыми интервалами.
// Интервалы, граничащие концом и началом, не пересекаются:
// - слот 10:00-10:50, занято 10:50-11:40 → нет пересечения
// - слот 10:00-10:50, занято 10:30-11:20 → есть пересечение
func overlapsAny(slot domain.TimeSlot, busy []interval) bool {
	for _, b := range busy {
		if b.start.IsBefore(slot.End) && b.end.IsAfter(slot.Start) {
			return true
		}
	}
	return false
}

// busyFromReservations собирает интервалы, занятые записями хранилища слотов
func busyFromReservations(reservations []*domain.Reservation) []interval {
	result := make([]interval, 0, len(reservations))
	for _, res := range reservations {
		result = append(result, interval{start: res.StartTime, end: res.EndTime})
	}
	return result
}

// busyFromIntents собирает интервалы, занятые намерениями бронирования
func busyFromIntents(intents []*domain.BookingIntent) []interval {
	result := make([]interval, 0, len(intents))
	for _, intent := range intents {
		result = append(result, interval{start: intent.StartTime, end: intent.EndTime})
	}
	return result
}
