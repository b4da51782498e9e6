package schedule

import (
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	"github.com/m04kA/SMC-TherapyBooking/pkg/types"
)

// NextAvailableDays возвращает до count ближайших дат (по возрастанию), в которые
// у психолога есть прием по правилам rules. Отсчет начинается с календарного дня
// момента now + minHoursAhead часов. Перебирается не более domain.MaxDaysScanned дней.
func NextAvailableDays(now time.Time, rules []domain.AvailabilityRule, count int, minHoursAhead int) []time.Time {
	days := make([]time.Time, 0)
	if count <= 0 || len(rules) == 0 {
		return days
	}
	if minHoursAhead < 0 {
		minHoursAhead = 0
	}

	weekdays := make(map[time.Weekday]bool, len(rules))
	for _, rule := range rules {
		weekdays[rule.DayOfWeek] = true
	}

	start := DateOnly(now.Add(time.Duration(minHoursAhead) * time.Hour))
	for i := 0; i < domain.MaxDaysScanned && len(days) < count; i++ {
		day := start.AddDate(0, 0, i)
		if weekdays[day.Weekday()] {
			days = append(days, day)
		}
	}

	return days
}

// RemainingWeekdayOccurrences считает, сколько раз день недели weekday встречается
// с даты from (включительно) до конца ее месяца (включительно). Минимум 1.
// Используется для расчета размера пакета сессий на месяц.
func RemainingWeekdayOccurrences(from time.Time, weekday time.Weekday) int {
	start := DateOnly(from)
	lastDay := time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, start.Location()).Day()

	offset := (int(weekday) - int(start.Weekday()) + 7) % 7
	first := start.Day() + offset
	if first > lastDay {
		return 1
	}

	return (lastDay-first)/7 + 1
}

// GenerateTimeSlots нарезает интервал [start, end) на сессии длиной durationMinutes
// с перерывом gapMinutes. Слот включается, если его конец не позже end.
func GenerateTimeSlots(start, end types.TimeString, durationMinutes, gapMinutes int) []domain.TimeSlot {
	slots := make([]domain.TimeSlot, 0)
	if durationMinutes <= 0 {
		return slots
	}
	if gapMinutes < 0 {
		gapMinutes = 0
	}

	startMin, endMin := start.Minutes(), end.Minutes()
	if startMin < 0 || endMin < 0 {
		return slots
	}

	for cursor := startMin; cursor+durationMinutes <= endMin; cursor += durationMinutes + gapMinutes {
		slotStart, err := types.NewTimeStringFromMinutes(cursor)
		if err != nil {
			break
		}
		slotEnd, err := types.NewTimeStringFromMinutes(cursor + durationMinutes)
		if err != nil {
			break
		}
		slots = append(slots, domain.TimeSlot{Start: slotStart, End: slotEnd})
	}

	return slots
}

// SlotsForDate генерирует слоты на дату по всем правилам, подходящим по дню недели
func SlotsForDate(date time.Time, rules []domain.AvailabilityRule, durationMinutes, gapMinutes int) []domain.TimeSlot {
	slots := make([]domain.TimeSlot, 0)
	for _, rule := range rules {
		if rule.DayOfWeek != date.Weekday() {
			continue
		}
		slots = append(slots, GenerateTimeSlots(rule.StartTime, rule.EndTime, durationMinutes, gapMinutes)...)
	}
	return slots
}

// DateOnly обнуляет время, сохраняя часовой пояс
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsDateInPast проверяет, что дата раньше сегодняшнего дня
func IsDateInPast(date, now time.Time) bool {
	return DateOnly(date).Before(DateOnly(now))
}
