package domain

import (
	"time"

	"github.com/m04kA/SMC-TherapyBooking/pkg/types"
)

// AvailabilityRule повторяющийся интервал приема психолога
type AvailabilityRule struct {
	DayOfWeek time.Weekday
	StartTime types.TimeString
	EndTime   types.TimeString
}

// TimeSlot интервал сессии в пределах дня
type TimeSlot struct {
	Start types.TimeString
	End   types.TimeString
}

// String возвращает слот в виде HH:MM-HH:MM
func (s TimeSlot) String() string {
	return s.Start.String() + "-" + s.End.String()
}
