package get_booking

import (
	"context"

	"github.com/m04kA/SMC-TherapyBooking/internal/service/bookings/models"
)

type BookingService interface {
	GetBooking(ctx context.Context, id string, callerID string) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
