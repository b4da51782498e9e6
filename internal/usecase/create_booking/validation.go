package create_booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if _, err := uuid.Parse(req.PsychologistID); err != nil {
		return fmt.Errorf("%w: psychologistID must be a UUID", ErrInvalidInput)
	}

	if _, err := uuid.Parse(req.PatientID); err != nil {
		return fmt.Errorf("%w: patientID must be a UUID", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
	}

	if err := req.EndTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid endTime format: %v", ErrInvalidInput, err)
	}

	if !req.EndTime.IsAfter(req.StartTime) {
		return fmt.Errorf("%w: endTime must be after startTime", ErrInvalidInput)
	}

	if req.SessionPrice <= 0 {
		return fmt.Errorf("%w: sessionPrice must be positive", ErrInvalidInput)
	}

	return nil
}

// validateNotInPast проверяет, что слот начинается в будущем
func validateNotInPast(req *Request, now time.Time) error {
	// дата приходит без часового пояса, время слота трактуется в поясе сервера
	y, m, d := req.Date.Date()
	startsAt := req.StartTime.On(time.Date(y, m, d, 0, 0, 0, 0, now.Location()))
	if !startsAt.After(now) {
		return ErrInvalidDate
	}

	return nil
}
