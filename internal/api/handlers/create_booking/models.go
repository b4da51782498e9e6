package create_booking

import (
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	createBooking "github.com/m04kA/SMC-TherapyBooking/internal/usecase/create_booking"
	"github.com/m04kA/SMC-TherapyBooking/pkg/types"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	PsychologistID string `json:"psychologistId"`
	PatientID      string `json:"patientId,omitempty"` // по умолчанию - вызывающий пользователь
	Date           string `json:"date"`                // "2026-03-10"
	StartTime      string `json:"startTime"`           // "10:00"
	EndTime        string `json:"endTime"`             // "10:50"
	SessionPrice   int64  `json:"sessionPrice"`
}

// BookingResponse HTTP response model при успешном захвате слота
type BookingResponse struct {
	BookingID string `json:"bookingId"`
	Source    string `json:"source"`
	ExpiresAt string `json:"expiresAt"`
}

// ContentionResponse HTTP response model при конкуренции за слот
type ContentionResponse struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
	Source  string `json:"source"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(callerID string) (*createBooking.Request, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, errInvalidDate
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, errInvalidTime
	}

	endTime, err := types.NewTimeStringFromString(r.EndTime)
	if err != nil {
		return nil, errInvalidTime
	}

	patientID := r.PatientID
	if patientID == "" {
		patientID = callerID
	}

	return &createBooking.Request{
		CallerID:       callerID,
		PsychologistID: r.PsychologistID,
		PatientID:      patientID,
		Date:           date,
		StartTime:      startTime,
		EndTime:        endTime,
		SessionPrice:   r.SessionPrice,
	}, nil
}

// FromUseCaseResponse конвертирует успешный ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	return &BookingResponse{
		BookingID: resp.BookingID,
		Source:    string(resp.Source),
		ExpiresAt: resp.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
