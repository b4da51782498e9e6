package models

import (
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
)

// StatusExpired статус холда, срок которого истек, но который еще не освобожден
const StatusExpired = "expired"

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID             string     `json:"id"`
	Source         string     `json:"source"` // "reservation" или "intent"
	PsychologistID string     `json:"psychologistId"`
	PatientID      string     `json:"patientId"`
	ScheduledDate  string     `json:"scheduledDate"` // "2026-03-10"
	StartTime      string     `json:"startTime"`     // "10:00"
	EndTime        string     `json:"endTime"`       // "10:50"
	Status         string     `json:"status"`        // состояние с учетом истечения холда
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	SessionPrice   int64      `json:"sessionPrice"`
	Split          Split      `json:"split"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Split распределение стоимости сессии
type Split struct {
	Gross          int64 `json:"gross"`
	Professional   int64 `json:"professionalAmount"`
	Platform       int64 `json:"platformAmount"`
	SocialDonation int64 `json:"socialDonation"`
}

// CancelResponse результат отмены
type CancelResponse struct {
	ID               string `json:"id"`
	AlreadyCancelled bool   `json:"alreadyCancelled"`
}

// FromDomainSplit конвертирует domain.MoneySplit в Split
func FromDomainSplit(s domain.MoneySplit) Split {
	return Split{
		Gross:          s.Gross,
		Professional:   s.Professional,
		Platform:       s.Platform,
		SocialDonation: s.SocialDonation,
	}
}

// FromReservation конвертирует запись слота в BookingResponse
func FromReservation(res *domain.Reservation, now time.Time) *BookingResponse {
	resp := &BookingResponse{
		ID:             res.ID,
		Source:         string(domain.SourceReservation),
		PsychologistID: res.PsychologistID,
		PatientID:      res.OwnerID(),
		ScheduledDate:  res.ScheduledDate.Format(domain.DateFormat),
		StartTime:      res.StartTime.String(),
		EndTime:        res.EndTime.String(),
		Status:         string(res.LockState),
		SessionPrice:   res.SessionPrice,
		Split:          FromDomainSplit(domain.ComputeSplit(res.SessionPrice)),
		CreatedAt:      res.CreatedAt,
	}
	if res.LockState == domain.LockStateHolding && res.LockExpiresAt != nil {
		expiresAt := *res.LockExpiresAt
		resp.ExpiresAt = &expiresAt
		if !res.IsHoldActive(now) {
			resp.Status = StatusExpired
		}
	}
	return resp
}

// FromIntent конвертирует намерение бронирования в BookingResponse
func FromIntent(intent *domain.BookingIntent, now time.Time) *BookingResponse {
	status := string(intent.Status)
	if intent.Status == domain.IntentPendingPayment && !intent.IsPendingActive(now) {
		status = StatusExpired
	}

	resp := &BookingResponse{
		ID:             intent.ID,
		Source:         string(domain.SourceIntent),
		PsychologistID: intent.PsychologistID,
		PatientID:      intent.PatientID,
		ScheduledDate:  intent.ScheduledDate.Format(domain.DateFormat),
		StartTime:      intent.StartTime.String(),
		EndTime:        intent.EndTime.String(),
		Status:         status,
		SessionPrice:   intent.SessionPrice,
		Split:          FromDomainSplit(domain.ComputeSplit(intent.SessionPrice)),
		CreatedAt:      intent.CreatedAt,
	}
	if intent.Status == domain.IntentPendingPayment {
		expiresAt := intent.ExpiresAt
		resp.ExpiresAt = &expiresAt
	}
	return resp
}
