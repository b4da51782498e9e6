package get_available_days

import "time"

// DefaultCount число дней в ответе, если клиент его не указал
const DefaultCount = 7

// Request модель запроса ближайших дней приема
type Request struct {
	CallerID       string
	PsychologistID string
	Count          int // 0 - DefaultCount
}

// Response модель ответа со списком дней приема
type Response struct {
	PsychologistID string
	Days           []Day
}

// Day день приема
type Day struct {
	Date            time.Time
	Weekday         time.Weekday
	PackageSessions int // число сессий в этот день недели до конца месяца
}
