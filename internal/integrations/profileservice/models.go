package profileservice

// Availability правила приема психолога из сервиса профилей
type Availability struct {
	PsychologistID string `json:"psychologistId"`
	Rules          []Rule `json:"rules"`
}

// Rule повторяющийся интервал приема
type Rule struct {
	DayOfWeek int    `json:"dayOfWeek"` // 0 - воскресенье
	StartTime string `json:"startTime"` // "09:00"
	EndTime   string `json:"endTime"`   // "17:00"
}
