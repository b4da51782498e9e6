package profileservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	"github.com/m04kA/SMC-TherapyBooking/pkg/types"
)

// Client клиент для работы с сервисом профилей психологов
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента сервиса профилей
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetAvailabilityRules получает правила приема психолога
func (c *Client) GetAvailabilityRules(ctx context.Context, psychologistID string) ([]domain.AvailabilityRule, error) {
	url := fmt.Sprintf("%s/internal/psychologists/%s/availability", c.baseURL, psychologistID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("ProfileService unavailable for psychologist=%s: %v", psychologistID, err)
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: invalid psychologist ID format", ErrInvalidResponse)
	case http.StatusNotFound:
		return nil, ErrPsychologistNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: status code %d: %s", ErrServiceUnavailable, resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var availability Availability
	if err := json.NewDecoder(resp.Body).Decode(&availability); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	rules, err := availability.toDomain()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	c.log.Info("Fetched %d availability rules for psychologist=%s", len(rules), psychologistID)
	return rules, nil
}

// toDomain конвертирует ответ в правила приема, отбрасывая пустые интервалы
func (a Availability) toDomain() ([]domain.AvailabilityRule, error) {
	rules := make([]domain.AvailabilityRule, 0, len(a.Rules))
	for _, r := range a.Rules {
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
			return nil, fmt.Errorf("dayOfWeek %d out of range", r.DayOfWeek)
		}

		start := types.TimeString(r.StartTime)
		end := types.TimeString(r.EndTime)
		if err := errors.Join(start.Validate(), end.Validate()); err != nil {
			return nil, fmt.Errorf("rule for day %d: %v", r.DayOfWeek, err)
		}
		if !end.IsAfter(start) {
			continue
		}

		rules = append(rules, domain.AvailabilityRule{
			DayOfWeek: time.Weekday(r.DayOfWeek),
			StartTime: start,
			EndTime:   end,
		})
	}
	return rules, nil
}
