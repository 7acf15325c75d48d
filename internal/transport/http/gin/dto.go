package httpgin

import (
	"time"

	"github.com/kirinyoku/eventix/internal/domain"
)

// dateLayout renders event dates in UTC with millisecond precision.
const dateLayout = "2006-01-02T15:04:05.000Z"

type EventRequest struct {
	Name string `json:"name" binding:"required"`
	Date string `json:"date" binding:"required"`
}

type TicketRequest struct {
	Code    string `json:"code" binding:"required"`
	Owner   string `json:"owner" binding:"required"`
	EventID int64  `json:"eventId" binding:"required,min=1"`
}

type EventResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Date string `json:"date" example:"2030-05-01T18:00:00.000Z"`
}

type TicketResponse struct {
	ID      int64  `json:"id"`
	Code    string `json:"code"`
	Owner   string `json:"owner"`
	EventID int64  `json:"eventId"`
	Used    bool   `json:"used"`
}

func toEventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:   e.ID,
		Name: e.Name,
		Date: e.Date.UTC().Format(dateLayout),
	}
}

func toEventResponses(list []domain.Event) []EventResponse {
	out := make([]EventResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toEventResponse(e))
	}
	return out
}

func toTicketResponse(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:      t.ID,
		Code:    t.Code,
		Owner:   t.Owner,
		EventID: t.EventID,
		Used:    t.Used,
	}
}

func toTicketResponses(list []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTicketResponse(t))
	}
	return out
}

// parseDate accepts RFC 3339 with or without fractional seconds.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
