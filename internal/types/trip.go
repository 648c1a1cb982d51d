package types

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage format of the optional trip dates.
const DateLayout = "2006-01-02"

type ResultStatus string

const (
	StatusProcessing ResultStatus = "processing"
	StatusCompleted  ResultStatus = "completed"
)

// TripRequest is a submitted trip. It is immutable once stored.
type TripRequest struct {
	ID        uuid.UUID `json:"id"`
	Location  string    `json:"location"`
	Duration  int       `json:"duration"`
	Budget    float64   `json:"budget"`
	FromDate  *string   `json:"fromDate,omitempty"`
	ToDate    *string   `json:"toDate,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TripPlan is the generated plan for exactly one TripRequest.
type TripPlan struct {
	ID              uuid.UUID `json:"id"`
	RequestID       uuid.UUID `json:"request_id"`
	Itinerary       string    `json:"itinerary"`
	BestMonth       string    `json:"best_month_to_visit"`
	BudgetBreakdown string    `json:"budget_breakdown"`
	Weather         string    `json:"weather"`
	Restaurants     string    `json:"restaurants"`
	Hotels          string    `json:"hotels"`
	// MissingSections names the headings the model left out; their fields hold placeholders.
	MissingSections []string  `json:"missing_sections,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// TripPlanData is the projection of a TripPlan served to clients and stored in the result cache.
type TripPlanData struct {
	Itinerary       string   `json:"itinerary"`
	BestMonth       string   `json:"best_month_to_visit"`
	BudgetBreakdown string   `json:"budget_breakdown"`
	Weather         string   `json:"weather"`
	Restaurants     string   `json:"restaurants"`
	Hotels          string   `json:"hotels"`
	RestaurantNames []string `json:"restaurant_names"`
	HotelNames      []string `json:"hotel_names"`
	MissingSections []string `json:"missing_sections,omitempty"`
}

// TripResult is the answer to a result lookup.
type TripResult struct {
	Status ResultStatus  `json:"status"`
	Data   *TripPlanData `json:"data,omitempty"`
	PDFURL string        `json:"pdf_url,omitempty"`
}

// GenerateTripPayload is the body of a queued generation job.
type GenerateTripPayload struct {
	Location  string  `json:"location"`
	Duration  int     `json:"duration"`
	Budget    float64 `json:"budget"`
	FromDate  string  `json:"fromDate,omitempty"`
	ToDate    string  `json:"toDate,omitempty"`
	RequestID string  `json:"request_id"`
}

// PayloadFromRequest builds the queue payload that carries req to the worker.
func PayloadFromRequest(req TripRequest) GenerateTripPayload {
	p := GenerateTripPayload{
		Location:  req.Location,
		Duration:  req.Duration,
		Budget:    req.Budget,
		RequestID: req.ID.String(),
	}
	if req.FromDate != nil {
		p.FromDate = *req.FromDate
	}
	if req.ToDate != nil {
		p.ToDate = *req.ToDate
	}
	return p
}
