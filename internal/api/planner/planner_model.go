package planner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// MaxTripDays bounds the requested duration.
const MaxTripDays = 365

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FlexString accepts a JSON string or number and keeps its text.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected a string or a number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// SubmitRequest is the body of POST /generate_content.
type SubmitRequest struct {
	Location string     `json:"location" validate:"required"`
	Duration FlexString `json:"duration" validate:"required"`
	Budget   FlexString `json:"budget" validate:"required"`
	FromDate string     `json:"fromDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ToDate   string     `json:"toDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type SubmitResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func (r *SubmitRequest) normalize() {
	r.Location = strings.TrimSpace(r.Location)
	r.Duration = FlexString(strings.TrimSpace(string(r.Duration)))
	r.Budget = FlexString(strings.TrimSpace(string(r.Budget)))
	r.FromDate = strings.TrimSpace(r.FromDate)
	r.ToDate = strings.TrimSpace(r.ToDate)
}

// Validate trims the request and converts it into a TripRequest without an ID.
// Every failure wraps types.ErrValidation.
func (r *SubmitRequest) Validate() (types.TripRequest, error) {
	r.normalize()

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return types.TripRequest{}, fmt.Errorf("%w: %s", types.ErrValidation, describe(verrs[0]))
		}
		return types.TripRequest{}, fmt.Errorf("%w: %v", types.ErrValidation, err)
	}

	duration, err := strconv.Atoi(string(r.Duration))
	if err != nil || duration <= 0 {
		return types.TripRequest{}, fmt.Errorf("%w: duration must be a positive whole number of days", types.ErrValidation)
	}
	if duration > MaxTripDays {
		return types.TripRequest{}, fmt.Errorf("%w: duration must be at most %d days", types.ErrValidation, MaxTripDays)
	}

	budget, err := strconv.ParseFloat(string(r.Budget), 64)
	if err != nil || budget <= 0 || math.IsInf(budget, 0) || math.IsNaN(budget) {
		return types.TripRequest{}, fmt.Errorf("%w: budget must be a positive number", types.ErrValidation)
	}

	req := types.TripRequest{
		Location: r.Location,
		Duration: duration,
		Budget:   budget,
	}
	if r.FromDate != "" {
		req.FromDate = &r.FromDate
	}
	if r.ToDate != "" {
		req.ToDate = &r.ToDate
	}
	if req.FromDate != nil && req.ToDate != nil {
		from, _ := time.Parse(types.DateLayout, *req.FromDate)
		to, _ := time.Parse(types.DateLayout, *req.ToDate)
		if to.Before(from) {
			return types.TripRequest{}, fmt.Errorf("%w: toDate must not be before fromDate", types.ErrValidation)
		}
	}
	return req, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
