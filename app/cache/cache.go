// Package cache holds the result cache that sits in front of the trip_plans table.
// Entries are derived state: a miss or an error means "unknown", never "absent".
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// DefaultTTL is how long a cached result stays valid.
const DefaultTTL = time.Hour

// ResultCache maps a request ID to the serialized result projection.
type ResultCache interface {
	// Get returns the cached result. found is false on a miss.
	Get(ctx context.Context, requestID string) (data *types.TripPlanData, found bool, err error)
	// Set stores data under requestID, overwriting any previous value.
	Set(ctx context.Context, requestID string, data *types.TripPlanData) error
}

func encode(data *types.TripPlanData) ([]byte, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cached result: %w", err)
	}
	return b, nil
}

func decode(b []byte) (*types.TripPlanData, error) {
	var data types.TripPlanData
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &data, nil
}
