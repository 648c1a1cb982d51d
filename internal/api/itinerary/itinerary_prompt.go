package itinerary

import (
	"fmt"
	"strconv"
)

// TripParams are the inputs embedded in the generation prompt.
type TripParams struct {
	Location string
	Duration int
	Budget   float64
	FromDate string
	ToDate   string
}

// BuildPrompt renders the trip planning prompt. The output is deterministic for
// a given TripParams and asks for the six headings ParseResponse looks for.
func BuildPrompt(p TripParams) string {
	weather := "- Typical weather forecast for the trip."
	if p.FromDate != "" && p.ToDate != "" {
		weather = fmt.Sprintf("- Weather forecast from %s to %s.", p.FromDate, p.ToDate)
	}

	return fmt.Sprintf(`
            You are an expert Tour Planner. Create a detailed travel plan for the following:
            - Location: %s
            - Duration: %d days
            - Budget: $%s
            Include:
            - Daily itinerary with activities and accommodations.
            - Best month to visit.
            - Budget breakdown (accommodation, food, travel, activities).
            %s
            - Top restaurants and hotels in the area with ratings and average costs.
              List each one on its own line as "**Name**: description".
            Return the response in markdown format with exactly these headings, in this order:
            %s`, p.Location, p.Duration, strconv.FormatFloat(p.Budget, 'f', -1, 64), weather, headingList())
}

func headingList() string {
	var s string
	for i, sec := range sections {
		if i > 0 {
			s += ", "
		}
		s += "## " + sec.title
	}
	return s + "."
}
