package itinerary

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const fullResponse = `## Itinerary
Day 1: Eiffel Tower and a Seine cruise.
### Day 2
Louvre in the morning, Montmartre at sunset.

## Best Month to Visit
April to June.

## Budget Breakdown
- Accommodation: $450
- Food: $250

## Weather Forecast
Mild, 18C with light showers.

## Restaurants
**Le Jules Verne**: fine dining, $$$
some unrelated line
* **Bouillon Chartier**: classic brasserie, $

## Hotels
1. **Hotel Lutetia**: Saint-Germain, $$$
2. **Generator Paris:** hostel, $
`

func TestParseResponse_AllSections(t *testing.T) {
	plan, err := ParseResponse(fullResponse)
	require.NoError(t, err)

	assert.Equal(t, "Day 1: Eiffel Tower and a Seine cruise.\n### Day 2\nLouvre in the morning, Montmartre at sunset.", plan.Itinerary.Text)
	assert.Equal(t, "April to June.", plan.BestMonth.Text)
	assert.Equal(t, "- Accommodation: $450\n- Food: $250", plan.BudgetBreakdown.Text)
	assert.Equal(t, "Mild, 18C with light showers.", plan.Weather.Text)
	assert.Equal(t, "**Le Jules Verne**: fine dining, $$$\nsome unrelated line\n* **Bouillon Chartier**: classic brasserie, $", plan.Restaurants.Text)
	assert.Equal(t, "1. **Hotel Lutetia**: Saint-Germain, $$$\n2. **Generator Paris:** hostel, $", plan.Hotels.Text)
	assert.Empty(t, plan.Missing())

	for _, s := range plan.all() {
		assert.True(t, s.Found)
	}
}

func TestParseResponse_MissingHeadingUsesPlaceholder(t *testing.T) {
	input := strings.Replace(fullResponse, "## Best Month to Visit\nApril to June.\n\n", "", 1)

	plan, err := ParseResponse(input)
	require.NoError(t, err)

	assert.False(t, plan.BestMonth.Found)
	assert.Empty(t, plan.BestMonth.Text)
	assert.Equal(t, "Best month not found", plan.BestMonth.Value())
	assert.Equal(t, []string{"Best Month to Visit"}, plan.Missing())

	assert.True(t, plan.Itinerary.Found)
	assert.True(t, strings.HasSuffix(plan.Itinerary.Text, "Montmartre at sunset."))
	assert.Equal(t, "- Accommodation: $450\n- Food: $250", plan.BudgetBreakdown.Value())
	assert.Equal(t, "Mild, 18C with light showers.", plan.Weather.Value())
}

func TestParseResponse_Placeholders(t *testing.T) {
	plan, err := ParseResponse("## Hotels\n**Ritz**: Place Vendome")
	require.NoError(t, err)

	data := plan.ToPlan()
	assert.Equal(t, "Itinerary not found", data.Itinerary)
	assert.Equal(t, "Best month not found", data.BestMonth)
	assert.Equal(t, "Budget breakdown not found", data.BudgetBreakdown)
	assert.Equal(t, "Weather forecast not found", data.Weather)
	assert.Equal(t, "Restaurants not found", data.Restaurants)
	assert.Equal(t, "**Ritz**: Place Vendome", data.Hotels)
	assert.Empty(t, data.RestaurantNames)
	assert.Equal(t, []string{"Ritz"}, data.HotelNames)
	assert.Equal(t, []string{"Itinerary", "Best Month to Visit", "Budget Breakdown", "Weather Forecast", "Restaurants"},
		data.MissingSections)
}

func TestProjectPlan_KeepsMissingSections(t *testing.T) {
	// Generated text that happens to read like a placeholder is still real content.
	stored := &types.TripPlan{
		Itinerary:       "Itinerary not found",
		Hotels:          "Hotels not found",
		MissingSections: []string{"Hotels"},
	}

	data := ProjectPlan(stored)
	assert.Equal(t, []string{"Hotels"}, data.MissingSections)
	assert.NotContains(t, data.MissingSections, "Itinerary")
}

func TestParseResponse_HeadingVariants(t *testing.T) {
	input := "# itinerary:\r\nWalk.\r\n### **Best Month to Visit**\r\nMay\r\n"

	plan, err := ParseResponse(input)
	require.NoError(t, err)
	assert.Equal(t, "Walk.", plan.Itinerary.Text)
	assert.Equal(t, "May", plan.BestMonth.Text)
}

func TestParseResponse_PlaceholderTextIsDistinguishable(t *testing.T) {
	plan, err := ParseResponse("## Itinerary\nItinerary not found\n## Hotels\nnone")
	require.NoError(t, err)

	assert.True(t, plan.Itinerary.Found)
	assert.Equal(t, "Itinerary not found", plan.Itinerary.Text)
	assert.False(t, plan.BestMonth.Found)
}

func TestParseResponse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace", input: "  \n\t "},
		{name: "no headings", input: "I'm sorry, I can't help with that."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ParseResponse(tt.input)
			require.Error(t, err)
			assert.Nil(t, plan)
			assert.True(t, errors.Is(err, types.ErrParse))
		})
	}
}

func TestExtractNames(t *testing.T) {
	t.Run("restaurant list with unrelated line", func(t *testing.T) {
		names := ExtractNames("**Le Jules Verne**: fine dining, $$$\nsome unrelated line")
		assert.Equal(t, []string{"Le Jules Verne"}, names)
	})

	t.Run("list markers and emphasis styles", func(t *testing.T) {
		section := strings.Join([]string{
			"- **Septime**: modern French",
			"2) __Frenchie__: bistro",
			"*Du Pain et des Idees*: bakery",
			"**Hotel Providence:** boutique",
			"Le Comptoir: no emphasis",
			"**Bold without colon**",
		}, "\n")
		assert.Equal(t, []string{"Septime", "Frenchie", "Du Pain et des Idees", "Hotel Providence"}, ExtractNames(section))
	})

	t.Run("nothing matches", func(t *testing.T) {
		assert.Empty(t, ExtractNames("Restaurants not found"))
	})
}

func TestBuildPrompt(t *testing.T) {
	p := TripParams{Location: "Paris", Duration: 3, Budget: 1000, FromDate: "2026-05-01", ToDate: "2026-05-03"}

	prompt := BuildPrompt(p)
	assert.Equal(t, prompt, BuildPrompt(p))
	assert.Contains(t, prompt, "Location: Paris")
	assert.Contains(t, prompt, "Duration: 3 days")
	assert.Contains(t, prompt, "Budget: $1000")
	assert.Contains(t, prompt, "from 2026-05-01 to 2026-05-03")
	assert.Contains(t, prompt, "## Itinerary, ## Best Month to Visit, ## Budget Breakdown, ## Weather Forecast, ## Restaurants, ## Hotels.")

	noDates := BuildPrompt(TripParams{Location: "Lisbon", Duration: 2, Budget: 499.5})
	assert.Contains(t, noDates, "Budget: $499.5")
	assert.Contains(t, noDates, "Typical weather forecast")
}
