package itinerary

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Section is one parsed section of a generated plan. Found is false when the
// heading was absent, in which case Text is empty and Value returns the placeholder.
type Section struct {
	Text        string
	Found       bool
	placeholder string
}

// Value returns the section body, or the fixed placeholder when the heading was missing.
func (s Section) Value() string {
	if !s.Found {
		return s.placeholder
	}
	return s.Text
}

// ParsedPlan holds the six sections of a generated plan.
type ParsedPlan struct {
	Itinerary       Section
	BestMonth       Section
	BudgetBreakdown Section
	Weather         Section
	Restaurants     Section
	Hotels          Section
}

// Missing returns the titles of the sections that were not found.
func (p *ParsedPlan) Missing() []string {
	var missing []string
	for i, s := range p.all() {
		if !s.Found {
			missing = append(missing, sections[i].title)
		}
	}
	return missing
}

func (p *ParsedPlan) all() []*Section {
	return []*Section{&p.Itinerary, &p.BestMonth, &p.BudgetBreakdown, &p.Weather, &p.Restaurants, &p.Hotels}
}

type sectionSpec struct {
	title       string
	placeholder string
	heading     *regexp.Regexp
}

func newSection(title, placeholder string) sectionSpec {
	// "## Itinerary", "# itinerary:", "### **Itinerary**" all count as the heading line.
	pattern := `(?im)^[ \t]*#{1,6}[ \t]*\**[ \t]*` + regexp.QuoteMeta(title) + `[ \t]*\**[ \t]*:?[ \t]*\**[ \t]*$`
	return sectionSpec{title: title, placeholder: placeholder, heading: regexp.MustCompile(pattern)}
}

// sections is ordered as the prompt requests them and as ParsedPlan.all returns them.
var sections = []sectionSpec{
	newSection("Itinerary", "Itinerary not found"),
	newSection("Best Month to Visit", "Best month not found"),
	newSection("Budget Breakdown", "Budget breakdown not found"),
	newSection("Weather Forecast", "Weather forecast not found"),
	newSection("Restaurants", "Restaurants not found"),
	newSection("Hotels", "Hotels not found"),
}

type headingMatch struct {
	index      int
	start, end int
}

// ParseResponse splits a generated markdown plan into its sections. Each section
// is looked up independently: a missing heading only affects its own field. A
// section body runs from its heading line to the next recognised heading, or to
// the end of the text. Input with none of the headings is a parse error.
func ParseResponse(markdown string) (*ParsedPlan, error) {
	text := strings.ReplaceAll(markdown, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty response", types.ErrParse)
	}

	var matches []headingMatch
	for i, sec := range sections {
		loc := sec.heading.FindStringIndex(text)
		if loc == nil {
			continue
		}
		matches = append(matches, headingMatch{index: i, start: loc[0], end: loc[1]})
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no expected headings in response", types.ErrParse)
	}
	sort.Slice(matches, func(a, b int) bool { return matches[a].start < matches[b].start })

	plan := &ParsedPlan{}
	fields := plan.all()
	for i, sec := range sections {
		fields[i].placeholder = sec.placeholder
	}
	for i, m := range matches {
		bodyEnd := len(text)
		for _, next := range matches[i+1:] {
			if next.start >= m.end {
				bodyEnd = next.start
				break
			}
		}
		fields[m.index].Text = strings.TrimSpace(text[m.end:bodyEnd])
		fields[m.index].Found = true
	}
	return plan, nil
}

var nameLine = regexp.MustCompile(
	`^\s*(?:[-+*]\s+|\d+[.)]\s+)?(?:\*\*([^*]+?):\*\*|\*\*([^*]+?)\*\*\s*:|__([^_]+?)__\s*:|\*([^*]+?)\*\s*:|_([^_]+?)_\s*:)`)

// ExtractNames returns one name per line that starts with an emphasised name
// followed by a colon, e.g. "**Le Jules Verne**: fine dining". Other lines are skipped.
func ExtractNames(section string) []string {
	names := []string{}
	for _, line := range strings.Split(section, "\n") {
		m := nameLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		for _, g := range m[1:] {
			if name := strings.TrimSpace(g); name != "" {
				names = append(names, name)
				break
			}
		}
	}
	return names
}

// ToPlan converts a parsed response into the TripPlanData projection, using
// placeholders for missing sections.
func (p *ParsedPlan) ToPlan() types.TripPlanData {
	return types.TripPlanData{
		Itinerary:       p.Itinerary.Value(),
		BestMonth:       p.BestMonth.Value(),
		BudgetBreakdown: p.BudgetBreakdown.Value(),
		Weather:         p.Weather.Value(),
		Restaurants:     p.Restaurants.Value(),
		Hotels:          p.Hotels.Value(),
		RestaurantNames: ExtractNames(p.Restaurants.Text),
		HotelNames:      ExtractNames(p.Hotels.Text),
		MissingSections: p.Missing(),
	}
}

// ProjectPlan builds the client projection of a stored plan.
func ProjectPlan(plan *types.TripPlan) *types.TripPlanData {
	return &types.TripPlanData{
		Itinerary:       plan.Itinerary,
		BestMonth:       plan.BestMonth,
		BudgetBreakdown: plan.BudgetBreakdown,
		Weather:         plan.Weather,
		Restaurants:     plan.Restaurants,
		Hotels:          plan.Hotels,
		RestaurantNames: ExtractNames(plan.Restaurants),
		HotelNames:      ExtractNames(plan.Hotels),
		MissingSections: plan.MissingSections,
	}
}
