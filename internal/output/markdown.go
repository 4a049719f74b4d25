// Package output renders a completed planning result into the markdown the
// user-facing boundaries (Telegram, HTTP API, CLI) hand back.
package output

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-trip-planner/internal/planner"
	"ai-trip-planner/internal/trip"
)

// MarkdownFormatter renders trip plans as markdown with tabular day and
// budget sections.
type MarkdownFormatter struct {
	now func() time.Time
}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{now: time.Now}
}

// Format renders the full plan: overview, per-day itinerary tables, budget
// summary, preferences, and any force-accept warning.
func (f *MarkdownFormatter) Format(_ context.Context, result *planner.Result) (string, error) {
	if result == nil || result.Context == nil {
		return "", fmt.Errorf("nothing to format: result carries no travel context")
	}
	tc := result.Context

	var b strings.Builder
	destination := tc.Destination
	if destination == "" {
		destination = "Your Destination"
	}

	fmt.Fprintf(&b, "Great! I've planned your %d-day trip to %s. Here's your complete travel plan:\n\n",
		tc.DurationDays, destination)

	f.writeOverview(&b, tc, destination)
	f.writeItinerary(&b, tc)
	f.writeBudget(&b, tc)
	f.writePreferences(&b, tc)
	f.writeNotes(&b, tc, result)

	b.WriteString("---\n")
	b.WriteString("🎯 **Your trip is ready!** Would you like me to make any adjustments to your itinerary, budget, or preferences?\n")
	return b.String(), nil
}

func (f *MarkdownFormatter) writeOverview(b *strings.Builder, tc *trip.TravelContext, destination string) {
	endDate := tc.StartDate.AddDate(0, 0, tc.DurationDays-1)

	b.WriteString("## 🌍 Trip Overview\n\n")
	b.WriteString("| **Field** | **Details** |\n")
	b.WriteString("|-----------|-------------|\n")
	fmt.Fprintf(b, "| **Destination** | %s |\n", destination)
	fmt.Fprintf(b, "| **Duration** | %d days |\n", tc.DurationDays)
	fmt.Fprintf(b, "| **Start Date** | %s |\n", formatDate(tc.StartDate))
	fmt.Fprintf(b, "| **End Date** | %s |\n", formatDate(endDate))
	b.WriteString("| **Status** | Planned |\n")
	fmt.Fprintf(b, "| **Created** | %s |\n\n", f.now().UTC().Format(time.RFC3339))
}

func (f *MarkdownFormatter) writeItinerary(b *strings.Builder, tc *trip.TravelContext) {
	b.WriteString("## 📅 Daily Itinerary\n\n")
	if len(tc.Itinerary) == 0 {
		b.WriteString("No detailed itinerary available.\n\n")
		return
	}

	for _, day := range tc.Itinerary {
		theme := day.Theme
		if theme == "" {
			theme = "City Exploration"
		}
		fmt.Fprintf(b, "### Day %d: %s\n\n", day.DayIndex, theme)
		b.WriteString("| **Time** | **Activity** | **Location** | **Cost** |\n")
		b.WriteString("|----------|-------------|-------------|----------|\n")
		for _, item := range day.Items {
			location := item.Location.Name
			if location == "" {
				location = item.Name
			}
			fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
				formatTime(item.StartTime), item.Name, location, formatCost(item.Cost))
		}
		if day.SpecialConsiderations != "" {
			fmt.Fprintf(b, "\n*%s*\n", day.SpecialConsiderations)
		}
		b.WriteString("\n")
	}
}

func (f *MarkdownFormatter) writeBudget(b *strings.Builder, tc *trip.TravelContext) {
	b.WriteString("## 💰 Budget Summary\n\n")
	b.WriteString("| **Category** | **Amount** |\n")
	b.WriteString("|-------------|------------|\n")

	if tc.Budget == nil {
		b.WriteString("| **Estimated Total** | USD 0.00 |\n")
		b.WriteString("| **Daily Average** | USD 0.00 |\n\n")
		return
	}
	fmt.Fprintf(b, "| **Estimated Total** | USD %.2f |\n", tc.Budget.TotalCost)
	fmt.Fprintf(b, "| **Daily Average** | USD %.2f |\n", tc.Budget.DailyAverage)
	for _, category := range orderedCategories(tc.Budget) {
		fmt.Fprintf(b, "| %s | USD %.2f |\n", categoryLabel(category), tc.Budget.CategoryTotals[category])
	}
	b.WriteString("\n")

	if tc.Insights != nil {
		for _, warning := range tc.Insights.Warnings {
			fmt.Fprintf(b, "⚠️ %s\n\n", warning)
		}
		if len(tc.Insights.Tips) > 0 {
			b.WriteString("**Money-saving tips:**\n")
			for _, tip := range tc.Insights.Tips {
				fmt.Fprintf(b, "- %s\n", tip)
			}
			b.WriteString("\n")
		}
	}
}

func (f *MarkdownFormatter) writePreferences(b *strings.Builder, tc *trip.TravelContext) {
	b.WriteString("## 👤 Your Travel Preferences\n\n")
	b.WriteString("| **Preference** | **Details** |\n")
	b.WriteString("|---------------|-------------|\n")

	style := "Unknown"
	if len(tc.ActivityPreferences) > 0 {
		prefs := tc.ActivityPreferences
		if len(prefs) > 3 {
			prefs = prefs[:3]
		}
		style = strings.Join(prefs, ", ")
	}
	pace := string(tc.Pace)
	if pace == "" {
		pace = string(trip.PaceModerate)
	}
	fmt.Fprintf(b, "| **Travel Style** | %s |\n", style)
	fmt.Fprintf(b, "| **Pace** | %s |\n", titleWord(pace))
	fmt.Fprintf(b, "| **Group Size** | %d |\n", tc.Travelers)
	fmt.Fprintf(b, "| **Budget Level** | %s |\n\n", titleWord(string(tc.SpendTier)))
}

func (f *MarkdownFormatter) writeNotes(b *strings.Builder, tc *trip.TravelContext, result *planner.Result) {
	b.WriteString("## 📝 Additional Notes\n\n")
	b.WriteString("| **Category** | **Details** |\n")
	b.WriteString("|-------------|-------------|\n")
	if len(tc.Weather.Forecast) > 0 {
		b.WriteString("| **Weather** | Check daily forecasts for each day |\n")
	}
	if result.Warning != "" {
		fmt.Fprintf(b, "| **Warning** | %s |\n", result.Warning)
	}
	b.WriteString("\n")

	if len(result.OutstandingIssues) > 0 {
		b.WriteString("**Outstanding issues:**\n")
		for _, issue := range result.OutstandingIssues {
			fmt.Fprintf(b, "- %s\n", issue.Description)
		}
		b.WriteString("\n")
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "TBD"
	}
	return t.Format("2006-01-02")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "TBD"
	}
	return t.Format("15:04")
}

func formatCost(cost float64) string {
	if cost <= 0 {
		return "Free"
	}
	return fmt.Sprintf("USD %.2f", cost)
}

func titleWord(s string) string {
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// orderedCategories returns the budget's cost categories in a stable display
// order.
func orderedCategories(b *trip.BudgetBreakdown) []trip.CostCategory {
	order := []trip.CostCategory{
		trip.CostDining,
		trip.CostAttractions,
		trip.CostActivities,
		trip.CostEntertainment,
		trip.CostShopping,
		trip.CostTransport,
	}
	out := make([]trip.CostCategory, 0, len(b.CategoryTotals))
	for _, c := range order {
		if _, ok := b.CategoryTotals[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

func categoryLabel(c trip.CostCategory) string {
	return titleWord(string(c))
}
