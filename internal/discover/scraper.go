package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/trip"

	"github.com/PuerkitoBio/goquery"
)

// WebScraper is the offline-friendly fallback searcher: it pulls the
// destination's travel-guide page, strips it down with goquery, and asks the
// model to extract venues matching the requested place type.
type WebScraper struct {
	textGen    llm.TextGenerator
	httpClient *http.Client
	baseURL    string
}

func NewWebScraper(textGen llm.TextGenerator) *WebScraper {
	return &WebScraper{
		textGen: textGen,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		baseURL: "https://en.wikivoyage.org/wiki",
	}
}

type scrapedVenue struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Rating      float64  `json:"rating"`
	Cost        float64  `json:"estimated_cost"`
	PriceLevel  *int     `json:"price_level"`
	Types       []string `json:"types"`
}

// NearbyPlaces scrapes the destination guide and extracts venues via the
// model. Results carry no coordinates; the travel-time estimator falls back
// to its default for them.
func (w *WebScraper) NearbyPlaces(ctx context.Context, loc trip.Location, placeType string, _ int) ([]Place, error) {
	city := loc.City
	if city == "" {
		city = loc.Name
	}

	content, err := w.fetchAndCleanHTML(ctx, fmt.Sprintf("%s/%s", w.baseURL, strings.ReplaceAll(city, " ", "_")))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guide page: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a travel research assistant. From the following travel guide text for %s,
extract up to 8 real venues of type %q.
Return the result strictly as a JSON array with this structure:
[
  {
    "name": "Venue Name",
    "description": "One sentence about the venue",
    "rating": 4.2,
    "estimated_cost": 15,
    "price_level": 2,
    "types": ["%s"]
  }
]
Only include venues actually mentioned in the text. Use null for unknown fields.

Guide text:
%s
`, city, placeType, placeType, content)

	llmResponse, err := w.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}

	var venues []scrapedVenue
	if err := json.Unmarshal([]byte(llmResponse.Content), &venues); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, llmResponse.Content)
	}

	places := make([]Place, 0, len(venues))
	for _, v := range venues {
		if v.Name == "" {
			continue
		}
		types := v.Types
		if len(types) == 0 {
			types = []string{placeType}
		}
		places = append(places, Place{
			Name:       v.Name,
			Address:    city,
			Rating:     v.Rating,
			PriceLevel: v.PriceLevel,
			Types:      types,
			Source:     "web_guide",
		})
	}
	return places, nil
}

func (w *WebScraper) fetchAndCleanHTML(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, .navbox, .mw-editsection, #mw-navigation").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("#mw-content-text").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Find("body").Text()
	}

	// Keep the prompt within a sane size.
	const maxChars = 20000
	return truncateText(text, maxChars), nil
}

// truncateText clips s to at most max bytes without splitting a UTF-8
// sequence.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
