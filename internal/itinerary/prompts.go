package itinerary

import (
	"fmt"
	"strings"

	"github.com/code4mk/coxbazar-mcp/internal/weather"
)

// ItineraryPrompt returns the AI prompt for generating a detailed itinerary
// for the given trip window.
func ItineraryPrompt(days int, startDate string) string {
	return fmt.Sprintf(`Generate a detailed %d-day itinerary for Cox's Bazar, Bangladesh starting from %s.

Consider the following in your itinerary:

1. **Daily Schedule:**
   - Morning activities (6:00 AM - 12:00 PM)
   - Afternoon activities (12:00 PM - 6:00 PM)
   - Evening activities (6:00 PM onwards)

2. **Weather-Based Recommendations:**
   - Suggest indoor activities for hot afternoons (>32°C)
   - Recommend beach activities for pleasant weather (25-30°C)
   - Include sunrise/sunset timings for beach visits

3. **Must-Visit Places:**
   - Laboni Beach (main beach, shopping, restaurants)
   - Inani Beach (pristine, less crowded)
   - Himchari National Park (waterfalls, nature trails)
   - Marine Drive (scenic coastal road)
   - Aggameda Khyang (Buddhist monastery)
   - Ramu Buddhist Village (cultural experience)
   - Maheshkhali Island (day trip)
   - Sugandha Beach (sunset views)
   - Bangabandhu Safari Park (wildlife)

4. **Activities:**
   - Beach walks and photography
   - Water sports (surfing, parasailing, jet skiing)
   - Boat rides and island hopping
   - Seafood dining experiences
   - Local market exploration
   - Cultural site visits
   - Sunrise/sunset viewing

5. **Practical Tips:**
   - Best times to visit each location
   - Transportation suggestions
   - Local cuisine recommendations
   - Safety considerations
   - Budget estimates

Please create a day-by-day itinerary with specific timings, activities, and practical tips.`, days, startDate)
}

// WeatherActivitiesPrompt returns the AI prompt asking for weather-aware
// activity suggestions given a forecast.
func WeatherActivitiesPrompt(forecast *weather.Forecast) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Based on the weather forecast for Cox's Bazar, suggest optimal activities for each day:

Location: %s
Trip Duration: %d days
Start Date: %s

Daily Weather Summary:
`, forecast.Location, forecast.Days, forecast.StartDate)

	for _, day := range forecast.Daily {
		fmt.Fprintf(&b, "\nDay %d (%s):\n", day.Day, day.Date)
		fmt.Fprintf(&b, "- Weather: %s\n", day.Weather)
		fmt.Fprintf(&b, "- Temperature: %.1f°C - %.1f°C (Avg: %.1f°C)\n", day.TempMin, day.TempMax, day.TempAvg)
		fmt.Fprintf(&b, "- Precipitation: %.1fmm\n", day.Precipitation)
		fmt.Fprintf(&b, "- Wind Speed: %.1f km/h\n", day.WindSpeed)
		fmt.Fprintf(&b, "- Sunrise: %s | Sunset: %s\n", day.Sunrise, day.Sunset)
	}

	b.WriteString(`
Based on this weather forecast, please provide:
1. Best activities for each day considering the weather conditions
2. Time-specific recommendations (morning/afternoon/evening)
3. Indoor alternatives for rainy or very hot days
4. Optimal times for beach activities
5. Photography opportunities (sunrise/sunset)
6. Dining suggestions based on weather
`)

	return b.String()
}
