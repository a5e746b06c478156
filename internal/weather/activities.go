package weather

import "fmt"

// Times of day recognized by activity suggestions.
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
)

// SuggestActivities returns activities suited to the temperature and time
// of day. Unknown times of day are treated as evening, matching the
// original planner behavior.
func SuggestActivities(temperature float64, timeOfDay string) []string {
	switch timeOfDay {
	case Morning:
		if temperature < 28 {
			return []string{
				"Beach walk and photography",
				"Visit Himchari National Park",
				"Sunrise at Laboni Beach",
				"Morning yoga on the beach",
			}
		}
		return []string{
			"Early morning swim",
			"Sunrise boat ride",
			"Visit Inani Beach",
			"Morning market exploration",
		}

	case Afternoon:
		if temperature < 30 {
			return []string{
				"Visit Aggameda Khyang monastery",
				"Explore Ramu Buddhist Village",
				"Maheshkhali Island tour",
				"Marine Drive scenic route",
			}
		}
		return []string{
			"Indoor activities - shopping at local markets",
			"Visit Bangabandhu Safari Park",
			"Relax at beach resorts",
			"Water sports activities",
		}

	default:
		return []string{
			"Sunset at Sugandha Beach",
			"Seafood dinner at local restaurants",
			"Beach bonfire",
			"Night market shopping",
			"Cultural performances",
		}
	}
}

// FormatTemperature renders a temperature with a comfort description.
func FormatTemperature(temp float64) string {
	var desc string
	switch {
	case temp < 20:
		desc = "Cool"
	case temp < 25:
		desc = "Pleasant"
	case temp < 30:
		desc = "Warm"
	case temp < 35:
		desc = "Hot"
	default:
		desc = "Very Hot"
	}
	return fmt.Sprintf("%.1f°C (%s)", temp, desc)
}
