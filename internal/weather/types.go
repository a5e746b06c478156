package weather

// Cox's Bazar coordinates and timezone, fixed for this service.
const (
	Latitude  = 21.4272
	Longitude = 92.0058
	Timezone  = "Asia/Dhaka"
	Location  = "Cox's Bazar, Bangladesh"
)

// Coordinates is the lat/lon pair reported alongside forecasts.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DayForecast is one day of the forecast.
type DayForecast struct {
	Day           int     `json:"day"`
	Date          string  `json:"date"`
	TempMax       float64 `json:"temp_max"`
	TempMin       float64 `json:"temp_min"`
	TempAvg       float64 `json:"temp_avg"`
	Precipitation float64 `json:"precipitation"`
	Weather       string  `json:"weather"`
	WeatherCode   int     `json:"weathercode"`
	WindSpeed     float64 `json:"windspeed"`
	Sunrise       string  `json:"sunrise"`
	Sunset        string  `json:"sunset"`
}

// Forecast is the full multi-day forecast for a trip window.
type Forecast struct {
	Location    string        `json:"location"`
	Coordinates Coordinates   `json:"coordinates"`
	StartDate   string        `json:"start_date"`
	EndDate     string        `json:"end_date"`
	Days        int           `json:"days"`
	Timezone    string        `json:"timezone"`
	Daily       []DayForecast `json:"forecast"`

	// Note is set on fallback data when the API was unavailable.
	Note string `json:"note,omitempty"`
}

// openMeteoResponse mirrors the fields of the Open-Meteo daily forecast
// payload this client consumes.
type openMeteoResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
	Daily  struct {
		Time             []string  `json:"time"`
		TemperatureMax   []float64 `json:"temperature_2m_max"`
		TemperatureMin   []float64 `json:"temperature_2m_min"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
		WeatherCode      []int     `json:"weathercode"`
		WindSpeedMax     []float64 `json:"windspeed_10m_max"`
		Sunrise          []string  `json:"sunrise"`
		Sunset           []string  `json:"sunset"`
	} `json:"daily"`
}
