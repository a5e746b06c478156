// Package weather fetches daily forecasts for Cox's Bazar from the
// Open-Meteo API and derives activity suggestions from the conditions.
//
// Open-Meteo needs no API key. When the API is unreachable or returns an
// error the client falls back to synthetic forecast data so itinerary
// generation keeps working offline; fallback responses are marked with a
// note.
package weather
