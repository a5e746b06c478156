// Package itinerary builds day-by-day travel plans for Cox's Bazar from
// weather forecasts, and generates the AI prompts used to refine them.
package itinerary
