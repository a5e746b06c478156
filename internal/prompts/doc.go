// Package prompts provides the MCP prompts of the server: reusable AI
// prompt templates for itinerary generation and weather-based activity
// planning.
package prompts
