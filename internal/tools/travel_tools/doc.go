// Package travel_tools provides the MCP tools for Cox's Bazar travel
// planning: itinerary generation from the weather forecast and activity
// suggestions by temperature and time of day. Both tools run behind the
// authorization gate.
package travel_tools
