// Package resources provides the MCP resources of the server. The forecast
// resource template exposes Cox's Bazar weather windows as JSON under
// weather://coxsbazar/forecast/{start_date}/{days}.
package resources
