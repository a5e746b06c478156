// Package auth_tools provides the MCP tools for the GitHub login lifecycle.
//
// auth_initiate_login and auth_logout are public. get_user_info and
// request_info run behind the authorization gate and read the identity
// snapshot captured at login; they never call GitHub themselves.
package auth_tools
