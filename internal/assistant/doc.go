// Package assistant exposes cooker control to LLM assistants over the
// Model Context Protocol.
//
// The server speaks MCP over stdio and registers a small tool surface:
//
//	start_cook        begin a cook at a target temperature, optional timer
//	stop_cook         stop the active cook
//	get_status        current device status as JSON
//	wait_until_ready  block until a cooker is selected and reachable
//	list_devices      cookers announced by the relay
//
// Tools delegate to a Bridge, normally the websocket relay client. Tool
// errors are returned as MCP error results rather than protocol errors so
// the calling assistant can read and recover from them.
package assistant
