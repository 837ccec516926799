package utils

import "strings"

// WebSocketURL converts an http(s) base URL to its ws(s) equivalent.
// Already-ws URLs pass through unchanged.
func WebSocketURL(base string) string {
	base = strings.TrimSuffix(base, "/")
	switch {
	case strings.HasPrefix(base, "ws://"), strings.HasPrefix(base, "wss://"):
		return base
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return "ws://" + base
}

// RelayClientURL builds the websocket URL a client uses to join a relay
// room. The room code is the hub identity, so the relay stays a dumb
// forwarder with no session awareness of its own.
func RelayClientURL(relayBase, room string) string {
	return WebSocketURL(relayBase) + "/ws?role=client&code=" + room
}

// RelayHubURL builds the websocket URL a hub uses to park its leg.
func RelayHubURL(relayBase, room string) string {
	return WebSocketURL(relayBase) + "/ws?role=hub&code=" + room
}
