// Package server implements the UDP ping/pong server and its HTTP monitoring API.
// The UDP loop handles one datagram at a time: receive, decode, classify by
// keyword, reply to the sender, repeat.
package server

// Service identity reported by the HTTP API
const (
	ServiceName    = "pingpong-udp-server"
	ServiceVersion = "1.0.0"
)
