// Package client implements the UDP side that sends a greeting and waits for the reply.
package client
