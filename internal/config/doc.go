// Package config provides configuration loading and validation for the ping/pong
// UDP client and server. Values come from built-in defaults, an optional YAML
// file and PINGPONG_* environment overrides, in that order.
package config
