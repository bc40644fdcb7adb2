// Package codec converts between text and wire bytes. The encoding is chosen by
// name so the code page is a configuration value rather than hard-coded logic.
package codec
