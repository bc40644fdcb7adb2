// Package journal appends received messages to a text file, one per line.
package journal
