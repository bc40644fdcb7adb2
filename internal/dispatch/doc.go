// Package dispatch classifies received text by case-insensitive keyword match
// and selects the canned reply.
package dispatch
