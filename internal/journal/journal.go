package journal

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Journal is an append-only message log backed by a file
type Journal struct {
	path string
	file *os.File
	w    *bufio.Writer

	mu    sync.Mutex
	count uint64
}

// Open opens (or creates) the journal file for appending
func Open(path string) (*Journal, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}

	return &Journal{
		path: path,
		file: file,
		w:    bufio.NewWriter(file),
	}, nil
}

// Write appends a message and flushes it to the file. Embedded newlines are
// escaped so every entry stays on a single line.
func (j *Journal) Write(message string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return fmt.Errorf("journal %s is closed", j.path)
	}

	line := strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(message)
	if _, err := j.w.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}
	if err := j.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush journal: %w", err)
	}

	j.count++
	return nil
}

// Count returns the number of entries written since Open
func (j *Journal) Count() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}

// Path returns the journal file path
func (j *Journal) Path() string {
	return j.path
}

// Close flushes pending data and closes the file. It is safe to call twice.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}

	flushErr := j.w.Flush()
	closeErr := j.file.Close()
	j.file = nil

	if flushErr != nil {
		return fmt.Errorf("failed to flush journal: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close journal: %w", closeErr)
	}
	return nil
}
